package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/trendfront/shopagent/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd 是没有子命令时调用的基础命令
var rootCmd = &cobra.Command{
	Use:   "shopagent",
	Short: "shopagent 是'潮流前线'店铺的 AI 智能客服",
	Long: `shopagent 结合知识库检索（RAG）与工具调用，
以对话方式解答店铺政策、商品信息与订单状态等问题。`,
}

// Execute 将所有子命令添加到根命令并适当设置标志。
// 这由 main.main() 调用。它只需要对 rootCmd 调用一次。
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件（默认按 ./config.yaml、$HOME/.shopagent/config.yaml 搜索）")
}

// initConfig 读取 .env、配置文件和环境变量（如果已设置）。
func initConfig() {
	// .env 不存在时静默跳过，密钥也可以直接走环境变量。
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
}
