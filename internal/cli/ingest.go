package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trendfront/shopagent/internal/knowledge"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "构建知识库索引",
	Long: `读取 FAQ 文本与商品 CSV，切分并计算嵌入，
在知识库目录下生成一个新的时间戳索引文件。
'chat' 命令启动时总是加载最新的索引，旧索引保留不动。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		fmt.Println("开始构建知识库索引...")

		embedder, err := knowledge.NewEmbedder(ctx, cfg.Embedding)
		if err != nil {
			return err
		}

		path, count, err := knowledge.BuildIndex(ctx, embedder, cfg.Knowledge.Dir, knowledge.BuildOptions{
			Sources:      cfg.Knowledge.Sources,
			ProductsPath: cfg.Data.ProductsPath,
			ChunkSize:    cfg.Knowledge.ChunkSize,
			ChunkOverlap: cfg.Knowledge.ChunkOverlap,
			Model:        cfg.Embedding.Model,
		})
		if err != nil {
			return fmt.Errorf("构建索引失败: %w", err)
		}

		fmt.Printf("索引构建完成：%s（%d 个片段）。\n", path, count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
