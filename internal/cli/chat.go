package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trendfront/shopagent/internal/chatbot"
	"github.com/trendfront/shopagent/internal/knowledge"
	"github.com/trendfront/shopagent/internal/storage"
	"github.com/trendfront/shopagent/internal/tools"
	"github.com/trendfront/shopagent/internal/tui"
	"github.com/trendfront/shopagent/internal/ui"
)

var (
	chatUI        string
	chatToolTrace bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "进入交互式客服对话模式",
	Long: `启动智能客服'小潮'并进入交互式问答。
客服会先检索知识库，在必要时调用内置工具查询商品信息或订单状态。
使用前请先通过 'shopagent ingest' 构建知识库索引。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		fmt.Println("正在初始化智能客服...")

		store, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("打开存储失败: %w", err)
		}
		defer store.Close()

		embedder, err := knowledge.NewEmbedder(ctx, cfg.Embedding)
		if err != nil {
			return err
		}

		retriever, err := knowledge.NewRetriever(cfg.Knowledge.Dir, embedder)
		if err != nil {
			return err
		}
		fmt.Printf("知识库已加载（%d 个片段）。\n", retriever.PassageCount())

		registry, err := tools.NewRegistry(ctx,
			tools.WrapWithAudit(&tools.OrderStatusTool{OrdersPath: cfg.Data.OrdersPath}, store),
			tools.WrapWithAudit(&tools.ProductInfoTool{ProductsPath: cfg.Data.ProductsPath}, store),
		)
		if err != nil {
			return err
		}

		chatModel, err := chatbot.NewChatModel(ctx, cfg.Ark)
		if err != nil {
			return err
		}

		bot, err := chatbot.New(chatModel, registry, retriever, store, cfg.Knowledge.TopK)
		if err != nil {
			return err
		}
		fmt.Println("智能客服'小潮'已启动，可以开始提问了！")

		var uiImpl ui.ChatUI
		switch chatUI {
		case "console", "":
			uiImpl = &ui.ConsoleChatUI{In: os.Stdin, Out: os.Stdout}
		case "tui":
			uiImpl = &tui.ChatUI{}
		default:
			return fmt.Errorf("未知 ui 类型: %s (支持: console, tui)", chatUI)
		}

		return uiImpl.Run(ctx, bot, ui.ChatOptions{
			ShowToolTrace: chatToolTrace,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatUI, "ui", "console", "交互界面类型: console/tui")
	chatCmd.Flags().BoolVar(&chatToolTrace, "tool-trace", false, "在界面上展示工具调用过程（仅 tui）")
}
