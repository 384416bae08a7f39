package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/trendfront/shopagent/internal/storage"
)

// storageCmd represents the storage command
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "管理存储和数据库",
	Long:  `提供查看数据库概况、清理会话转录和工具审计记录的命令。`,
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "显示数据库统计概况",
	Run:   runInfo,
}

// pruneChatCmd represents the prune-chat command
var pruneChatCmd = &cobra.Command{
	Use:   "prune-chat",
	Short: "清理会话转录",
	Long:  `根据用户指定的保留会话数或天数，清理旧的会话转录。`,
	Run:   runPruneChat,
}

// pruneAuditCmd represents the prune-audit command
var pruneAuditCmd = &cobra.Command{
	Use:   "prune-audit",
	Short: "清理工具审计记录",
	Long:  `根据用户指定的保留条数或天数，清理旧的工具审计记录。`,
	Run:   runPruneAudit,
}

var (
	keepChatSessions int
	keepChatDays     int
	keepAuditCount   int
	keepAuditDays    int
)

func init() {
	pruneChatCmd.Flags().IntVar(&keepChatSessions, "keep-sessions", 0, "保留最近的 N 个会话")
	pruneChatCmd.Flags().IntVar(&keepChatDays, "days", 0, "保留最近 N 天的转录")

	pruneAuditCmd.Flags().IntVar(&keepAuditCount, "keep", 0, "保留最近的 N 条记录")
	pruneAuditCmd.Flags().IntVar(&keepAuditDays, "days", 0, "保留最近 N 天的记录")

	rootCmd.AddCommand(storageCmd)
	storageCmd.AddCommand(infoCmd)
	storageCmd.AddCommand(pruneChatCmd)
	storageCmd.AddCommand(pruneAuditCmd)
}

func runPruneChat(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if keepChatSessions <= 0 && keepChatDays <= 0 {
		fmt.Println("Error: must specify either --keep-sessions or --days")
		cmd.Usage()
		os.Exit(1)
	}

	if cfg == nil {
		fmt.Println("Config not loaded")
		os.Exit(1)
	}

	fmt.Println("Opening database...")
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var deletedCount int64

	if keepChatSessions > 0 {
		fmt.Printf("Pruning chat messages, keeping latest %d sessions...\n", keepChatSessions)
		keep, err := store.ListRecentSessionIDs(ctx, keepChatSessions)
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}
		count, err := store.DeleteChatMessagesExceptSessions(ctx, keep)
		if err != nil {
			fmt.Printf("Error pruning by sessions: %v\n", err)
			os.Exit(1)
		}
		deletedCount += count
	}

	if keepChatDays > 0 {
		before := time.Now().UTC().AddDate(0, 0, -keepChatDays)
		fmt.Printf("Pruning chat messages older than %d days (before %s)...\n", keepChatDays, before.Format(time.RFC3339))
		count, err := store.DeleteChatMessagesBefore(ctx, before)
		if err != nil {
			fmt.Printf("Error pruning by days: %v\n", err)
			os.Exit(1)
		}
		deletedCount += count
	}

	fmt.Printf("Prune completed. Deleted %d records.\n", deletedCount)

	if count, err := store.CountChatMessages(ctx); err == nil {
		fmt.Printf("Remaining Chat Messages: %d\n", count)
	}
}

func runPruneAudit(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if keepAuditCount <= 0 && keepAuditDays <= 0 {
		fmt.Println("Error: must specify either --keep or --days")
		cmd.Usage()
		os.Exit(1)
	}

	if cfg == nil {
		fmt.Println("Config not loaded")
		os.Exit(1)
	}

	fmt.Println("Opening database...")
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var deletedCount int64

	if keepAuditCount > 0 {
		fmt.Printf("Pruning audit records, keeping latest %d records...\n", keepAuditCount)
		count, err := store.DeleteToolAuditsKeepLatest(ctx, keepAuditCount)
		if err != nil {
			fmt.Printf("Error pruning by count: %v\n", err)
			os.Exit(1)
		}
		deletedCount += count
	}

	if keepAuditDays > 0 {
		before := time.Now().UTC().AddDate(0, 0, -keepAuditDays)
		fmt.Printf("Pruning audit records older than %d days (before %s)...\n", keepAuditDays, before.Format(time.RFC3339))
		count, err := store.DeleteToolAuditsBefore(ctx, before)
		if err != nil {
			fmt.Printf("Error pruning by days: %v\n", err)
			os.Exit(1)
		}
		deletedCount += count
	}

	fmt.Printf("Prune completed. Deleted %d records.\n", deletedCount)

	if count, err := store.CountToolAudits(ctx); err == nil {
		fmt.Printf("Remaining Audit Records: %d\n", count)
	}
}

func runInfo(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if cfg == nil {
		fmt.Println("Config not loaded")
		os.Exit(1)
	}

	// 1. 获取数据库文件信息
	dbPath := cfg.Storage.Path
	if !filepath.IsAbs(dbPath) {
		if absPath, err := filepath.Abs(dbPath); err == nil {
			dbPath = absPath
		}
	}

	var dbSizeStr string
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			dbSizeStr = "Not Found (Will be created on first run)"
		} else {
			dbSizeStr = fmt.Sprintf("Error: %v", err)
		}
	} else {
		sizeMB := float64(info.Size()) / 1024 / 1024
		dbSizeStr = fmt.Sprintf("%.2f MB (%s)", sizeMB, dbPath)
	}

	// 2. 连接数据库
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Printf("Database File: %s\n", dbSizeStr)
		fmt.Printf("Error opening database: %v\n", err)
		return
	}
	defer store.Close()

	// 3. 获取统计信息
	messageCount, err := store.CountChatMessages(ctx)
	if err != nil {
		fmt.Printf("Error counting chat messages: %v\n", err)
	}
	auditCount, err := store.CountToolAudits(ctx)
	if err != nil {
		fmt.Printf("Error counting audit records: %v\n", err)
	}

	// 4. 格式化输出
	fmt.Printf("Database File: %s\n\n", dbSizeStr)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Table\tCount")
	fmt.Fprintln(w, "-----\t-----")
	fmt.Fprintf(w, "ChatMessages\t%d\n", messageCount)
	fmt.Fprintf(w, "ToolAudits\t%d\n", auditCount)
	w.Flush()
}
