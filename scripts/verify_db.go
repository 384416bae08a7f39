package main

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/trendfront/shopagent/internal/storage"
	"gorm.io/gorm"
)

func main() {
	// Connect to the database
	db, err := gorm.Open(sqlite.Open("shopagent.db"), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	fmt.Println("--- Verifying shopagent Database ---")

	// Verify ChatMessages
	var messageCount int64
	// We need to verify if the table exists first to avoid panic if migration didn't run
	if !db.Migrator().HasTable(&storage.ChatMessage{}) {
		fmt.Println("Table 'chat_messages' does not exist yet.")
	} else {
		db.Model(&storage.ChatMessage{}).Count(&messageCount)
		fmt.Printf("Total Chat Message Records: %d\n", messageCount)

		if messageCount > 0 {
			var msgs []storage.ChatMessage
			db.Order("created_at desc").Limit(5).Find(&msgs)
			fmt.Println("Latest 5 Messages (Local Time):")
			for _, m := range msgs {
				content := m.Content
				if len(content) > 50 {
					content = content[:47] + "..."
				}
				sid := m.SessionID
				if len(sid) > 8 {
					sid = sid[:8]
				}
				fmt.Printf("  [%s] %s#%d [%s] %s\n",
					m.CreatedAt.Local().Format("2006-01-02 15:04:05"), sid, m.Seq, m.Role, content)
			}
		}
	}

	fmt.Println("\n------------------------------------")

	// Verify ToolAudits
	var auditCount int64
	if !db.Migrator().HasTable(&storage.ToolAudit{}) {
		fmt.Println("Table 'tool_audits' does not exist yet.")
	} else {
		db.Model(&storage.ToolAudit{}).Count(&auditCount)
		fmt.Printf("Total Tool Audit Records: %d\n", auditCount)

		if auditCount > 0 {
			var audits []storage.ToolAudit
			db.Order("created_at desc").Limit(5).Find(&audits)
			fmt.Println("Latest 5 Audits (Local Time):")
			for _, a := range audits {
				fmt.Printf("  [%s] %s [%s] %s\n",
					a.CreatedAt.Local().Format("2006-01-02 15:04:05"), a.Action, a.Status, a.ParamsJSON)
			}
		}
	}
}
