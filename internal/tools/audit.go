package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/trendfront/shopagent/internal/storage"
)

const auditTruncateLimit = 2048

// AuditedTool 在工具执行前后向数据库写入审计记录。
// 审计失败只打印告警，不阻断工具执行。
type AuditedTool struct {
	impl  tool.InvokableTool
	store *storage.Storage
}

// WrapWithAudit 将工具包装为带审计的版本。store 为 nil 时原样返回。
func WrapWithAudit(t tool.InvokableTool, store *storage.Storage) tool.InvokableTool {
	if store == nil {
		return t
	}
	return &AuditedTool{impl: t, store: store}
}

func (t *AuditedTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return t.impl.Info(ctx)
}

func (t *AuditedTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	action := "unknown"
	if info, err := t.impl.Info(ctx); err == nil && info != nil {
		action = info.Name
	}

	now := time.Now().UTC()
	record := &storage.ToolAudit{
		TraceID:    GetTraceID(ctx),
		SessionID:  GetSessionID(ctx),
		Action:     action,
		ParamsJSON: truncate(argumentsInJSON, auditTruncateLimit),
		Status:     "running",
		StartedAt:  now,
	}
	if err := t.store.InsertToolAudit(ctx, record); err != nil {
		fmt.Printf("[WARN] 写入工具审计记录失败: %v\n", err)
	}

	result, runErr := t.impl.InvokableRun(ctx, normalizeArgs(argumentsInJSON), opts...)

	finishedAt := time.Now().UTC()
	status := "success"
	var errMsg *string
	var resultJSON *string
	if runErr != nil {
		status = "failed"
		e := truncate(runErr.Error(), auditTruncateLimit)
		errMsg = &e
	} else {
		r := truncate(result, auditTruncateLimit)
		resultJSON = &r
	}

	if record.ID != 0 {
		update := storage.AuditUpdate{
			Status:       &status,
			ResultJSON:   resultJSON,
			ErrorMessage: errMsg,
			FinishedAt:   &finishedAt,
		}
		if err := t.store.UpdateToolAudit(ctx, record.ID, update); err != nil {
			fmt.Printf("[WARN] 更新工具审计记录失败: %v\n", err)
		}
	}

	return result, runErr
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
