package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trendfront/shopagent/internal/storage"
)

func TestAuditedToolRecordsSuccess(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Config{Path: filepath.Join(t.TempDir(), "audit.db")})
	if err != nil {
		t.Fatalf("打开存储失败: %v", err)
	}
	defer store.Close()

	ordersPath := writeFixture(t, "orders.csv", ordersCSV)
	wrapped := WrapWithAudit(&OrderStatusTool{OrdersPath: ordersPath}, store)

	ctx = WithTraceID(WithSessionID(ctx, "session-1"), "trace-1")
	result, err := wrapped.InvokableRun(ctx, `{"order_id":"SN001"}`)
	if err != nil {
		t.Fatalf("执行工具失败: %v", err)
	}
	if !strings.Contains(result, "已发货") {
		t.Errorf("工具结果不符: %s", result)
	}

	records, err := store.QueryToolAudits(ctx, storage.AuditQuery{TraceID: "trace-1"})
	if err != nil {
		t.Fatalf("查询审计记录失败: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("期望 1 条审计记录，实际 %d", len(records))
	}
	rec := records[0]
	if rec.Action != "query_order_status" {
		t.Errorf("期望动作 query_order_status，实际 %q", rec.Action)
	}
	if rec.Status != "success" {
		t.Errorf("期望状态 success，实际 %q", rec.Status)
	}
	if rec.SessionID != "session-1" {
		t.Errorf("期望会话 session-1，实际 %q", rec.SessionID)
	}
	if !strings.Contains(rec.ResultJSON, "SN001") {
		t.Errorf("审计结果应包含工具输出")
	}
	if rec.FinishedAt.IsZero() {
		t.Errorf("完成时间未记录")
	}
}

func TestWrapWithAuditNilStore(t *testing.T) {
	impl := &OrderStatusTool{OrdersPath: "orders.csv"}
	if got := WrapWithAudit(impl, nil); got != impl {
		t.Errorf("空存储时应返回原始工具")
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", auditTruncateLimit+10)
	got := truncate(long, auditTruncateLimit)
	if len(got) != auditTruncateLimit+len("...(truncated)") {
		t.Errorf("截断长度不符: %d", len(got))
	}
	if truncate("short", auditTruncateLimit) != "short" {
		t.Errorf("短字符串不应被截断")
	}
}
