package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "shopagent.db")
	s, err := Open(ctx, Config{
		Path:      dbPath,
		EnableWAL: true,
	})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestChatMessagesRoundtrip(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	msgs := []ChatMessage{
		{SessionID: "sess-a", Seq: 0, Role: "system", Content: "persona"},
		{SessionID: "sess-a", Seq: 1, Role: "user", Content: "这件卫衣多少钱？"},
		{SessionID: "sess-a", Seq: 2, Role: "assistant", Content: "", ToolCallsJSON: `[{"id":"call_1"}]`},
		{SessionID: "sess-a", Seq: 3, Role: "tool", Content: "查询结果", ToolCallID: "call_1"},
		{SessionID: "sess-b", Seq: 0, Role: "system", Content: "persona"},
	}
	if err := s.InsertChatMessages(ctx, msgs); err != nil {
		t.Fatalf("insert messages: %v", err)
	}

	got, err := s.QueryChatMessages(ctx, MessageQuery{SessionID: "sess-a", Limit: 10})
	if err != nil {
		t.Fatalf("query messages: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got))
	}
	for i, m := range got {
		if m.Seq != i {
			t.Fatalf("unexpected seq order: got %d at position %d", m.Seq, i)
		}
	}
	if got[3].ToolCallID != "call_1" {
		t.Fatalf("expected tool_call_id call_1, got %q", got[3].ToolCallID)
	}

	count, err := s.CountChatMessages(ctx)
	if err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 messages total, got %d", count)
	}
}

func TestChatMessagesRoleFilterAndDelete(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour).UTC()
	msgs := []ChatMessage{
		{SessionID: "sess-a", Seq: 0, Role: "user", Content: "老消息", CreatedAt: old},
		{SessionID: "sess-a", Seq: 1, Role: "assistant", Content: "老回复", CreatedAt: old},
		{SessionID: "sess-b", Seq: 0, Role: "user", Content: "新消息"},
	}
	if err := s.InsertChatMessages(ctx, msgs); err != nil {
		t.Fatalf("insert messages: %v", err)
	}

	users, err := s.QueryChatMessages(ctx, MessageQuery{Role: "user", Limit: 10})
	if err != nil {
		t.Fatalf("query by role: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 user messages, got %d", len(users))
	}

	deleted, err := s.DeleteChatMessagesBefore(ctx, time.Now().Add(-24*time.Hour).UTC())
	if err != nil {
		t.Fatalf("delete before: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
}

func TestRecentSessionsAndKeepLatest(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UTC()
	msgs := []ChatMessage{
		{SessionID: "sess-old", Seq: 0, Role: "user", Content: "a", CreatedAt: base},
		{SessionID: "sess-mid", Seq: 0, Role: "user", Content: "b", CreatedAt: base.Add(10 * time.Minute)},
		{SessionID: "sess-new", Seq: 0, Role: "user", Content: "c", CreatedAt: base.Add(20 * time.Minute)},
	}
	if err := s.InsertChatMessages(ctx, msgs); err != nil {
		t.Fatalf("insert messages: %v", err)
	}

	recent, err := s.ListRecentSessionIDs(ctx, 2)
	if err != nil {
		t.Fatalf("list recent sessions: %v", err)
	}
	if len(recent) != 2 || recent[0] != "sess-new" || recent[1] != "sess-mid" {
		t.Fatalf("unexpected recent sessions: %v", recent)
	}

	deleted, err := s.DeleteChatMessagesExceptSessions(ctx, recent)
	if err != nil {
		t.Fatalf("delete except sessions: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
}

func TestToolAuditInsertUpdateQuery(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	record := &ToolAudit{
		TraceID:    "trace-1",
		SessionID:  "sess-a",
		Action:     "query_order_status",
		ParamsJSON: `{"order_id":"A100"}`,
		Status:     "running",
	}
	if err := s.InsertToolAudit(ctx, record); err != nil {
		t.Fatalf("insert audit: %v", err)
	}
	if record.ID == 0 {
		t.Fatal("expected audit id to be assigned")
	}

	status := "success"
	result := "订单 A100 的查询结果"
	finished := time.Now().UTC()
	err := s.UpdateToolAudit(ctx, record.ID, AuditUpdate{
		Status:     &status,
		ResultJSON: &result,
		FinishedAt: &finished,
	})
	if err != nil {
		t.Fatalf("update audit: %v", err)
	}

	got, err := s.QueryToolAudits(ctx, AuditQuery{TraceID: "trace-1", Limit: 10})
	if err != nil {
		t.Fatalf("query audits: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 audit, got %d", len(got))
	}
	if got[0].Status != "success" || got[0].ResultJSON != result {
		t.Fatalf("unexpected audit record: %+v", got[0])
	}
}

func TestToolAuditsKeepLatest(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UTC()
	for i := 0; i < 5; i++ {
		record := &ToolAudit{
			Action:    "query_product_info",
			Status:    "success",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.InsertToolAudit(ctx, record); err != nil {
			t.Fatalf("insert audit %d: %v", i, err)
		}
	}

	deleted, err := s.DeleteToolAuditsKeepLatest(ctx, 2)
	if err != nil {
		t.Fatalf("keep latest: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", deleted)
	}

	count, err := s.CountToolAudits(ctx)
	if err != nil {
		t.Fatalf("count audits: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 remaining, got %d", count)
	}
}
