package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	defaultLimit = 200
	maxLimit     = 5000
)

type MessageQuery struct {
	// SessionID 为可选过滤条件，精确匹配。
	SessionID string
	// Role 为可选过滤条件（system/user/assistant/tool），精确匹配。
	Role string
	// From/To 过滤 CreatedAt 区间：[From, To]（两端包含）。
	From *time.Time
	To   *time.Time
	// Limit 限制返回条数；<=0 使用默认值。
	Limit int
	// Desc 按会话内序号倒序返回（优先返回最新消息）。
	Desc bool
}

func (s *Storage) InsertChatMessage(ctx context.Context, msg *ChatMessage) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if msg == nil {
		return errors.New("message is nil")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *Storage) InsertChatMessages(ctx context.Context, msgs []ChatMessage) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range msgs {
		if msgs[i].CreatedAt.IsZero() {
			msgs[i].CreatedAt = now
		}
	}
	if err := s.db.WithContext(ctx).CreateInBatches(msgs, 200).Error; err != nil {
		return fmt.Errorf("insert chat messages: %w", err)
	}
	return nil
}

func (s *Storage) QueryChatMessages(ctx context.Context, q MessageQuery) ([]ChatMessage, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}

	limit := normalizeLimit(q.Limit)
	db := s.db.WithContext(ctx).Model(&ChatMessage{})
	if q.SessionID != "" {
		db = db.Where("session_id = ?", q.SessionID)
	}
	if q.Role != "" {
		db = db.Where("role = ?", q.Role)
	}
	if q.From != nil {
		db = db.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("created_at <= ?", *q.To)
	}
	if q.Desc {
		db = db.Order("session_id DESC").Order("seq DESC")
	} else {
		db = db.Order("session_id ASC").Order("seq ASC")
	}
	db = db.Limit(limit)

	var out []ChatMessage
	if err := db.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	return out, nil
}

func (s *Storage) CountChatMessages(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&ChatMessage{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count chat messages: %w", err)
	}
	return count, nil
}

func (s *Storage) DeleteChatMessagesBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	res := s.db.WithContext(ctx).Where("created_at < ?", before).Delete(&ChatMessage{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete chat messages: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteChatMessagesExceptSessions 删除不属于给定会话集合的全部消息。
// 配合 ListRecentSessionIDs 实现“只保留最近 N 个会话”的清理策略。
func (s *Storage) DeleteChatMessagesExceptSessions(ctx context.Context, keep []string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	db := s.db.WithContext(ctx)
	var res *gorm.DB
	if len(keep) > 0 {
		res = db.Where("session_id NOT IN ?", keep).Delete(&ChatMessage{})
	} else {
		res = db.Delete(&ChatMessage{}, "1 = 1")
	}
	if res.Error != nil {
		return 0, fmt.Errorf("delete chat messages: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListRecentSessionIDs 返回最近活跃的 N 个会话 ID（按最新消息时间倒序）。
func (s *Storage) ListRecentSessionIDs(ctx context.Context, n int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	if n <= 0 {
		n = 1
	}
	var ids []string
	err := s.db.WithContext(ctx).Model(&ChatMessage{}).
		Group("session_id").
		Order("MAX(created_at) DESC").
		Limit(n).
		Pluck("session_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	return ids, nil
}

type AuditUpdate struct {
	Status       *string
	ResultJSON   *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

func (s *Storage) InsertToolAudit(ctx context.Context, record *ToolAudit) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if record == nil {
		return errors.New("record is nil")
	}
	now := time.Now().UTC()
	if record.StartedAt.IsZero() {
		record.StartedAt = now
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("insert tool audit: %w", err)
	}
	return nil
}

func (s *Storage) UpdateToolAudit(ctx context.Context, id uint64, update AuditUpdate) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if id == 0 {
		return errors.New("id is zero")
	}

	fields := map[string]interface{}{}
	if update.Status != nil {
		fields["status"] = *update.Status
	}
	if update.ResultJSON != nil {
		fields["result_json"] = *update.ResultJSON
	}
	if update.ErrorMessage != nil {
		fields["error_message"] = *update.ErrorMessage
	}
	if update.FinishedAt != nil {
		fields["finished_at"] = *update.FinishedAt
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&ToolAudit{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("update tool audit: %w", err)
	}
	return nil
}

type AuditQuery struct {
	// TraceID/SessionID/Action/Status 为可选过滤条件，均为精确匹配。
	TraceID   string
	SessionID string
	Action    string
	Status    string
	// From/To 过滤 StartedAt 区间：[From, To]（两端包含）。
	From *time.Time
	To   *time.Time
	// Limit 限制返回条数；<=0 使用默认值。
	Limit int
	// Desc 按 StartedAt 倒序返回（优先返回最新调用）。
	Desc bool
}

func (s *Storage) QueryToolAudits(ctx context.Context, q AuditQuery) ([]ToolAudit, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}

	limit := normalizeLimit(q.Limit)
	db := s.db.WithContext(ctx).Model(&ToolAudit{})
	if q.TraceID != "" {
		db = db.Where("trace_id = ?", q.TraceID)
	}
	if q.SessionID != "" {
		db = db.Where("session_id = ?", q.SessionID)
	}
	if q.Action != "" {
		db = db.Where("action = ?", q.Action)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.From != nil {
		db = db.Where("started_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("started_at <= ?", *q.To)
	}
	if q.Desc {
		db = db.Order("started_at DESC")
	} else {
		db = db.Order("started_at ASC")
	}
	db = db.Limit(limit)

	var out []ToolAudit
	if err := db.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query tool audits: %w", err)
	}
	return out, nil
}

func (s *Storage) CountToolAudits(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&ToolAudit{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count tool audits: %w", err)
	}
	return count, nil
}

func (s *Storage) DeleteToolAuditsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	res := s.db.WithContext(ctx).Where("created_at < ?", before).Delete(&ToolAudit{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete tool audits: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Storage) DeleteToolAuditsKeepLatest(ctx context.Context, keep int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	if keep <= 0 {
		return 0, errors.New("keep must be positive")
	}

	var ids []uint64
	err := s.db.WithContext(ctx).Model(&ToolAudit{}).
		Order("created_at DESC").
		Limit(keep).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("select latest tool audits: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Where("id NOT IN ?", ids).Delete(&ToolAudit{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete tool audits: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
