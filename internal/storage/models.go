package storage

import "time"

// ChatMessage 表示会话转录中的一条持久化消息。
//
// 内存中的对话历史仍由编排器独占持有；这张表只是 append-only 的落盘副本，
// 便于事后回看会话、按会话清理，以及未来在存储层做历史裁剪策略。
type ChatMessage struct {
	// ID 为自增主键（内部使用）。
	ID uint64 `gorm:"primaryKey"`
	// SessionID 标识一次会话（进程生命周期内唯一）；与 Seq 组成联合索引。
	SessionID string `gorm:"size:64;not null;index:idx_chat_messages_session_seq,priority:1"`
	// Seq 为消息在该会话历史中的序号（从 0 开始，含初始 system 消息）。
	Seq int `gorm:"not null;index:idx_chat_messages_session_seq,priority:2"`
	// Role 为消息角色：system/user/assistant/tool。
	Role string `gorm:"size:16;not null;index"`
	// Content 为消息正文；assistant 发起工具调用时可能为空。
	Content string `gorm:"type:text"`
	// ToolCallsJSON 存放 assistant 消息携带的工具调用请求（JSON 字符串，可选）。
	ToolCallsJSON string `gorm:"type:text"`
	// ToolCallID 为 tool 消息关联的调用 ID（可选）。
	ToolCallID string `gorm:"size:64"`
	// CreatedAt 为写入数据库时间，默认自动填充。
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"`
}

// ToolAudit 记录一次工具调用及其结果，用于审计、追溯与后续分析。
//
// 一条记录对应模型发起的一次工具执行（例如查订单、查商品）。
// 复杂入参/输出统一以 JSON 字符串存放，便于快速落地与版本演进。
type ToolAudit struct {
	// ID 为自增主键（内部使用）。
	ID uint64 `gorm:"primaryKey"`
	// TraceID 用于串联一轮对话内的所有工具调用（每个用户回合一个）。
	TraceID string `gorm:"size:64;index"`
	// SessionID 标识工具调用所属的会话（可选）。
	SessionID string `gorm:"size:64;index"`
	// Action 为工具名（例如 query_order_status / query_product_info）。
	Action string `gorm:"size:128;not null;index"`
	// ParamsJSON 存放模型给出的调用参数（JSON 字符串）。
	ParamsJSON string `gorm:"type:text"`
	// ResultJSON 存放工具返回的文本结果（可截断）。
	ResultJSON string `gorm:"type:text"`
	// Status 表示执行状态（running/success/failed）。
	Status string `gorm:"size:32;not null;index"`
	// ErrorMessage 存放失败时的错误信息（可选）。
	ErrorMessage string `gorm:"type:text"`
	// StartedAt/FinishedAt 表示调用起止时间。
	StartedAt  time.Time `gorm:"index"`
	FinishedAt time.Time `gorm:"index"`
	// CreatedAt 为记录写入数据库的时间，默认自动填充。
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"`
}
