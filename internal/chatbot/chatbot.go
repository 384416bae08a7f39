package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/trendfront/shopagent/internal/storage"
	"github.com/trendfront/shopagent/internal/tools"
)

// ErrModelUnavailable 表示本轮对话因模型或检索服务不可用而失败。
// 失败的回合不会留下任何历史痕迹，调用方可以提示用户稍后重试。
var ErrModelUnavailable = errors.New("模型服务暂时不可用")

// ErrEmptyQuery 表示用户输入为空白。
var ErrEmptyQuery = errors.New("输入不能为空")

// ContextRetriever 为当前问题提供知识库上下文片段。
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Chatbot 是单个会话的编排器：检索知识库、调用对话模型、分发工具、
// 维护 append-only 的对话历史。非并发安全，一个会话一个实例。
type Chatbot struct {
	chatModel model.ToolCallingChatModel
	toolModel model.ToolCallingChatModel
	registry  *tools.Registry
	retriever ContextRetriever
	template  prompt.ChatTemplate

	topK          int
	maxToolRounds int
	policy        HistoryPolicy

	history   []*schema.Message
	sessionID string
	recorder  *storage.Storage
	nextSeq   int
}

// Option 调整编排器的可选策略。
type Option func(*Chatbot)

// WithHistoryPolicy 设置历史裁剪策略（默认不裁剪）。
func WithHistoryPolicy(p HistoryPolicy) Option {
	return func(b *Chatbot) {
		if p != nil {
			b.policy = p
		}
	}
}

// WithMaxToolRounds 设置每轮允许的工具往返次数（默认 1）。
func WithMaxToolRounds(n int) Option {
	return func(b *Chatbot) {
		if n > 0 {
			b.maxToolRounds = n
		}
	}
}

// New 创建一个会话编排器。recorder 可以为 nil（不落盘转录）。
func New(chatModel model.ToolCallingChatModel, registry *tools.Registry, retriever ContextRetriever, recorder *storage.Storage, topK int, opts ...Option) (*Chatbot, error) {
	if chatModel == nil {
		return nil, errors.New("对话模型未初始化")
	}
	if registry == nil {
		return nil, errors.New("工具注册表未初始化")
	}
	if retriever == nil {
		return nil, errors.New("检索器未初始化")
	}
	if topK <= 0 {
		topK = 3
	}

	toolModel, err := chatModel.WithTools(registry.ToolInfos())
	if err != nil {
		return nil, fmt.Errorf("绑定工具失败: %w", err)
	}

	b := &Chatbot{
		chatModel:     chatModel,
		toolModel:     toolModel,
		registry:      registry,
		retriever:     retriever,
		template:      newTurnTemplate(),
		topK:          topK,
		maxToolRounds: 1,
		policy:        keepAllPolicy{},
		history:       []*schema.Message{schema.SystemMessage(personaPrompt)},
		sessionID:     uuid.NewString(),
		recorder:      recorder,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.persistMessages(context.Background(), b.history)
	return b, nil
}

// SessionID 返回本会话的唯一标识。
func (b *Chatbot) SessionID() string {
	return b.sessionID
}

// History 返回当前对话历史的快照（含初始 system 消息）。
func (b *Chatbot) History() []*schema.Message {
	out := make([]*schema.Message, len(b.history))
	copy(out, b.history)
	return out
}

// Respond 处理一轮用户提问并返回客服回复。
//
// 流程：检索知识库 -> 模型决策（直接回答或调用工具）-> 执行工具 ->
// 模型基于工具结果生成最终回复。整轮的新消息先攒在 pending 里，
// 只有模型调用全部成功才一次性提交进历史；任何一步失败历史保持原样。
func (b *Chatbot) Respond(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	traceID := uuid.NewString()
	ctx = tools.WithTraceID(tools.WithSessionID(ctx, b.sessionID), traceID)

	b.history = b.policy.Trim(b.history)

	passages, err := b.retriever.Retrieve(ctx, query, b.topK)
	if err != nil {
		return "", fmt.Errorf("%w: 检索知识库失败: %v", ErrModelUnavailable, err)
	}

	msgs, err := b.template.Format(ctx, map[string]any{
		"context": strings.Join(passages, "\n\n"),
		"history": b.history,
		"query":   query,
	})
	if err != nil {
		return "", fmt.Errorf("构建对话消息失败: %w", err)
	}

	response, err := b.toolModel.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	pending := []*schema.Message{schema.UserMessage(query)}

	// 工具往返：每轮执行模型请求的全部工具，再让模型基于结果续写。
	// 超出 maxToolRounds 后不再执行，模型的文本部分原样返回。
	for round := 0; round < b.maxToolRounds && len(response.ToolCalls) > 0; round++ {
		pending = append(pending, response)
		for _, tc := range response.ToolCalls {
			fmt.Printf("---LLM决定调用工具: %s，参数: %s---\n", tc.Function.Name, tc.Function.Arguments)
			result := b.registry.Dispatch(ctx, tc.Function.Name, tc.Function.Arguments)
			pending = append(pending, schema.ToolMessage(result, tc.ID))
		}

		// 最后一次往返用未绑定工具的模型收尾，引导其给出文本回复。
		next := b.toolModel
		if round == b.maxToolRounds-1 {
			next = b.chatModel
		}
		response, err = next.Generate(ctx, append(b.History(), pending...))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
	}

	// 达到往返上限后模型仍在请求工具时，剥离未执行的请求再入史：
	// 历史里的每个工具请求都必须在下一条用户消息前有对应结果，
	// 悬空的请求会让服务端拒绝本会话之后的所有请求。
	final := response
	if len(response.ToolCalls) > 0 {
		content := response.Content
		if content == "" {
			content = "抱歉，这个问题我暂时没能处理好，您可以换个说法再问一次。"
		}
		final = schema.AssistantMessage(content, nil)
	}
	pending = append(pending, final)
	b.commit(ctx, pending...)
	return final.Content, nil
}

// commit 将一轮的新消息追加进历史并尽力落盘。
func (b *Chatbot) commit(ctx context.Context, msgs ...*schema.Message) {
	b.history = append(b.history, msgs...)
	b.persistMessages(ctx, msgs)
}

// persistMessages 把消息写入转录表。落盘失败不影响对话，只打印告警。
// 序号独立递增，历史被裁剪也不会回退。
func (b *Chatbot) persistMessages(ctx context.Context, msgs []*schema.Message) {
	if b.recorder == nil {
		b.nextSeq += len(msgs)
		return
	}
	records := make([]storage.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		record := storage.ChatMessage{
			SessionID:  b.sessionID,
			Seq:        b.nextSeq,
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		if len(msg.ToolCalls) > 0 {
			if data, err := json.Marshal(msg.ToolCalls); err == nil {
				record.ToolCallsJSON = string(data)
			}
		}
		records = append(records, record)
		b.nextSeq++
	}
	if err := b.recorder.InsertChatMessages(ctx, records); err != nil {
		fmt.Printf("[WARN] 写入会话转录失败: %v\n", err)
	}
}
