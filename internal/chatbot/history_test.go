package chatbot

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func turnMessages(query, reply string) []*schema.Message {
	return []*schema.Message{
		schema.UserMessage(query),
		schema.AssistantMessage(reply, nil),
	}
}

func TestWindowPolicyKeepsRecentTurns(t *testing.T) {
	history := []*schema.Message{schema.SystemMessage("persona")}
	history = append(history, turnMessages("q1", "a1")...)
	history = append(history, turnMessages("q2", "a2")...)
	history = append(history, turnMessages("q3", "a3")...)

	got := WindowPolicy{MaxTurns: 2}.Trim(history)
	// system + 最近两个回合。
	if len(got) != 5 {
		t.Fatalf("期望长度 5，实际 %d", len(got))
	}
	if got[0].Role != schema.System {
		t.Errorf("首条必须是 system 消息: %+v", got[0])
	}
	if got[1].Content != "q2" {
		t.Errorf("窗口应从 q2 开始，实际 %q", got[1].Content)
	}
}

func TestWindowPolicyPreservesToolPairs(t *testing.T) {
	history := []*schema.Message{schema.SystemMessage("persona")}
	history = append(history, turnMessages("q1", "a1")...)
	// 带工具往返的回合：user + 决策 + 工具结果 + 最终回复。
	history = append(history,
		schema.UserMessage("q2"),
		schema.AssistantMessage("", []schema.ToolCall{{ID: "c1", Function: schema.FunctionCall{Name: "query_product_info"}}}),
		schema.ToolMessage("result", "c1"),
		schema.AssistantMessage("a2", nil),
	)

	got := WindowPolicy{MaxTurns: 1}.Trim(history)
	if len(got) != 5 {
		t.Fatalf("期望长度 5，实际 %d", len(got))
	}
	if got[1].Content != "q2" || got[2].ToolCalls == nil || got[3].ToolCallID != "c1" {
		t.Errorf("工具调用与结果必须成对保留: %+v", got)
	}
}

func TestWindowPolicyNoopCases(t *testing.T) {
	history := []*schema.Message{schema.SystemMessage("persona")}
	history = append(history, turnMessages("q1", "a1")...)

	if got := (WindowPolicy{MaxTurns: 0}).Trim(history); len(got) != len(history) {
		t.Errorf("MaxTurns<=0 不应裁剪")
	}
	if got := (WindowPolicy{MaxTurns: 3}).Trim(history); len(got) != len(history) {
		t.Errorf("回合数未超出窗口时不应裁剪")
	}
	if got := (keepAllPolicy{}).Trim(history); len(got) != len(history) {
		t.Errorf("默认策略不应裁剪")
	}
}

func TestChatbotWithWindowPolicy(t *testing.T) {
	m := &fakeChatModel{responses: []*schema.Message{
		schema.AssistantMessage("a1", nil),
		schema.AssistantMessage("a2", nil),
		schema.AssistantMessage("a3", nil),
	}}
	b, err := New(m, newTestRegistry(t), &stubRetriever{}, nil, 3,
		WithHistoryPolicy(WindowPolicy{MaxTurns: 1}))
	if err != nil {
		t.Fatalf("创建编排器失败: %v", err)
	}

	ctx := context.Background()
	for _, q := range []string{"q1", "q2", "q3"} {
		if _, err := b.Respond(ctx, q); err != nil {
			t.Fatalf("对话失败: %v", err)
		}
	}

	h := b.History()
	// system + 上一回合（被裁剪前的 q2/a2）+ 本回合 q3/a3。
	if len(h) != 5 {
		t.Fatalf("期望历史长度 5，实际 %d", len(h))
	}
	if h[1].Content != "q2" || h[3].Content != "q3" {
		t.Errorf("窗口内容不符: %q %q", h[1].Content, h[3].Content)
	}
}

func TestChatbotWithExtraToolRounds(t *testing.T) {
	firstCall := schema.AssistantMessage("", []schema.ToolCall{
		{ID: "c1", Function: schema.FunctionCall{Name: "query_product_info", Arguments: `{"product_name":"卫衣"}`}},
	})
	secondCall := schema.AssistantMessage("", []schema.ToolCall{
		{ID: "c2", Function: schema.FunctionCall{Name: "query_order_status", Arguments: `{"order_id":"SN001"}`}},
	})
	m := &fakeChatModel{responses: []*schema.Message{
		firstCall,
		secondCall,
		schema.AssistantMessage("都查到了", nil),
	}}
	b, err := New(m, newTestRegistry(t), &stubRetriever{}, nil, 3, WithMaxToolRounds(2))
	if err != nil {
		t.Fatalf("创建编排器失败: %v", err)
	}

	got, err := b.Respond(context.Background(), "卫衣多少钱，顺便查下订单SN001")
	if err != nil {
		t.Fatalf("对话失败: %v", err)
	}
	if got != "都查到了" {
		t.Errorf("回复不符: %q", got)
	}
	// system + user + 两轮（决策+结果）+ 最终回复。
	h := b.History()
	if len(h) != 7 {
		t.Fatalf("期望历史长度 7，实际 %d", len(h))
	}
	if h[3].ToolCallID != "c1" || h[5].ToolCallID != "c2" {
		t.Errorf("两轮工具结果应依次出现: %+v", h)
	}
	if len(m.calls) != 3 {
		t.Errorf("期望 3 次模型调用，实际 %d", len(m.calls))
	}
}
