package chatbot

import "github.com/cloudwego/eino/schema"

// HistoryPolicy 决定每轮开始前保留多少历史，与编排循环解耦。
// 实现必须保留首条人设 system 消息。
type HistoryPolicy interface {
	Trim(history []*schema.Message) []*schema.Message
}

// keepAllPolicy 不做任何裁剪（默认策略）。
type keepAllPolicy struct{}

func (keepAllPolicy) Trim(history []*schema.Message) []*schema.Message {
	return history
}

// WindowPolicy 只保留最近 MaxTurns 个用户回合，首条 system 消息永远保留。
// 窗口总是从某条 user 消息开始，保证不会截断工具调用与其结果的配对。
type WindowPolicy struct {
	MaxTurns int
}

func (p WindowPolicy) Trim(history []*schema.Message) []*schema.Message {
	if p.MaxTurns <= 0 || len(history) == 0 {
		return history
	}

	count := 0
	start := -1
	for i := len(history) - 1; i > 0; i-- {
		if history[i].Role == schema.User {
			count++
			if count > p.MaxTurns {
				start = i
				break
			}
		}
	}
	// 回合数未超出窗口，保持原样。
	if start < 0 {
		return history
	}

	// 跳过被裁掉的那个回合，窗口从下一条 user 消息开始。
	next := -1
	for i := start + 1; i < len(history); i++ {
		if history[i].Role == schema.User {
			next = i
			break
		}
	}
	if next < 0 {
		return history
	}

	out := make([]*schema.Message, 0, 1+len(history)-next)
	out = append(out, history[0])
	out = append(out, history[next:]...)
	return out
}
