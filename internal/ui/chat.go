package ui

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ChatBackend 是界面层对会话编排器的最小依赖。
type ChatBackend interface {
	Respond(ctx context.Context, query string) (string, error)
	History() []*schema.Message
}

// ChatUI 承载一次交互式会话，直到用户退出或 ctx 取消。
type ChatUI interface {
	Run(ctx context.Context, backend ChatBackend, opts ChatOptions) error
}

type ChatOptions struct {
	// ShowToolTrace 为 true 时在界面上展示工具调用过程。
	ShowToolTrace bool
}
