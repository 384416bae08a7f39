package chatbot

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/trendfront/shopagent/internal/config"
)

// NewChatModel 初始化火山方舟(Ark)对话模型客户端。
func NewChatModel(ctx context.Context, cfg config.ArkConfig) (model.ToolCallingChatModel, error) {
	if cfg.APIKey == "" || cfg.ModelID == "" {
		return nil, fmt.Errorf("ARK_API_KEY 和 ARK_MODEL_ID 必须配置")
	}

	cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.ModelID,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化对话模型失败: %w", err)
	}
	return cm, nil
}
