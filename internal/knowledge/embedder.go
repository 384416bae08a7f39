package knowledge

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/trendfront/shopagent/internal/config"
)

// NewEmbedder 初始化嵌入模型客户端（OpenAI 兼容接口，例如硅基流动）。
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, fmt.Errorf("EMBEDDING_API_KEY 和 embedding.model 必须配置")
	}

	emb, err := openai.NewEmbedder(ctx, &openai.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化嵌入模型失败: %w", err)
	}
	return emb, nil
}
