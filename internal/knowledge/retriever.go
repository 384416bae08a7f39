package knowledge

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
)

// Retriever 基于已构建的本地索引做语义检索。
// 索引加载后只读，可被多个会话并发查询。
type Retriever struct {
	index    *Index
	embedder embedding.Embedder
}

// NewRetriever 加载 dir 下最新的索引。没有可用索引是硬性启动失败。
func NewRetriever(dir string, embedder embedding.Embedder) (*Retriever, error) {
	idx, err := LoadLatest(dir)
	if err != nil {
		return nil, err
	}
	return &Retriever{index: idx, embedder: embedder}, nil
}

// Retrieve 返回与 query 语义最相近的至多 k 个片段（相似度降序）。
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	vectors, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("查询嵌入失败: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("嵌入服务未返回向量")
	}
	return r.index.Search(vectors[0], k), nil
}

// PassageCount 返回索引中的片段总数。
func (r *Retriever) PassageCount() int {
	return len(r.index.Passages)
}
