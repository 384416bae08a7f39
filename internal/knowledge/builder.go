package knowledge

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/trendfront/shopagent/internal/tools"
)

// 每次嵌入请求携带的片段数，避免单次请求过大。
const embedBatchSize = 16

type BuildOptions struct {
	// Sources 为 FAQ 等纯文本文件路径，逐个可选（缺失的文件跳过并提示）。
	Sources []string
	// ProductsPath 为商品 CSV 路径；每个商品生成一条“名称。描述”文档。
	ProductsPath string
	ChunkSize    int
	ChunkOverlap int
	// Model 记录在索引元数据中，便于排查维度不一致的问题。
	Model string
}

// BuildIndex 加载数据源，切分文本，计算嵌入并写入一个新的时间戳索引文件。
// 返回索引文件路径与片段数。
func BuildIndex(ctx context.Context, embedder embedding.Embedder, dir string, opts BuildOptions) (string, int, error) {
	docs, err := loadDocuments(opts)
	if err != nil {
		return "", 0, err
	}
	if len(docs) == 0 {
		return "", 0, fmt.Errorf("没有可用的知识库数据源")
	}
	fmt.Printf("已加载 %d 份文档。\n", len(docs))

	chunker := NewChunker(opts.ChunkSize, opts.ChunkOverlap)
	var chunks []string
	for _, doc := range docs {
		chunks = append(chunks, chunker.Split(doc)...)
	}
	if len(chunks) == 0 {
		return "", 0, fmt.Errorf("数据源切分后没有任何片段")
	}
	fmt.Printf("文档已切分为 %d 个片段。\n", len(chunks))

	idx := &Index{Model: opts.Model}
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		vectors, err := embedder.EmbedStrings(ctx, chunks[start:end])
		if err != nil {
			return "", 0, fmt.Errorf("计算嵌入失败: %w", err)
		}
		if len(vectors) != end-start {
			return "", 0, fmt.Errorf("嵌入服务返回向量数不匹配: 期望 %d，得到 %d", end-start, len(vectors))
		}
		for i, v := range vectors {
			if idx.Dimension == 0 {
				idx.Dimension = len(v)
			}
			idx.Passages = append(idx.Passages, Passage{Text: chunks[start+i], Vector: v})
		}
	}

	path, err := idx.Save(dir)
	if err != nil {
		return "", 0, err
	}
	return path, len(idx.Passages), nil
}

func loadDocuments(opts BuildOptions) ([]string, error) {
	var docs []string

	for _, src := range opts.Sources {
		data, err := os.ReadFile(src)
		if err != nil {
			fmt.Printf("跳过数据源 %q: %v\n", src, err)
			continue
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			docs = append(docs, text)
		}
	}

	if opts.ProductsPath != "" {
		productDocs, err := loadProductDocs(opts.ProductsPath)
		if err != nil {
			fmt.Printf("跳过商品数据源 %q: %v\n", opts.ProductsPath, err)
		} else {
			docs = append(docs, productDocs...)
		}
	}

	return docs, nil
}

// loadProductDocs 为每个商品拼一条可检索的短文档：名称。描述
func loadProductDocs(path string) ([]string, error) {
	tbl, err := tools.ReadTable(path)
	if err != nil {
		return nil, err
	}
	var docs []string
	for _, row := range tbl.Rows {
		name := strings.TrimSpace(row["product_name"])
		if name == "" {
			continue
		}
		doc := name + "。" + strings.TrimSpace(row["description"])
		docs = append(docs, strings.TrimSpace(doc))
	}
	return docs, nil
}
