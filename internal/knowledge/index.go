package knowledge

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	indexPrefix = "kb_index_"
	indexSuffix = ".json"
	// 文件名里的时间戳格式；按字符串排序即可得到时间序。
	indexTimeLayout = "20060102_1504"
)

// Passage 是索引中的一个可检索片段。
type Passage struct {
	Text   string    `json:"text"`
	Vector []float64 `json:"vector"`
}

// Index 是持久化在磁盘上的相似度索引：全部片段及其嵌入向量。
// 规模是店铺级的（FAQ + 商品描述），暴力余弦检索足够。
type Index struct {
	BuiltAt   string    `json:"built_at"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	Passages  []Passage `json:"passages"`
}

// Save 将索引写入 dir 下一个带构建时间戳的新文件，返回文件路径。
func (idx *Index) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建知识库目录失败: %w", err)
	}

	ts := time.Now().Format(indexTimeLayout)
	idx.BuiltAt = ts
	path := filepath.Join(dir, indexPrefix+ts+indexSuffix)

	data, err := json.Marshal(idx)
	if err != nil {
		return "", fmt.Errorf("序列化索引失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入索引文件失败: %w", err)
	}
	return path, nil
}

// LoadLatest 加载 dir 下最新的一个索引文件（按文件名排序，时间戳可比较）。
// 找不到任何索引时返回错误，调用方应视为启动失败。
func LoadLatest(dir string) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("知识库目录不存在: %q，请先运行 shopagent ingest 构建索引", dir)
	}

	var candidates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, indexPrefix) || !strings.HasSuffix(name, indexSuffix) {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("在 %q 中未找到任何 %s* 格式的索引，请先运行 shopagent ingest", dir, indexPrefix)
	}

	sort.Strings(candidates)
	latest := filepath.Join(dir, candidates[len(candidates)-1])

	data, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("读取索引文件失败: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("解析索引文件 %q 失败: %w", latest, err)
	}
	if len(idx.Passages) == 0 {
		return nil, fmt.Errorf("索引文件 %q 为空", latest)
	}
	return &idx, nil
}

// Search 返回与查询向量余弦相似度最高的 topK 个片段文本（相似度降序）。
func (idx *Index) Search(vector []float64, topK int) []string {
	if topK <= 0 || len(idx.Passages) == 0 {
		return nil
	}

	scores := make([]float64, len(idx.Passages))
	for i := range idx.Passages {
		scores[i] = cosine(idx.Passages[i].Vector, vector)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}
	out := make([]string, 0, topK)
	for _, j := range order[:topK] {
		out = append(out, idx.Passages[j].Text)
	}
	return out
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
