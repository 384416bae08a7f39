package tools

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Table 是一张加载到内存的 CSV 表：表头加若干行，单元格一律按字符串处理。
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ReadTable 读取 CSV 文件并整表载入内存。数据集是店铺级的，不做流式处理。
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开数据文件失败: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析 CSV 失败: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("数据文件 %q 为空", path)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	tbl := &Table{Headers: headers}
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, nil
}
