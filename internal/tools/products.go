package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// QueryProductInfo 按名称关键词模糊匹配商品，返回价格、描述与各尺码库存。
// 匹配到多款时请用户进一步澄清。失败一律返回可读文案。
func QueryProductInfo(productsPath, productName string) string {
	fmt.Printf("---TOOL: 正在从CSV查询商品 '%s' 的详细信息...---\n", productName)

	tbl, err := ReadTable(productsPath)
	if err != nil {
		fmt.Printf("错误：商品数据文件不可用: %v\n", err)
		return "抱歉，暂时无法连接到商品数据库，请稍后再试。"
	}

	keyword := strings.ToLower(productName)
	var matched []map[string]string
	for _, row := range tbl.Rows {
		if strings.Contains(strings.ToLower(row["product_name"]), keyword) {
			matched = append(matched, row)
		}
	}

	if len(matched) == 0 {
		return fmt.Sprintf("抱歉，我们店里好像没有找到与'%s'相关的商品哦，您可以换个关键词试试吗？", productName)
	}
	if len(matched) > 1 {
		names := make([]string, 0, len(matched))
		for _, row := range matched {
			names = append(names, row["product_name"])
		}
		return fmt.Sprintf("我们找到了几款相似的商品：%s。您具体想问哪一款呢？", strings.Join(names, ", "))
	}

	product := matched[0]
	name := product["product_name"]
	price := product["price"]
	description := product["description"]
	if description == "" {
		description = "暂无详细描述。"
	}

	// 库存列按 stock_ 前缀动态发现，例如 stock_s -> S 码。
	var availableSizes []string
	for _, col := range tbl.Headers {
		if !strings.HasPrefix(col, "stock_") {
			continue
		}
		raw := product[col]
		if raw == "" {
			continue
		}
		count, err := strconv.Atoi(raw)
		if err != nil {
			if f, ferr := strconv.ParseFloat(raw, 64); ferr == nil {
				count = int(f)
			} else {
				continue
			}
		}
		if count > 0 {
			size := strings.ToUpper(strings.TrimPrefix(col, "stock_"))
			availableSizes = append(availableSizes, fmt.Sprintf("%s码(%d件)", size, count))
		}
	}

	stockInfo := "抱歉，这款商品的所有尺码都卖完了。"
	if len(availableSizes) > 0 {
		stockInfo = fmt.Sprintf("目前有货的尺码和库存是：%s。", strings.Join(availableSizes, ", "))
	}

	return fmt.Sprintf("为您找到了商品 '%s' 的详细信息：\n - **价格**: %s 元\n - **商品描述**: %s\n - **库存情况**: %s",
		name, price, description, stockInfo)
}
