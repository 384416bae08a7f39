package tools

import (
	"fmt"
	"strings"
)

// QueryOrderStatus 根据订单号从订单表中查出状态、物流与收货地址，
// 拼成一段给模型转述的中文结果。任何失败都以可读文案返回，不向上抛错。
func QueryOrderStatus(ordersPath, orderID string) string {
	fmt.Printf("---TOOL: 正在从CSV查询订单 %s 的状态...---\n", orderID)

	tbl, err := ReadTable(ordersPath)
	if err != nil {
		fmt.Printf("错误：订单数据文件不可用: %v\n", err)
		return "抱歉，暂时无法访问订单系统，请稍后再试。"
	}

	// 订单号不区分大小写，精确匹配；一个订单可能对应多行（多件商品）。
	var matched []map[string]string
	for _, row := range tbl.Rows {
		if strings.EqualFold(row["order_id"], orderID) {
			matched = append(matched, row)
		}
	}
	if len(matched) == 0 {
		return fmt.Sprintf("抱歉，没有找到订单号为 %s 的信息，请检查订单号是否正确。", orderID)
	}

	first := matched[0]
	status := first["order_status"]
	logisticsProvider := first["logistics_provider"]
	logisticsID := first["logistics_id"]
	shippingAddress := first["shipping_address"]

	items := make([]string, 0, len(matched))
	for _, row := range matched {
		items = append(items, fmt.Sprintf("%s (数量: %s)", row["product_name"], row["quantity"]))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "订单 %s (包含商品: %s) 的查询结果如下：\n", orderID, strings.Join(items, ", "))
	fmt.Fprintf(&b, " - **状态**: %s\n", status)

	if shippingAddress != "" {
		fmt.Fprintf(&b, " - **收货地址**: %s\n", shippingAddress)
	}

	switch status {
	case "已发货":
		if logisticsProvider != "" && logisticsID != "" {
			fmt.Fprintf(&b, " - **物流信息**: 由 %s 承运，物流单号是 %s。", logisticsProvider, logisticsID)
		} else {
			b.WriteString(" - **物流信息**: 暂未更新，请稍后刷新。")
		}
	case "待发货":
		b.WriteString(" - **备注**: 我们正在加急为您打包，请您耐心等待。")
	case "已签收":
		b.WriteString(" - **备注**: 感谢您的惠顾，期待您的再次光临！")
	case "已取消":
		b.WriteString(" - **备注**: 此订单已被取消。如果您有任何疑问，可以随时联系我们。")
	}

	return b.String()
}
