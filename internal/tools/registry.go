package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// OrderStatusTool 查询订单状态的工具。
type OrderStatusTool struct {
	OrdersPath string
}

func (t *OrderStatusTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "query_order_status",
		Desc: "根据订单ID查询订单的完整信息，包括状态、物流和收货地址。当用户询问订单进度、物流、发货情况时使用。",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"order_id": {
				Type:     schema.String,
				Desc:     "订单号，例如 SN20240601001",
				Required: true,
			},
		}),
	}, nil
}

func (t *OrderStatusTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal([]byte(normalizeArgs(argumentsInJSON)), &args); err != nil {
		return "", fmt.Errorf("解析 query_order_status 参数失败: %w", err)
	}
	return QueryOrderStatus(t.OrdersPath, args.OrderID), nil
}

// ProductInfoTool 查询商品详情的工具。
type ProductInfoTool struct {
	ProductsPath string
}

func (t *ProductInfoTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "query_product_info",
		Desc: "根据商品名称查询其详细信息，包括价格、描述和各尺码的库存。当用户询问商品价格、库存、有没有货时使用。",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"product_name": {
				Type:     schema.String,
				Desc:     "商品名称或关键词，例如 '卫衣'",
				Required: true,
			},
		}),
	}, nil
}

func (t *ProductInfoTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		ProductName string `json:"product_name"`
	}
	if err := json.Unmarshal([]byte(normalizeArgs(argumentsInJSON)), &args); err != nil {
		return "", fmt.Errorf("解析 query_product_info 参数失败: %w", err)
	}
	return QueryProductInfo(t.ProductsPath, args.ProductName), nil
}

// Registry 按名称分发工具调用。模型偶尔会要求不存在的工具或给出残缺参数，
// Dispatch 永远返回一段文本而不是错误，让模型有机会向用户解释。
type Registry struct {
	tools map[string]tool.InvokableTool
	infos []*schema.ToolInfo
}

// NewRegistry 收集工具的元信息并建立名称索引。
func NewRegistry(ctx context.Context, ts ...tool.InvokableTool) (*Registry, error) {
	r := &Registry{tools: make(map[string]tool.InvokableTool, len(ts))}
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("获取工具信息失败: %w", err)
		}
		r.tools[info.Name] = t
		r.infos = append(r.infos, info)
	}
	return r, nil
}

// ToolInfos 返回注册工具的元信息，用于绑定到对话模型。
func (r *Registry) ToolInfos() []*schema.ToolInfo {
	return r.infos
}

// Dispatch 执行一次工具调用并返回结果文本。
func (r *Registry) Dispatch(ctx context.Context, name, argumentsInJSON string) string {
	t, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("未知的工具: %s", name)
	}
	result, err := t.InvokableRun(ctx, argumentsInJSON)
	if err != nil {
		fmt.Printf("工具 %s 执行失败: %v\n", name, err)
		return fmt.Sprintf("工具 %s 执行失败，请换个说法再试一次。", name)
	}
	return result
}

// normalizeArgs 容忍模型输出的空参数或被截断的 JSON。
func normalizeArgs(argumentsInJSON string) string {
	trimmed := strings.TrimSpace(argumentsInJSON)
	if trimmed == "" || trimmed == "{" {
		return "{}"
	}
	return trimmed
}
