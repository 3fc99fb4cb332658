package nodes

import (
	"context"
	"fmt"

	"github.com/petrijr/nodeflux/pkg/api"
	"github.com/petrijr/nodeflux/pkg/nodes/broker"
)

// StockBuyNode resolves a stock by its Korean name and places a market buy
// order through the configured broker.
type StockBuyNode struct {
	Stocks *broker.Directory
	Broker broker.Broker
}

var _ api.Node = (*StockBuyNode)(nil)

func (*StockBuyNode) Descriptor() api.Descriptor {
	return api.Descriptor{
		ID:          "stock_buy_node",
		Name:        "주식 매수 노드",
		Description: "주식 매수 노드입니다",
		Type:        api.NodeTypeProcess,
		Category:    CategoryTest,
	}
}

func (*StockBuyNode) InputSchema() *api.Schema {
	return &api.Schema{Title: "StockBuyNodeInput", Fields: []api.Field{
		{Name: "stock_name", Type: api.FieldString, Description: "주식 이름", Required: true, MinLength: api.Ptr(1)},
		{Name: "quantity", Type: api.FieldInteger, Description: "매수 수량", Minimum: api.Ptr(1.0), Default: 1},
	}}
}

func (*StockBuyNode) OutputSchema() *api.Schema {
	return &api.Schema{Title: "StockBuyNodeOutput", Fields: []api.Field{
		{Name: "success", Type: api.FieldBoolean, Description: "주문 성공 여부", Required: true},
		{Name: "order_id", Type: api.FieldString, Description: "주문번호", Default: ""},
		{Name: "stock_name", Type: api.FieldString, Description: "주식 이름", Required: true},
		{Name: "stock_code", Type: api.FieldString, Description: "종목 코드", Required: true},
		{Name: "quantity", Type: api.FieldInteger, Description: "주문 수량", Required: true},
		{Name: "order_price", Type: api.FieldString, Description: "주문 가격", Default: ""},
		{Name: "message", Type: api.FieldString, Description: "결과 메시지", Required: true},
		{Name: "order_time", Type: api.FieldString, Description: "주문 시간", Default: ""},
		{Name: "simulated", Type: api.FieldBoolean, Description: "모의 기록 여부 (실제 주문 아님)", Default: false},
	}}
}

func (n *StockBuyNode) Execute(ctx context.Context, in api.Input) (api.Output, error) {
	if n.Stocks == nil || n.Broker == nil {
		return nil, api.Fail(api.FailureUnavailable, "stock trading is not configured")
	}

	name := in.String("stock_name")
	qty := in.Int("quantity")

	listing, err := n.Stocks.Find(ctx, name)
	if err != nil {
		return nil, err
	}

	receipt, err := n.Broker.Buy(ctx, broker.OrderRequest{Listing: listing, Quantity: qty})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("'%s' %d주 매수 주문이 성공적으로 접수되었습니다.", name, qty)
	if receipt.Simulated {
		message = fmt.Sprintf("'%s' %d주 매수 주문이 모의로 기록되었습니다. 실제 주문은 전송되지 않았습니다.", name, qty)
	}
	return api.Output{
		"success":     true,
		"order_id":    receipt.OrderID,
		"stock_name":  name,
		"stock_code":  listing.Code,
		"quantity":    qty,
		"order_price": receipt.Price,
		"message":     message,
		"order_time":  receipt.Time,
		"simulated":   receipt.Simulated,
	}, nil
}
