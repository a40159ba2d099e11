package common

import (
	"time"

	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

type OrderSide string
type OrderType string
type OrderStatus string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

const (
	OrderTypeMarket          OrderType = "MARKET"
	OrderTypeLimit           OrderType = "LIMIT"
	OrderTypeStopLoss        OrderType = "STOP_LOSS"
	OrderTypeStopLossLimit   OrderType = "STOP_LOSS_LIMIT"
	OrderTypeTakeProfit      OrderType = "TAKE_PROFIT"
	OrderTypeTakeProfitLimit OrderType = "TAKE_PROFIT_LIMIT"
)

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var OrderSides = []OrderSide{OrderSideBuy, OrderSideSell}

var OrderTypes = []OrderType{
	OrderTypeMarket,
	OrderTypeLimit,
	OrderTypeStopLoss,
	OrderTypeStopLossLimit,
	OrderTypeTakeProfit,
	OrderTypeTakeProfitLimit,
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled
}

// HasStopPrice reports whether orders of this type wait for a stop price trigger.
func (t OrderType) HasStopPrice() bool {
	switch t {
	case OrderTypeStopLoss, OrderTypeStopLossLimit, OrderTypeTakeProfit, OrderTypeTakeProfitLimit:
		return true
	}
	return false
}

// HasLimitPrice reports whether orders of this type fill at their own price.
func (t OrderType) HasLimitPrice() bool {
	switch t {
	case OrderTypeLimit, OrderTypeStopLossLimit, OrderTypeTakeProfitLimit:
		return true
	}
	return false
}

// OrderOptions is the request accepted by Exchange.CreateOrder. A zero quantity
// or price means the field was not supplied.
type OrderOptions struct {
	Exchange      string      `json:"exchange"`
	Market        string      `json:"market"`
	Side          OrderSide   `json:"side"`
	Type          OrderType   `json:"type"`
	BaseQuantity  fixed.Point `json:"baseQuantity"`
	QuoteQuantity fixed.Point `json:"quoteQuantity"`
	Price         fixed.Point `json:"price"`
	StopPrice     fixed.Point `json:"stopPrice"`
	TimeStamp     time.Time   `json:"ts"`
}

type ExchangeOrder struct {
	Id        string      `json:"id"`
	TimeStamp time.Time   `json:"ts"`
	Exchange  string      `json:"exchange"`
	Market    string      `json:"market"`
	Status    OrderStatus `json:"status"`
	Side      OrderSide   `json:"side"`
	Type      OrderType   `json:"type"`

	BaseQuantity  fixed.Point `json:"baseQuantity"`
	QuoteQuantity fixed.Point `json:"quoteQuantity"`
	Price         fixed.Point `json:"price"`
	StopPrice     fixed.Point `json:"stopPrice"`
	StopPriceHit  bool        `json:"stopPriceHit"`

	BaseQuantityGross  fixed.Point `json:"baseQuantityGross"`
	BaseQuantityNet    fixed.Point `json:"baseQuantityNet"`
	QuoteQuantityGross fixed.Point `json:"quoteQuantityGross"`
	QuoteQuantityNet   fixed.Point `json:"quoteQuantityNet"`
	AveragePrice       fixed.Point `json:"averagePrice"`

	Trades   []Trade   `json:"trades"`
	ClosedAt time.Time `json:"closedAt"`
}

// Clone returns a copy that shares no slices with the receiver.
func (o ExchangeOrder) Clone() ExchangeOrder {
	o.Trades = append([]Trade(nil), o.Trades...)
	return o
}

func (o ExchangeOrder) Fields() []zap.Field {
	return []zap.Field{
		zap.String("order_id", o.Id),
		zap.String("market", o.Market),
		zap.String("side", string(o.Side)),
		zap.String("type", string(o.Type)),
		zap.String("status", string(o.Status)),
		zap.String("base_quantity", o.BaseQuantity.String()),
		zap.String("quote_quantity", o.QuoteQuantity.String()),
		zap.String("price", o.Price.String()),
	}
}
