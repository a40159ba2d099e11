package common

import (
	"time"

	"github.com/peter-kozarec/spotsim/pkg/utility"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

type PositionStatus string
type PositionType string

const (
	PositionStatusNew     PositionStatus = "NEW"
	PositionStatusOpen    PositionStatus = "OPEN"
	PositionStatusClosing PositionStatus = "CLOSING"
	PositionStatusClosed  PositionStatus = "CLOSED"
)

const (
	PositionTypeLong PositionType = "LONG"
)

// EntrySpec describes one BUY order that opens a position.
type EntrySpec struct {
	Type          OrderType   `json:"type" yaml:"type"`
	BaseQuantity  fixed.Point `json:"baseQuantity" yaml:"baseQuantity"`
	QuoteQuantity fixed.Point `json:"quoteQuantity" yaml:"quoteQuantity"`
	Price         fixed.Point `json:"price" yaml:"price"`
	StopPrice     fixed.Point `json:"stopPrice" yaml:"stopPrice"`
}

// ExitSpec describes one SELL order staged once every entry is filled. The
// parameters are either literals or expressions over the position context.
type ExitSpec struct {
	Id           string    `json:"id" yaml:"id"`
	Type         OrderType `json:"type" yaml:"type"`
	BaseQuantity ExitParam `json:"baseQuantity" yaml:"baseQuantity"`
	Price        ExitParam `json:"price" yaml:"price"`
	StopPrice    ExitParam `json:"stopPrice" yaml:"stopPrice"`
}

type PositionMetrics struct {
	Duration time.Duration `json:"duration"`
}

// Order is the position-scoped view of an exchange order. Its mutable fields
// mirror the ExchangeOrder referenced by ForeignId.
type Order struct {
	Id        string       `json:"id"`
	ForeignId string       `json:"foreignId"`
	ExitId    string       `json:"exitId,omitempty"`
	Options   OrderOptions `json:"options"`

	Status       OrderStatus `json:"status"`
	Side         OrderSide   `json:"side"`
	Type         OrderType   `json:"type"`
	Price        fixed.Point `json:"price"`
	StopPrice    fixed.Point `json:"stopPrice"`
	StopPriceHit bool        `json:"stopPriceHit"`

	BaseQuantity       fixed.Point `json:"baseQuantity"`
	QuoteQuantity      fixed.Point `json:"quoteQuantity"`
	BaseQuantityGross  fixed.Point `json:"baseQuantityGross"`
	BaseQuantityNet    fixed.Point `json:"baseQuantityNet"`
	QuoteQuantityGross fixed.Point `json:"quoteQuantityGross"`
	QuoteQuantityNet   fixed.Point `json:"quoteQuantityNet"`
	AveragePrice       fixed.Point `json:"averagePrice"`

	Trades    []Trade   `json:"trades"`
	TimeStamp time.Time `json:"ts"`
	ClosedAt  time.Time `json:"closedAt"`
}

// Refresh copies the state of the referenced exchange order into o.
func (o *Order) Refresh(e ExchangeOrder) {
	o.Status = e.Status
	o.Side = e.Side
	o.Type = e.Type
	o.Price = e.Price
	o.StopPrice = e.StopPrice
	o.StopPriceHit = e.StopPriceHit
	o.BaseQuantity = e.BaseQuantity
	o.QuoteQuantity = e.QuoteQuantity
	o.BaseQuantityGross = e.BaseQuantityGross
	o.BaseQuantityNet = e.BaseQuantityNet
	o.QuoteQuantityGross = e.QuoteQuantityGross
	o.QuoteQuantityNet = e.QuoteQuantityNet
	o.AveragePrice = e.AveragePrice
	o.Trades = append([]Trade(nil), e.Trades...)
	o.TimeStamp = e.TimeStamp
	o.ClosedAt = e.ClosedAt
}

type Position struct {
	Id          string              `json:"id"`
	SignalId    string              `json:"signalId,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid"`
	TimeStamp   time.Time           `json:"ts"`
	Exchange    string              `json:"exchange"`
	Market      string              `json:"market"`
	Status      PositionStatus      `json:"status"`
	Type        PositionType        `json:"type"`
	Entries     []EntrySpec         `json:"entries"`
	Exits       []ExitSpec          `json:"exits"`
	Win         *bool               `json:"win"`

	RealizedPnL          fixed.Point `json:"realizedPnL"`
	RealizedPnLPercent   fixed.Point `json:"realizedPnLPercent"`
	UnrealizedPnL        fixed.Point `json:"unrealizedPnL"`
	UnrealizedPnLPercent fixed.Point `json:"unrealizedPnLPercent"`
	PnL                  fixed.Point `json:"pnl"`
	PnLPercent           fixed.Point `json:"pnlPercent"`

	Orders    []Order         `json:"orders"`
	Metrics   PositionMetrics `json:"metrics"`
	CreatedAt time.Time       `json:"createdAt"`
	ClosedAt  time.Time       `json:"closedAt"`
}

// Clone returns a deep copy so observers can never alias manager state.
func (p Position) Clone() Position {
	p.Entries = append([]EntrySpec(nil), p.Entries...)
	p.Exits = append([]ExitSpec(nil), p.Exits...)
	orders := make([]Order, len(p.Orders))
	for i, order := range p.Orders {
		order.Trades = append([]Trade(nil), order.Trades...)
		orders[i] = order
	}
	p.Orders = orders
	if p.Win != nil {
		win := *p.Win
		p.Win = &win
	}
	return p
}

func (p Position) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("position_id", p.Id),
		zap.String("market", p.Market),
		zap.String("status", string(p.Status)),
		zap.Int("orders", len(p.Orders)),
		zap.String("pnl", p.PnL.String()),
		zap.String("pnl_percent", p.PnLPercent.String()),
	}
	if p.Win != nil {
		fields = append(fields, zap.Bool("win", *p.Win))
	}
	return fields
}
