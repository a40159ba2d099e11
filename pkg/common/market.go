package common

import (
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

type MarketFees struct {
	Maker fixed.Point `json:"maker" yaml:"maker"`
	Taker fixed.Point `json:"taker" yaml:"taker"`
}

// MarketPrecision holds the number of decimal places per quantity kind.
type MarketPrecision struct {
	Base   int `json:"base" yaml:"base"`
	Price  int `json:"price" yaml:"price"`
	Quote  int `json:"quote" yaml:"quote"`
	Amount int `json:"amount" yaml:"amount"`
}

// Range is an inclusive interval. A zero Max means the range has no upper bound.
type Range struct {
	Min fixed.Point `json:"min" yaml:"min"`
	Max fixed.Point `json:"max" yaml:"max"`
}

func (r Range) BelowMin(v fixed.Point) bool { return v.Lt(r.Min) }
func (r Range) AboveMax(v fixed.Point) bool { return !r.Max.IsZero() && v.Gt(r.Max) }

type MarketLimits struct {
	Amount Range `json:"amount" yaml:"amount"`
	Cost   Range `json:"cost" yaml:"cost"`
}

type Market struct {
	Symbol    string          `json:"symbol" yaml:"symbol"`
	Base      string          `json:"base" yaml:"base"`
	Quote     string          `json:"quote" yaml:"quote"`
	Fees      MarketFees      `json:"fees" yaml:"fees"`
	Precision MarketPrecision `json:"precision" yaml:"precision"`
	Limits    MarketLimits    `json:"limits" yaml:"limits"`
}

func (m Market) Fields() []zap.Field {
	return []zap.Field{
		zap.String("symbol", m.Symbol),
		zap.String("base", m.Base),
		zap.String("quote", m.Quote),
		zap.String("taker_fee", m.Fees.Taker.String()),
		zap.Int("price_precision", m.Precision.Price),
		zap.Int("amount_precision", m.Precision.Amount),
	}
}
