package trader

import (
	"github.com/peter-kozarec/spotsim/pkg/tools/risk"
	"go.uber.org/zap"
)

type Option func(*Trader)

func WithLogger(logger *zap.Logger) Option {
	return func(t *Trader) {
		t.logger = logger
	}
}

// WithStrategy adds a strategy that sees every candle after the positions
// were evaluated against it.
func WithStrategy(strategy Strategy) Option {
	return func(t *Trader) {
		t.strategies = append(t.strategies, strategy)
	}
}

func WithRiskOptions(options ...risk.Option) Option {
	return func(t *Trader) {
		t.riskOptions = append(t.riskOptions, options...)
	}
}
