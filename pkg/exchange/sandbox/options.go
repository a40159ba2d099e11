package sandbox

import (
	"math/rand"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

type Option func(*Simulator)

// SlippageHandler returns the price a market order fills at for the given tick.
// The result is rounded down to the market price precision by the simulator.
type SlippageHandler func(tick fixed.Point) fixed.Point

func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

func WithMarkets(markets ...common.Market) Option {
	return func(s *Simulator) {
		s.initialMarkets = append(s.initialMarkets, markets...)
	}
}

func WithBalances(balances ...common.Balance) Option {
	return func(s *Simulator) {
		s.initialBalances = append(s.initialBalances, balances...)
	}
}

func WithSlippageHandler(slippageHandler SlippageHandler) Option {
	return func(s *Simulator) {
		s.slippageHandler = slippageHandler
	}
}

// WithRandSource seeds the default slippage handler.
func WithRandSource(source rand.Source) Option {
	return func(s *Simulator) {
		s.rand = rand.New(source)
	}
}

// WithInclusiveTriggers makes limit and stop prices equal to the candle high
// or low count as reached.
func WithInclusiveTriggers() Option {
	return func(s *Simulator) {
		s.inclusiveTriggers = true
	}
}
