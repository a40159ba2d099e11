package exchange

import (
	"context"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// Exchange is the capability set every venue, simulated or live, provides.
// Query methods return copies; the venue stays the only mutator of its state.
type Exchange interface {
	Name() string

	Markets() []common.Market
	Market(symbol string) (common.Market, bool)

	Balances() []common.Balance
	Balance(symbol string) (common.Balance, bool)

	Orders() []common.ExchangeOrder
	Order(id string) (common.ExchangeOrder, bool)

	CreateOrder(ctx context.Context, options common.OrderOptions) (common.ExchangeOrder, error)
	CancelOrder(ctx context.Context, id string) error
	Evaluate(ctx context.Context) error
}

// Feed exposes the prices a venue is currently evaluated against.
type Feed interface {
	Tick() (fixed.Point, bool)
	Candle() (common.Candle, bool)
}

// Venue is an Exchange that also exposes its price feed.
type Venue interface {
	Exchange
	Feed
}
