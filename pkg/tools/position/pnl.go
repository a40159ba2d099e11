package position

import (
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// calcPnL recomputes the realized, unrealized and total PnL of a position from
// its orders. Unrealized PnL needs a tick; a zero tick leaves it at zero.
func calcPnL(position *common.Position, precision int, tick fixed.Point) {
	buyBase, buyQuote := fixed.Zero, fixed.Zero
	sellBase, sellQuote := fixed.Zero, fixed.Zero

	for _, order := range position.Orders {
		switch order.Side {
		case common.OrderSideBuy:
			buyBase = buyBase.Add(order.BaseQuantityNet)
			buyQuote = buyQuote.Add(order.QuoteQuantityGross)
		case common.OrderSideSell:
			sellBase = sellBase.Add(order.BaseQuantityNet)
			sellQuote = sellQuote.Add(order.QuoteQuantityNet)
		}
	}

	realized := fixed.Zero
	if !sellBase.IsZero() {
		realized = sellQuote.Sub(buyQuote)
	}

	unrealized := fixed.Zero
	offset := buyBase.Sub(sellBase).RoundDown(precision)
	if !offset.IsZero() && tick.IsPos() {
		unrealized = offset.Mul(tick).Add(sellQuote).Sub(buyQuote)
	}

	pnl := realized.Add(unrealized)

	position.RealizedPnL = realized
	position.RealizedPnLPercent = percentOf(realized, buyQuote)
	position.UnrealizedPnL = unrealized
	position.UnrealizedPnLPercent = percentOf(unrealized, buyQuote)
	position.PnL = pnl
	position.PnLPercent = percentOf(pnl, buyQuote)

	position.Win = nil
	if position.Status == common.PositionStatusClosed {
		win := pnl.IsPos()
		position.Win = &win
	}
}

func percentOf(value, base fixed.Point) fixed.Point {
	if value.IsZero() || base.IsZero() {
		return fixed.Zero
	}
	return value.Div(base).Mul(fixed.Hundred)
}
