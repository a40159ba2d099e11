package sandbox

import (
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/exchange"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// emulateTrade computes the gross, net and fee amounts of filling order at
// price, and checks them against the market limits. It mutates nothing.
func emulateTrade(order common.ExchangeOrder, market common.Market, price fixed.Point) (common.Trade, error) {
	price = price.RoundDown(market.Precision.Price)
	if !price.IsPos() {
		return common.Trade{}, exchange.NewValidationError("price", exchange.KindNumberMin, "price %s must be positive", price)
	}

	var baseGross fixed.Point
	if order.BaseQuantity.IsPos() {
		baseGross = order.BaseQuantity.RoundDown(market.Precision.Amount)
	} else {
		baseGross = order.QuoteQuantity.Div(price).RoundDown(market.Precision.Amount)
	}

	if !baseGross.IsPos() || market.Limits.Amount.BelowMin(baseGross) {
		return common.Trade{}, exchange.NewValidationError("baseQuantity", exchange.KindMinimumLimit,
			"amount %s is below the market minimum %s", baseGross, market.Limits.Amount.Min)
	}
	if market.Limits.Amount.AboveMax(baseGross) {
		return common.Trade{}, exchange.NewValidationError("baseQuantity", exchange.KindMaximumLimit,
			"amount %s is above the market maximum %s", baseGross, market.Limits.Amount.Max)
	}

	quoteGross := baseGross.Mul(price).RoundUp(market.Precision.Price)
	if market.Limits.Cost.BelowMin(quoteGross) {
		return common.Trade{}, exchange.NewValidationError("quoteQuantity", exchange.KindMinimumLimit,
			"cost %s is below the market minimum %s", quoteGross, market.Limits.Cost.Min)
	}
	if market.Limits.Cost.AboveMax(quoteGross) {
		return common.Trade{}, exchange.NewValidationError("quoteQuantity", exchange.KindMaximumLimit,
			"cost %s is above the market maximum %s", quoteGross, market.Limits.Cost.Max)
	}

	trade := common.Trade{
		ForeignId:          order.Id,
		Price:              price,
		BaseQuantityGross:  baseGross,
		BaseQuantityNet:    baseGross,
		QuoteQuantityGross: quoteGross,
		QuoteQuantityNet:   quoteGross,
	}

	if order.Side == common.OrderSideBuy {
		fee := baseGross.Mul(market.Fees.Taker)
		trade.Fee = common.Fee{Currency: market.Base, Cost: fee}
		trade.BaseQuantityNet = baseGross.Sub(fee).RoundDown(market.Precision.Amount)
	} else {
		fee := quoteGross.Mul(market.Fees.Taker)
		trade.Fee = common.Fee{Currency: market.Quote, Cost: fee}
		trade.QuoteQuantityNet = quoteGross.Sub(fee).RoundUp(market.Precision.Price)
	}

	return trade, nil
}

// applyTrade returns order as filled by trade. The requested quantities stay
// untouched so the amount locked at creation can still be released.
func applyTrade(order common.ExchangeOrder, trade common.Trade) common.ExchangeOrder {
	filled := order.Clone()
	filled.Trades = append(filled.Trades, trade)

	filled.Price = trade.Price
	filled.AveragePrice = trade.Price
	filled.BaseQuantityGross = trade.BaseQuantityGross
	filled.BaseQuantityNet = trade.BaseQuantityNet
	filled.QuoteQuantityGross = trade.QuoteQuantityGross
	filled.QuoteQuantityNet = trade.QuoteQuantityNet
	filled.Status = common.OrderStatusFilled
	filled.ClosedAt = trade.TimeStamp

	return filled
}
