package exchange

import (
	"strings"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// NewMarket builds a market from a "BASE/QUOTE" symbol and validates it.
func NewMarket(symbol string, fees common.MarketFees, precision common.MarketPrecision, limits common.MarketLimits) (common.Market, error) {
	base, quote, ok := strings.Cut(symbol, "/")
	if !ok {
		return common.Market{}, NewValidationError("symbol", KindInvalid, "symbol %q is not in BASE/QUOTE form", symbol)
	}

	market := common.Market{
		Symbol:    symbol,
		Base:      base,
		Quote:     quote,
		Fees:      fees,
		Precision: precision,
		Limits:    limits,
	}
	if err := ValidateMarket(market); err != nil {
		return common.Market{}, err
	}
	return market, nil
}

func ValidateMarket(m common.Market) error {
	switch {
	case m.Symbol == "":
		return NewValidationError("symbol", KindRequired, "symbol is required")
	case m.Base == "":
		return NewValidationError("base", KindRequired, "base asset is required")
	case m.Quote == "":
		return NewValidationError("quote", KindRequired, "quote asset is required")
	case m.Base == m.Quote:
		return NewValidationError("quote", KindInvalid, "base and quote must differ")
	}

	for field, fee := range map[string]fixed.Point{"fees.maker": m.Fees.Maker, "fees.taker": m.Fees.Taker} {
		if fee.IsNeg() {
			return NewValidationError(field, KindNumberMin, "fee must not be negative")
		}
		if fee.Gte(fixed.One) {
			return NewValidationError(field, KindInvalid, "fee must be a fraction below 1")
		}
	}

	for field, places := range map[string]int{
		"precision.base":   m.Precision.Base,
		"precision.price":  m.Precision.Price,
		"precision.quote":  m.Precision.Quote,
		"precision.amount": m.Precision.Amount,
	} {
		if places < 0 || places > 18 {
			return NewValidationError(field, KindInvalid, "precision must be between 0 and 18 decimal places")
		}
	}

	for field, r := range map[string]common.Range{"limits.amount": m.Limits.Amount, "limits.cost": m.Limits.Cost} {
		if r.Min.IsNeg() || r.Max.IsNeg() {
			return NewValidationError(field, KindNumberMin, "limits must not be negative")
		}
		if !r.Max.IsZero() && r.Max.Lt(r.Min) {
			return NewValidationError(field, KindInvalid, "maximum %s is below minimum %s", r.Max, r.Min)
		}
	}

	return nil
}
