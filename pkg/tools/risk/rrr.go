package risk

import "github.com/peter-kozarec/spotsim/pkg/utility/fixed"

var (
	excellentRiskRewardRatio = fixed.FromFloat64(2.5)
	goodRiskRewardRatio      = fixed.FromFloat64(2.0)
	fairRiskRewardRatio      = fixed.FromFloat64(1.5)

	excellentRiskRewardMultiplier = fixed.FromFloat64(1.4)
	goodRiskRewardMultiplier      = fixed.FromFloat64(1.2)
	fairRiskRewardMultiplier      = fixed.FromFloat64(1.0)
	poorRiskRewardMultiplier      = fixed.FromFloat64(0.8)
)

// riskRewardMultiplier returns one when the setup lacks a target or a stop.
func riskRewardMultiplier(entry, stop, target fixed.Point) fixed.Point {
	if entry.IsZero() || stop.IsZero() || target.IsZero() {
		return fixed.One
	}

	risk := entry.Sub(stop).Abs()
	if risk.IsZero() {
		return fixed.One
	}
	ratio := target.Sub(entry).Abs().Div(risk)

	if ratio.Gte(excellentRiskRewardRatio) {
		return excellentRiskRewardMultiplier
	} else if ratio.Gte(goodRiskRewardRatio) {
		return goodRiskRewardMultiplier
	} else if ratio.Gte(fairRiskRewardRatio) {
		return fairRiskRewardMultiplier
	}

	return poorRiskRewardMultiplier
}
