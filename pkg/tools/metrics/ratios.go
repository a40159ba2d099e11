package metrics

import "github.com/peter-kozarec/spotsim/pkg/utility/fixed"

// sharpeRatio is the mean return per unit of sample deviation.
func sharpeRatio(returns []fixed.Point) fixed.Point {
	mean := fixed.Mean(returns)
	deviation := fixed.SampleStdDev(returns, mean)
	if deviation.IsZero() {
		return fixed.Zero
	}
	return mean.Div(deviation)
}

// sortinoRatio is the mean return per unit of downside deviation, where every
// return above zero counts as zero shortfall.
func sortinoRatio(returns []fixed.Point) fixed.Point {
	if len(returns) == 0 {
		return fixed.Zero
	}

	sum := fixed.Zero
	for _, r := range returns {
		if r.IsNeg() {
			sum = sum.Add(r.Mul(r))
		}
	}
	if sum.IsZero() {
		return fixed.Zero
	}
	return fixed.Mean(returns).Div(sum.DivInt(len(returns)).Sqrt())
}
