package risk

import (
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// clamp bounds p to r. A zero maximum leaves p unbounded from above.
func clamp(p fixed.Point, r common.Range) fixed.Point {
	if r.AboveMax(p) {
		return r.Max
	} else if r.BelowMin(p) {
		return r.Min
	} else {
		return p
	}
}
