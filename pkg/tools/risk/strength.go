package risk

import "github.com/peter-kozarec/spotsim/pkg/utility/fixed"

const (
	highSignalStrengthThreshold   uint8 = 90
	mediumSignalStrengthThreshold uint8 = 70
	lowSignalStrengthThreshold    uint8 = 50
)

var (
	highSignalStrengthMultiplier   = fixed.FromFloat64(1.0)
	mediumSignalStrengthMultiplier = fixed.FromFloat64(0.7)
	lowSignalStrengthMultiplier    = fixed.FromFloat64(0.5)
	noSignalStrengthMultiplier     = fixed.FromFloat64(0.0)
)

// signalStrengthMultiplier scales a position by signal conviction. Signals
// without a strength are treated as full conviction.
func signalStrengthMultiplier(signalStrength uint8) fixed.Point {
	switch {
	case signalStrength == 0:
		return fixed.One
	case signalStrength >= highSignalStrengthThreshold:
		return highSignalStrengthMultiplier
	case signalStrength >= mediumSignalStrengthThreshold:
		return mediumSignalStrengthMultiplier
	case signalStrength >= lowSignalStrengthThreshold:
		return lowSignalStrengthMultiplier
	default:
		return noSignalStrengthMultiplier
	}
}
