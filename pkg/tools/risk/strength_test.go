package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

func TestRisk_signalStrengthMultiplier(t *testing.T) {
	tests := []struct {
		name           string
		signalStrength uint8
		want           fixed.Point
	}{
		{"unset signal strength", 0, fixed.FromFloat64(1.0)},
		{"high signal strength", 95, fixed.FromFloat64(1.0)},
		{"medium signal strength", 75, fixed.FromFloat64(0.7)},
		{"low signal strength", 55, fixed.FromFloat64(0.5)},
		{"no signal strength", 30, fixed.FromFloat64(0.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signalStrengthMultiplier(tt.signalStrength)
			assert.True(t, got.Eq(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}
