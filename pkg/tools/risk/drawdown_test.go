package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

func TestRisk_defaultDrawdownMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		drawdown fixed.Point
		want     fixed.Point
	}{
		{"no drawdown", fixed.FromFloat64(1.0), fixed.FromFloat64(1.2)},
		{"low drawdown", fixed.FromFloat64(3.0), fixed.FromFloat64(1.0)},
		{"normal drawdown", fixed.FromFloat64(7.0), fixed.FromFloat64(0.7)},
		{"high drawdown", fixed.FromFloat64(12.0), fixed.FromFloat64(0.5)},
		{"extreme drawdown", fixed.FromFloat64(20.0), fixed.FromFloat64(0.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := defaultDrawdownMultiplier(tt.drawdown)
			assert.True(t, got.Eq(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestRisk_WithDrawdownMultiplierTwicePanics(t *testing.T) {
	m := &Manager{}
	WithDefaultDrawdownMultiplier()(m)
	assert.Panics(t, func() { WithDefaultDrawdownMultiplier()(m) })
}
