package strategy

import (
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

type Option func(*MeanReversion)

func WithLogger(logger *zap.Logger) Option {
	return func(m *MeanReversion) {
		m.logger = logger
	}
}

// WithThreshold sets the z-score magnitude a close has to reach below the
// mean to trigger an entry.
func WithThreshold(threshold fixed.Point) Option {
	return func(m *MeanReversion) {
		m.threshold = threshold.Abs()
	}
}

// WithStopMultiplier places the stop that many average true ranges below the entry.
func WithStopMultiplier(multiplier fixed.Point) Option {
	return func(m *MeanReversion) {
		m.stopMultiplier = multiplier
	}
}

func WithAtrWindow(windowSize int) Option {
	return func(m *MeanReversion) {
		m.atrWindow = windowSize
	}
}
