package position

import (
	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/expression"
	"go.uber.org/zap"
)

type Option func(*Manager)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithEvaluator(evaluator expression.Evaluator) Option {
	return func(m *Manager) {
		m.evaluator = evaluator
	}
}

// WithOpenedHandler adds an observer of position.opened. Observers run after
// the manager released its lock.
func WithOpenedHandler(handler bus.PositionOpenedEventHandler) Option {
	return func(m *Manager) {
		m.openedHandler = bus.MergeHandlers(m.openedHandler, handler)
	}
}

// WithUpdatedHandler adds an observer of position.updated.
func WithUpdatedHandler(handler bus.PositionUpdatedEventHandler) Option {
	return func(m *Manager) {
		m.updatedHandler = bus.MergeHandlers(m.updatedHandler, handler)
	}
}
