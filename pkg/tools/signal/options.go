package signal

import (
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
