package middleware

import (
	"context"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"go.uber.org/zap"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorCandles
	MonitorSignals
	MonitorPositionOpen
	MonitorPositionOpened
	MonitorPositionClose
	MonitorPositionCloseAll
	MonitorPositionUpdated
)

var monitorFlagNames = map[string]MonitorFlags{
	"none":              MonitorNone,
	"all":               MonitorAll,
	"candle":            MonitorCandles,
	"signal":            MonitorSignals,
	"position.open":     MonitorPositionOpen,
	"position.opened":   MonitorPositionOpened,
	"position.close":    MonitorPositionClose,
	"position.closeAll": MonitorPositionCloseAll,
	"position.updated":  MonitorPositionUpdated,
}

// ParseMonitorFlags combines the flags named by topics. Unknown names are
// reported in the second return value.
func ParseMonitorFlags(topics []string) (MonitorFlags, []string) {
	var flags MonitorFlags
	var unknown []string
	for _, topic := range topics {
		flag, ok := monitorFlagNames[topic]
		if !ok {
			unknown = append(unknown, topic)
			continue
		}
		flags |= flag
	}
	if flags == 0 {
		flags = MonitorNone
	}
	return flags, unknown
}

// Monitor logs the events selected by its flags before passing them on.
type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{
		logger: logger,
		flags:  flags,
	}
}

func (m *Monitor) enabled(flag MonitorFlags) bool {
	return m.flags&flag != 0 || m.flags&MonitorAll != 0
}

func (m *Monitor) WithCandle(handler bus.CandleEventHandler) bus.CandleEventHandler {
	return func(ctx context.Context, candle common.Candle) {
		if m.enabled(MonitorCandles) {
			m.logger.Info("event", zap.Any("candle", candle))
		}
		handler(ctx, candle)
	}
}

func (m *Monitor) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		if m.enabled(MonitorSignals) {
			m.logger.Info("event", zap.Any("signal", signal))
		}
		handler(ctx, signal)
	}
}

func (m *Monitor) WithPositionOpen(handler bus.PositionOpenEventHandler) bus.PositionOpenEventHandler {
	return func(ctx context.Context, request common.PositionOpenRequest) {
		if m.enabled(MonitorPositionOpen) {
			m.logger.Info("event", zap.Any("position_open", request))
		}
		handler(ctx, request)
	}
}

func (m *Monitor) WithPositionOpened(handler bus.PositionOpenedEventHandler) bus.PositionOpenedEventHandler {
	return func(ctx context.Context, position common.Position) {
		if m.enabled(MonitorPositionOpened) {
			m.logger.Info("event", zap.Any("position_opened", position))
		}
		handler(ctx, position)
	}
}

func (m *Monitor) WithPositionClose(handler bus.PositionCloseEventHandler) bus.PositionCloseEventHandler {
	return func(ctx context.Context, request common.PositionCloseRequest) {
		if m.enabled(MonitorPositionClose) {
			m.logger.Info("event", zap.Any("position_close", request))
		}
		handler(ctx, request)
	}
}

func (m *Monitor) WithPositionCloseAll(handler bus.PositionCloseAllEventHandler) bus.PositionCloseAllEventHandler {
	return func(ctx context.Context, request common.PositionCloseAllRequest) {
		if m.enabled(MonitorPositionCloseAll) {
			m.logger.Info("event", zap.Any("position_close_all", request))
		}
		handler(ctx, request)
	}
}

func (m *Monitor) WithPositionUpdated(handler bus.PositionUpdatedEventHandler) bus.PositionUpdatedEventHandler {
	return func(ctx context.Context, position common.Position) {
		if m.enabled(MonitorPositionUpdated) {
			m.logger.Info("event", zap.Any("position_updated", position))
		}
		handler(ctx, position)
	}
}
