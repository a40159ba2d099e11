package middleware

import (
	"context"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"go.uber.org/zap"
)

// Telemetry counts the events passing through the handlers it wraps.
type Telemetry struct {
	logger *zap.Logger

	counters [bus.EventIdCount]int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{
		logger: logger,
	}
}

func (t *Telemetry) Count(id bus.EventId) int64 {
	if id >= bus.EventIdCount {
		return 0
	}
	return t.counters[id]
}

func (t *Telemetry) WithCandle(handler bus.CandleEventHandler) bus.CandleEventHandler {
	return func(ctx context.Context, candle common.Candle) {
		t.counters[bus.CandleEvent]++
		handler(ctx, candle)
	}
}

func (t *Telemetry) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		t.counters[bus.SignalEvent]++
		handler(ctx, signal)
	}
}

func (t *Telemetry) WithPositionOpen(handler bus.PositionOpenEventHandler) bus.PositionOpenEventHandler {
	return func(ctx context.Context, request common.PositionOpenRequest) {
		t.counters[bus.PositionOpenEvent]++
		handler(ctx, request)
	}
}

func (t *Telemetry) WithPositionOpened(handler bus.PositionOpenedEventHandler) bus.PositionOpenedEventHandler {
	return func(ctx context.Context, position common.Position) {
		t.counters[bus.PositionOpenedEvent]++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithPositionClose(handler bus.PositionCloseEventHandler) bus.PositionCloseEventHandler {
	return func(ctx context.Context, request common.PositionCloseRequest) {
		t.counters[bus.PositionCloseEvent]++
		handler(ctx, request)
	}
}

func (t *Telemetry) WithPositionCloseAll(handler bus.PositionCloseAllEventHandler) bus.PositionCloseAllEventHandler {
	return func(ctx context.Context, request common.PositionCloseAllRequest) {
		t.counters[bus.PositionCloseAllEvent]++
		handler(ctx, request)
	}
}

func (t *Telemetry) WithPositionUpdated(handler bus.PositionUpdatedEventHandler) bus.PositionUpdatedEventHandler {
	return func(ctx context.Context, position common.Position) {
		t.counters[bus.PositionUpdatedEvent]++
		handler(ctx, position)
	}
}

func (t *Telemetry) PrintStatistics() {
	fields := make([]zap.Field, 0, bus.EventIdCount)
	for id := bus.EventId(0); id < bus.EventIdCount; id++ {
		fields = append(fields, zap.Int64(id.Topic()+"_events", t.counters[id]))
	}
	t.logger.Info("event statistics", fields...)
}
