package middleware

import (
	"context"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"go.uber.org/zap"
)

// Performance accumulates the time spent inside the handlers it wraps.
type Performance struct {
	logger *zap.Logger

	durations [bus.EventIdCount]time.Duration
}

func NewPerformance(logger *zap.Logger) *Performance {
	return &Performance{
		logger: logger,
	}
}

func (p *Performance) Duration(id bus.EventId) time.Duration {
	if id >= bus.EventIdCount {
		return 0
	}
	return p.durations[id]
}

func (p *Performance) measure(id bus.EventId, startTime time.Time) {
	p.durations[id] += time.Since(startTime)
}

func (p *Performance) WithCandle(handler bus.CandleEventHandler) bus.CandleEventHandler {
	return func(ctx context.Context, candle common.Candle) {
		defer p.measure(bus.CandleEvent, time.Now())
		handler(ctx, candle)
	}
}

func (p *Performance) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		defer p.measure(bus.SignalEvent, time.Now())
		handler(ctx, signal)
	}
}

func (p *Performance) WithPositionOpen(handler bus.PositionOpenEventHandler) bus.PositionOpenEventHandler {
	return func(ctx context.Context, request common.PositionOpenRequest) {
		defer p.measure(bus.PositionOpenEvent, time.Now())
		handler(ctx, request)
	}
}

func (p *Performance) WithPositionOpened(handler bus.PositionOpenedEventHandler) bus.PositionOpenedEventHandler {
	return func(ctx context.Context, position common.Position) {
		defer p.measure(bus.PositionOpenedEvent, time.Now())
		handler(ctx, position)
	}
}

func (p *Performance) WithPositionClose(handler bus.PositionCloseEventHandler) bus.PositionCloseEventHandler {
	return func(ctx context.Context, request common.PositionCloseRequest) {
		defer p.measure(bus.PositionCloseEvent, time.Now())
		handler(ctx, request)
	}
}

func (p *Performance) WithPositionCloseAll(handler bus.PositionCloseAllEventHandler) bus.PositionCloseAllEventHandler {
	return func(ctx context.Context, request common.PositionCloseAllRequest) {
		defer p.measure(bus.PositionCloseAllEvent, time.Now())
		handler(ctx, request)
	}
}

func (p *Performance) WithPositionUpdated(handler bus.PositionUpdatedEventHandler) bus.PositionUpdatedEventHandler {
	return func(ctx context.Context, position common.Position) {
		defer p.measure(bus.PositionUpdatedEvent, time.Now())
		handler(ctx, position)
	}
}

// PrintStatistics logs total and average handler durations. Averages need the
// event counts of t.
func (p *Performance) PrintStatistics(t *Telemetry) {
	if t == nil {
		p.logger.Warn("telemetry is nil; cannot compute performance statistics")
		return
	}

	var fields []zap.Field
	for id := bus.EventId(0); id < bus.EventIdCount; id++ {
		count := t.Count(id)
		if count == 0 || p.durations[id] == 0 {
			continue
		}
		fields = append(fields,
			zap.Duration(id.Topic()+"_avg_duration", p.durations[id]/time.Duration(count)),
			zap.Duration(id.Topic()+"_total_duration", p.durations[id]))
	}

	p.logger.Info("performance statistics", fields...)
}
