package bus

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var ErrCapacityReached = errors.New("event capacity reached")

type event struct {
	id   EventId
	data any
}

type subscription struct {
	pattern string
	handler TopicHandler
}

type RouterOption func(*Router)

func WithLogger(logger *zap.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

type Router struct {
	logger *zap.Logger
	events chan event

	OnCandle           CandleEventHandler
	OnSignal           SignalEventHandler
	OnPositionOpen     PositionOpenEventHandler
	OnPositionOpened   PositionOpenedEventHandler
	OnPositionClose    PositionCloseEventHandler
	OnPositionCloseAll PositionCloseAllEventHandler
	OnPositionUpdated  PositionUpdatedEventHandler

	mu            sync.RWMutex
	subscriptions []subscription

	runTime       atomic.Int64
	postCount     atomic.Uint64
	postFails     atomic.Uint64
	dispatchCount atomic.Uint64
	dispatchFails atomic.Uint64
}

func NewRouter(eventCapacity int, options ...RouterOption) *Router {
	r := &Router{
		logger: zap.NewNop(),
		events: make(chan event, eventCapacity),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// Subscribe registers handler for every topic matching pattern, for example
// "position.*". Patterns use path.Match syntax.
func (r *Router) Subscribe(pattern string, handler TopicHandler) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscriptions = append(r.subscriptions, subscription{pattern: pattern, handler: handler})
	return nil
}

func (r *Router) Post(id EventId, data any) error {
	select {
	case r.events <- event{id, data}:
		r.postCount.Add(1)
		return nil
	default:
		r.postFails.Add(1)
		return ErrCapacityReached
	}
}

// Exec dispatches events until ctx is done.
func (r *Router) Exec(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	go func() {
		r.reset()
		start := time.Now()
		defer func() {
			r.runTime.Add(int64(time.Since(start)))
		}()

		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case ev := <-r.events:
				r.process(ctx, ev)
			}
		}
	}()

	return done
}

// ExecLoop dispatches pending events and calls doOnceCb whenever the queue is
// empty. The loop ends with the first error doOnceCb returns.
func (r *Router) ExecLoop(ctx context.Context, doOnceCb func() error) <-chan error {
	done := make(chan error, 1)

	go func() {
		r.reset()
		start := time.Now()
		defer func() {
			r.runTime.Add(int64(time.Since(start)))
		}()

		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case ev := <-r.events:
				r.process(ctx, ev)
			default:
				if err := doOnceCb(); err != nil {
					done <- err
					return
				}
			}
		}
	}()

	return done
}

// Drain dispatches every queued event on the calling goroutine.
func (r *Router) Drain(ctx context.Context) {
	for {
		select {
		case ev := <-r.events:
			r.process(ctx, ev)
		default:
			return
		}
	}
}

func (r *Router) Statistics() Statistics {
	runTime := time.Duration(r.runTime.Load())
	stats := Statistics{
		RunTime:       runTime,
		PostCount:     r.postCount.Load(),
		PostFails:     r.postFails.Load(),
		DispatchCount: r.dispatchCount.Load(),
		DispatchFails: r.dispatchFails.Load(),
	}
	if runTime > 0 {
		stats.Throughput = float64(stats.DispatchCount) / runTime.Seconds()
	}
	return stats
}

func (r *Router) reset() {
	r.runTime.Store(0)
	r.dispatchCount.Store(0)
	r.dispatchFails.Store(0)
}

func (r *Router) process(ctx context.Context, ev event) {
	r.dispatchCount.Add(1)
	if err := r.dispatch(ctx, ev); err != nil {
		r.dispatchFails.Add(1)
		r.logger.Warn("dispatch failed", zap.Error(err), zap.Stringer("event", ev.id))
		return
	}
	r.publish(ctx, ev)
}

func (r *Router) publish(ctx context.Context, ev event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topic := ev.id.Topic()
	for _, sub := range r.subscriptions {
		if matched, _ := path.Match(sub.pattern, topic); matched {
			sub.handler(ctx, topic, ev.data)
		}
	}
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case CandleEvent:
		return invoke(ctx, ev, r.OnCandle)
	case SignalEvent:
		return invoke(ctx, ev, r.OnSignal)
	case PositionOpenEvent:
		return invoke(ctx, ev, r.OnPositionOpen)
	case PositionOpenedEvent:
		return invoke(ctx, ev, r.OnPositionOpened)
	case PositionCloseEvent:
		return invoke(ctx, ev, r.OnPositionClose)
	case PositionCloseAllEvent:
		return invoke(ctx, ev, r.OnPositionCloseAll)
	case PositionUpdatedEvent:
		return invoke(ctx, ev, r.OnPositionUpdated)
	default:
		return fmt.Errorf("unsupported event id: %d", ev.id)
	}
}

func invoke[T any, H ~func(context.Context, T)](ctx context.Context, ev event, handler H) error {
	data, ok := ev.data.(T)
	if !ok {
		return fmt.Errorf("invalid type assertion for %s event: %T", ev.id, ev.data)
	}
	if handler != nil {
		handler(ctx, data)
	}
	return nil
}
