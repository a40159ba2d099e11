package bus

import (
	"context"

	"github.com/peter-kozarec/spotsim/pkg/common"
)

type EventHandler[T any] = func(context.Context, T)

type CandleEventHandler EventHandler[common.Candle]
type SignalEventHandler EventHandler[common.Signal]
type PositionOpenEventHandler EventHandler[common.PositionOpenRequest]
type PositionOpenedEventHandler EventHandler[common.Position]
type PositionCloseEventHandler EventHandler[common.PositionCloseRequest]
type PositionCloseAllEventHandler EventHandler[common.PositionCloseAllRequest]
type PositionUpdatedEventHandler EventHandler[common.Position]

// TopicHandler receives every event whose topic matches a subscription pattern.
type TopicHandler func(ctx context.Context, topic string, data any)

func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			if handler != nil {
				handler(ctx, event)
			}
		}
	}
}
