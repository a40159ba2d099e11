package bus

type EventId uint8

const (
	CandleEvent EventId = iota
	SignalEvent
	PositionOpenEvent
	PositionOpenedEvent
	PositionCloseEvent
	PositionCloseAllEvent
	PositionUpdatedEvent

	// EventIdCount is the number of event ids above.
	EventIdCount
)

var topics = map[EventId]string{
	CandleEvent:           "candle",
	SignalEvent:           "signal",
	PositionOpenEvent:     "position.open",
	PositionOpenedEvent:   "position.opened",
	PositionCloseEvent:    "position.close",
	PositionCloseAllEvent: "position.closeAll",
	PositionUpdatedEvent:  "position.updated",
}

// Topic returns the dotted topic name wildcard subscriptions match against.
func (id EventId) Topic() string {
	if topic, ok := topics[id]; ok {
		return topic
	}
	return "unknown"
}

func (id EventId) String() string {
	return id.Topic()
}
