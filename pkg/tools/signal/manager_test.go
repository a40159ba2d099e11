package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

var testTime = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func p(s string) fixed.Point {
	return fixed.MustParse(s)
}

type posted struct {
	id   bus.EventId
	data any
}

type recordingPoster struct {
	events []posted
	err    error
}

func (r *recordingPoster) Post(id bus.EventId, data any) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, posted{id, data})
	return nil
}

type fixedSizer struct {
	quantity fixed.Point
	err      error
}

func (f fixedSizer) QuoteQuantity(common.Signal) (fixed.Point, error) {
	return f.quantity, f.err
}

type stubFeed struct {
	tick   fixed.Point
	candle common.Candle
}

func (f *stubFeed) Tick() (fixed.Point, bool) {
	return f.tick, !f.tick.IsZero()
}

func (f *stubFeed) Candle() (common.Candle, bool) {
	return f.candle, !f.candle.TimeStamp.IsZero()
}

func createTestManager(t *testing.T, cfg Configuration) (*Manager, *recordingPoster, *stubFeed) {
	t.Helper()

	poster := &recordingPoster{}
	feed := &stubFeed{tick: p("100"), candle: common.Candle{TimeStamp: testTime}}
	m, err := NewManager(poster, fixedSizer{quantity: p("250")}, feed, cfg)
	require.NoError(t, err)
	return m, poster, feed
}

func testSignal() common.Signal {
	return common.Signal{
		Id:        "signal-1",
		Exchange:  "sandbox",
		Market:    "BTC/USDT",
		TimeStamp: testTime,
		Entry:     p("100"),
		Target:    p("110"),
		Stop:      p("95"),
	}
}

func filledPosition(id, signalId string) common.Position {
	return common.Position{
		Id:       id,
		SignalId: signalId,
		Market:   "BTC/USDT",
		Status:   common.PositionStatusOpen,
		Orders: []common.Order{{
			Id:                 "order-1",
			Side:               common.OrderSideBuy,
			Status:             common.OrderStatusFilled,
			BaseQuantityGross:  p("2.5"),
			BaseQuantityNet:    p("2.4975"),
			QuoteQuantityGross: p("250"),
		}},
	}
}

func TestSignalConfiguration_Validate(t *testing.T) {
	assert.NoError(t, Configuration{}.Validate())
	assert.NoError(t, Configuration{EntryType: common.OrderTypeLimit}.Validate())
	assert.Error(t, Configuration{EntryType: common.OrderTypeStopLoss}.Validate())
}

func TestSignalManager_RequestTargetAndStop(t *testing.T) {
	m, _, _ := createTestManager(t, Configuration{})

	request, err := m.Request(testSignal())
	require.NoError(t, err)

	assert.Equal(t, "signal-1", request.SignalId)
	assert.Equal(t, "sandbox", request.Exchange)
	require.Len(t, request.Entries, 1)
	assert.Equal(t, common.OrderTypeMarket, request.Entries[0].Type)
	assert.Equal(t, "250", request.Entries[0].QuoteQuantity.String())

	require.Len(t, request.Exits, 1)
	assert.Equal(t, common.OrderTypeLimit, request.Exits[0].Type)
	assert.Equal(t, "110", request.Exits[0].Price.String())
	assert.False(t, request.Exits[0].BaseQuantity.IsSet())
	assert.Contains(t, m.pending, "signal-1")
}

func TestSignalManager_RequestVariants(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Configuration
		signal    func(common.Signal) common.Signal
		entryType common.OrderType
		exitType  common.OrderType
		exitParam func(common.ExitSpec) common.ExitParam
		want      string
		noExits   bool
	}{
		{
			name:      "limit entry at signal entry",
			cfg:       Configuration{EntryType: common.OrderTypeLimit},
			signal:    func(s common.Signal) common.Signal { return s },
			entryType: common.OrderTypeLimit,
			exitType:  common.OrderTypeLimit,
			exitParam: func(e common.ExitSpec) common.ExitParam { return e.Price },
			want:      "110",
		},
		{
			name: "stop only",
			cfg:  Configuration{},
			signal: func(s common.Signal) common.Signal {
				s.Target = fixed.Zero
				return s
			},
			entryType: common.OrderTypeMarket,
			exitType:  common.OrderTypeStopLoss,
			exitParam: func(e common.ExitSpec) common.ExitParam { return e.StopPrice },
			want:      "95",
		},
		{
			name: "take profit expression fallback",
			cfg:  Configuration{TakeProfit: "position.averagePrice * 1.02"},
			signal: func(s common.Signal) common.Signal {
				s.Target = fixed.Zero
				s.Stop = fixed.Zero
				return s
			},
			entryType: common.OrderTypeMarket,
			exitType:  common.OrderTypeLimit,
			exitParam: func(e common.ExitSpec) common.ExitParam { return e.Price },
			want:      "position.averagePrice * 1.02",
		},
		{
			name: "no exits",
			cfg:  Configuration{},
			signal: func(s common.Signal) common.Signal {
				s.Target = fixed.Zero
				s.Stop = fixed.Zero
				return s
			},
			entryType: common.OrderTypeMarket,
			noExits:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := createTestManager(t, tt.cfg)

			request, err := m.Request(tt.signal(testSignal()))
			require.NoError(t, err)

			require.Len(t, request.Entries, 1)
			assert.Equal(t, tt.entryType, request.Entries[0].Type)
			if tt.noExits {
				assert.Empty(t, request.Exits)
				return
			}
			require.Len(t, request.Exits, 1)
			assert.Equal(t, tt.exitType, request.Exits[0].Type)
			assert.Equal(t, tt.want, tt.exitParam(request.Exits[0]).String())
		})
	}
}

func TestSignalManager_RequestRejectsInvalidSignals(t *testing.T) {
	tests := []struct {
		name   string
		signal func(common.Signal) common.Signal
	}{
		{"missing market", func(s common.Signal) common.Signal { s.Market = ""; return s }},
		{"negative target", func(s common.Signal) common.Signal { s.Target = p("-1"); return s }},
		{"stop above entry", func(s common.Signal) common.Signal { s.Stop = p("101"); return s }},
		{"target below entry", func(s common.Signal) common.Signal { s.Target = p("99"); return s }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := createTestManager(t, Configuration{})

			_, err := m.Request(tt.signal(testSignal()))
			assert.ErrorIs(t, err, ErrInvalidSignal)
		})
	}
}

func TestSignalManager_OnSignalPostsRequest(t *testing.T) {
	m, poster, _ := createTestManager(t, Configuration{})

	m.OnSignal(context.Background(), testSignal())

	require.Len(t, poster.events, 1)
	assert.Equal(t, bus.PositionOpenEvent, poster.events[0].id)
	request, ok := poster.events[0].data.(common.PositionOpenRequest)
	require.True(t, ok)
	assert.Equal(t, "BTC/USDT", request.Market)
}

func TestSignalManager_OnSignalSizingFailure(t *testing.T) {
	poster := &recordingPoster{}
	m, err := NewManager(poster, fixedSizer{err: errors.New("no funds")}, &stubFeed{}, Configuration{})
	require.NoError(t, err)

	m.OnSignal(context.Background(), testSignal())

	assert.Empty(t, poster.events)
	assert.Empty(t, m.pending)
}

func TestSignalManager_OnSignalPostFailureDropsStop(t *testing.T) {
	m, poster, _ := createTestManager(t, Configuration{})
	poster.err = bus.ErrCapacityReached

	m.OnSignal(context.Background(), testSignal())

	assert.Empty(t, m.pending)
}

func TestSignalManager_StopWatcher(t *testing.T) {
	ctx := context.Background()
	m, poster, feed := createTestManager(t, Configuration{})

	m.OnSignal(ctx, testSignal())
	position := filledPosition("pos-1", "signal-1")
	m.OnPositionOpened(ctx, position)
	require.Contains(t, m.stops, "pos-1")

	feed.tick = p("96")
	m.OnPositionUpdated(ctx, position)
	assert.Len(t, poster.events, 1)

	feed.tick = p("95")
	m.OnPositionUpdated(ctx, position)
	require.Len(t, poster.events, 2)
	assert.Equal(t, bus.PositionCloseEvent, poster.events[1].id)
	assert.Equal(t, common.PositionCloseRequest{Id: "pos-1", TimeStamp: testTime}, poster.events[1].data)

	feed.tick = p("90")
	m.OnPositionUpdated(ctx, position)
	assert.Len(t, poster.events, 2)

	position.Status = common.PositionStatusClosed
	m.OnPositionUpdated(ctx, position)
	assert.NotContains(t, m.stops, "pos-1")
}

func TestSignalManager_StopWatcherExpression(t *testing.T) {
	ctx := context.Background()
	m, poster, feed := createTestManager(t, Configuration{StopLoss: "position.averagePrice * 0.9"})

	signal := testSignal()
	signal.Stop = fixed.Zero
	m.OnSignal(ctx, signal)

	position := filledPosition("pos-1", "signal-1")
	position.Orders[0].Status = common.OrderStatusOpen
	position.Orders[0].BaseQuantityGross = fixed.Zero
	position.Orders[0].QuoteQuantityGross = fixed.Zero
	m.OnPositionOpened(ctx, position)

	feed.tick = p("1")
	m.OnPositionUpdated(ctx, position)
	assert.Len(t, poster.events, 1, "stop must wait for a filled entry")

	position = filledPosition("pos-1", "signal-1")
	feed.tick = p("91")
	m.OnPositionUpdated(ctx, position)
	assert.Len(t, poster.events, 1)

	feed.tick = p("90")
	m.OnPositionUpdated(ctx, position)
	require.Len(t, poster.events, 2)
	assert.Equal(t, bus.PositionCloseEvent, poster.events[1].id)
}

func TestSignalManager_IgnoresForeignPositions(t *testing.T) {
	ctx := context.Background()
	m, poster, feed := createTestManager(t, Configuration{})

	m.OnPositionOpened(ctx, filledPosition("pos-2", "other"))
	feed.tick = p("1")
	m.OnPositionUpdated(ctx, filledPosition("pos-2", "other"))

	assert.Empty(t, poster.events)
	assert.Empty(t, m.stops)
}
