package trader

import (
	"context"
	"errors"
	"fmt"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/exchange"
	"github.com/peter-kozarec/spotsim/pkg/tools/position"
	"github.com/peter-kozarec/spotsim/pkg/tools/risk"
	"github.com/peter-kozarec/spotsim/pkg/tools/signal"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

// Driver is a venue whose prices are pushed in from outside, one candle at a
// time.
type Driver interface {
	exchange.Venue
	SetTick(tick fixed.Point)
	SetCandle(candle common.Candle)
}

type Strategy interface {
	OnCandle(ctx context.Context, candle common.Candle)
}

type Configuration struct {
	Risk   risk.Configuration   `yaml:"risk" json:"risk"`
	Signal signal.Configuration `yaml:"signal" json:"signal"`
}

// Trader connects the bus to the risk, signal and position managers of one
// venue.
type Trader struct {
	logger *zap.Logger
	router *bus.Router
	driver Driver

	strategies  []Strategy
	riskOptions []risk.Option

	risk      *risk.Manager
	signals   *signal.Manager
	positions *position.Manager
}

func NewTrader(router *bus.Router, driver Driver, configuration Configuration, options ...Option) (*Trader, error) {
	t := &Trader{
		logger: zap.NewNop(),
		router: router,
		driver: driver,
	}

	for _, option := range options {
		option(t)
	}

	if configuration.Signal.Exchange == "" {
		configuration.Signal.Exchange = driver.Name()
	}

	var err error
	t.risk, err = risk.NewManager(driver, configuration.Risk, append([]risk.Option{risk.WithLogger(t.logger)}, t.riskOptions...)...)
	if err != nil {
		return nil, err
	}

	t.signals, err = signal.NewManager(router, t.risk, driver, configuration.Signal, signal.WithLogger(t.logger))
	if err != nil {
		return nil, err
	}

	t.positions = position.NewManager(driver,
		position.WithLogger(t.logger),
		position.WithOpenedHandler(t.post(bus.PositionOpenedEvent)),
		position.WithUpdatedHandler(t.post(bus.PositionUpdatedEvent)))

	return t, nil
}

// Bind installs the trader as the handler of every router event.
func (t *Trader) Bind(router *bus.Router) {
	router.OnCandle = t.OnCandle
	router.OnSignal = t.OnSignal
	router.OnPositionOpen = t.OnPositionOpen
	router.OnPositionOpened = t.OnPositionOpened
	router.OnPositionClose = t.OnPositionClose
	router.OnPositionCloseAll = t.OnPositionCloseAll
	router.OnPositionUpdated = t.OnPositionUpdated
}

func (t *Trader) Positions() *position.Manager { return t.positions }
func (t *Trader) Risk() *risk.Manager { return t.risk }
func (t *Trader) Signals() *signal.Manager { return t.signals }

// OnCandle prices the venue at the candle close, evaluates every position
// and then hands the candle to the strategies.
func (t *Trader) OnCandle(ctx context.Context, candle common.Candle) {
	t.driver.SetTick(candle.Close)
	t.driver.SetCandle(candle)

	if err := t.positions.Evaluate(ctx); err != nil {
		if errors.Is(err, exchange.ErrSimulationNotReady) {
			t.logger.Error("venue is not ready", zap.Error(err))
			return
		}
		t.logger.Warn("evaluation failed", zap.Time("candle_ts", candle.TimeStamp), zap.Error(err))
	}

	for _, strategy := range t.strategies {
		strategy.OnCandle(ctx, candle)
	}
}

func (t *Trader) OnSignal(ctx context.Context, signal common.Signal) {
	t.signals.OnSignal(ctx, signal)
}

func (t *Trader) OnPositionOpen(ctx context.Context, request common.PositionOpenRequest) {
	if _, err := t.positions.Open(ctx, request); err != nil {
		t.logger.Warn("unable to open position",
			zap.String("signal_id", request.SignalId),
			zap.String("market", request.Market),
			zap.Error(err))
	}
}

func (t *Trader) OnPositionClose(ctx context.Context, request common.PositionCloseRequest) {
	if _, err := t.positions.Close(ctx, request); err != nil {
		t.logger.Warn("unable to close position", zap.String("position_id", request.Id), zap.Error(err))
	}
}

func (t *Trader) OnPositionCloseAll(ctx context.Context, request common.PositionCloseAllRequest) {
	if err := t.positions.CloseAll(ctx, request); err != nil {
		t.logger.Warn("unable to close all positions", zap.Error(err))
	}
}

func (t *Trader) OnPositionOpened(ctx context.Context, position common.Position) {
	t.risk.OnPositionOpened(ctx, position)
	t.signals.OnPositionOpened(ctx, position)
}

func (t *Trader) OnPositionUpdated(ctx context.Context, position common.Position) {
	t.risk.OnPositionUpdated(ctx, position)
	t.signals.OnPositionUpdated(ctx, position)
}

func (t *Trader) post(id bus.EventId) bus.EventHandler[common.Position] {
	return func(_ context.Context, position common.Position) {
		if err := t.router.Post(id, position); err != nil {
			t.logger.Warn(fmt.Sprintf("unable to post %s event", id), zap.String("position_id", position.Id), zap.Error(err))
		}
	}
}
