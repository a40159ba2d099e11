package signal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/exchange"
	"github.com/peter-kozarec/spotsim/pkg/expression"
	"github.com/peter-kozarec/spotsim/pkg/tools/position"
	"github.com/peter-kozarec/spotsim/pkg/utility"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

var ErrInvalidSignal = errors.New("invalid signal")

// Sizer decides how much quote currency a signal may spend.
type Sizer interface {
	QuoteQuantity(signal common.Signal) (fixed.Point, error)
}

type Poster interface {
	Post(id bus.EventId, data any) error
}

// stop is the protective level of one position. A take-profit exit already
// holds the whole base quantity, so the stop is enforced by closing the
// position once the tick falls to it.
type stop struct {
	level   common.ExitParam
	closing bool
}

// Manager turns strategy signals into position.open requests and watches the
// stops of the positions they opened.
type Manager struct {
	mu sync.Mutex

	logger        *zap.Logger
	poster        Poster
	sizer         Sizer
	feed          exchange.Feed
	evaluator     expression.Evaluator
	configuration Configuration

	pending map[string]common.ExitParam
	stops   map[string]*stop
}

func NewManager(poster Poster, sizer Sizer, feed exchange.Feed, configuration Configuration, options ...Option) (*Manager, error) {
	if err := configuration.Validate(); err != nil {
		return nil, fmt.Errorf("invalid signal configuration: %w", err)
	}

	m := &Manager{
		logger:        zap.NewNop(),
		poster:        poster,
		sizer:         sizer,
		feed:          feed,
		evaluator:     expression.NewEvaluator(),
		configuration: configuration,
		pending:       make(map[string]common.ExitParam),
		stops:         make(map[string]*stop),
	}

	for _, option := range options {
		option(m)
	}

	return m, nil
}

func (m *Manager) OnSignal(_ context.Context, signal common.Signal) {
	request, err := m.Request(signal)
	if err != nil {
		m.logger.Warn("signal rejected", zap.String("signal_id", signal.Id), zap.String("market", signal.Market), zap.Error(err))
		return
	}

	if err := m.poster.Post(bus.PositionOpenEvent, request); err != nil {
		m.logger.Warn("unable to post position open request", zap.String("signal_id", request.SignalId), zap.Error(err))
		m.mu.Lock()
		delete(m.pending, request.SignalId)
		m.mu.Unlock()
		return
	}

	m.logger.Debug("position requested", zap.String("signal_id", request.SignalId), zap.String("market", request.Market))
}

// Request builds the open request for signal: one BUY entry sized by the
// sizer and up to one exit. With both a target and a stop the exit is a
// LIMIT at the target and the stop is watched.
func (m *Manager) Request(signal common.Signal) (common.PositionOpenRequest, error) {
	if err := validateSignal(signal); err != nil {
		return common.PositionOpenRequest{}, err
	}

	quoteQuantity, err := m.sizer.QuoteQuantity(signal)
	if err != nil {
		return common.PositionOpenRequest{}, fmt.Errorf("unable to size position: %w", err)
	}

	if signal.Id == "" {
		signal.Id = utility.NewID()
	}
	exchangeName := signal.Exchange
	if exchangeName == "" {
		exchangeName = m.configuration.Exchange
	}

	request := common.PositionOpenRequest{
		SignalId:  signal.Id,
		Exchange:  exchangeName,
		Market:    signal.Market,
		TimeStamp: signal.TimeStamp,
		Entries:   []common.EntrySpec{m.entry(signal, quoteQuantity)},
	}

	target := m.param(signal.Target, m.configuration.TakeProfit)
	stopLoss := m.param(signal.Stop, m.configuration.StopLoss)

	switch {
	case target.IsSet():
		request.Exits = append(request.Exits, common.ExitSpec{
			Id:    utility.NewID(),
			Type:  common.OrderTypeLimit,
			Price: target,
		})
		if stopLoss.IsSet() {
			m.mu.Lock()
			m.pending[signal.Id] = stopLoss
			m.mu.Unlock()
		}
	case stopLoss.IsSet():
		request.Exits = append(request.Exits, common.ExitSpec{
			Id:        utility.NewID(),
			Type:      common.OrderTypeStopLoss,
			StopPrice: stopLoss,
		})
	}

	return request, nil
}

func (m *Manager) OnPositionOpened(_ context.Context, position common.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()

	level, ok := m.pending[position.SignalId]
	if !ok {
		return
	}
	delete(m.pending, position.SignalId)
	m.stops[position.Id] = &stop{level: level}
}

// OnPositionUpdated requests a close of position once the tick is at or below
// its stop. The close is requested once.
func (m *Manager) OnPositionUpdated(_ context.Context, position common.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stops[position.Id]
	if !ok {
		return
	}
	if position.Status == common.PositionStatusClosed {
		delete(m.stops, position.Id)
		return
	}
	if s.closing || position.Status != common.PositionStatusOpen {
		return
	}

	level, ok := m.resolve(position, s.level)
	if !ok {
		return
	}

	tick, ok := m.feed.Tick()
	if !ok || tick.Gt(level) {
		return
	}

	request := common.PositionCloseRequest{Id: position.Id}
	if candle, ok := m.feed.Candle(); ok {
		request.TimeStamp = candle.TimeStamp
	}
	if err := m.poster.Post(bus.PositionCloseEvent, request); err != nil {
		m.logger.Warn("unable to post position close request", zap.String("position_id", position.Id), zap.Error(err))
		return
	}

	s.closing = true
	m.logger.Info("stop reached",
		zap.String("position_id", position.Id),
		zap.String("stop", level.String()),
		zap.String("tick", tick.String()))
}

func (m *Manager) entry(signal common.Signal, quoteQuantity fixed.Point) common.EntrySpec {
	if m.configuration.EntryType == common.OrderTypeLimit && !signal.Entry.IsZero() {
		return common.EntrySpec{
			Type:          common.OrderTypeLimit,
			QuoteQuantity: quoteQuantity,
			Price:         signal.Entry,
		}
	}
	return common.EntrySpec{
		Type:          common.OrderTypeMarket,
		QuoteQuantity: quoteQuantity,
	}
}

func (m *Manager) param(literal fixed.Point, fallback string) common.ExitParam {
	if !literal.IsZero() {
		return common.Literal(literal)
	}
	if fallback != "" {
		return common.Expr(fallback)
	}
	return common.ExitParam{}
}

// resolve evaluates an expression stop once the position holds a filled entry.
func (m *Manager) resolve(pos common.Position, param common.ExitParam) (fixed.Point, bool) {
	if !param.IsExpr() {
		return param.Value(), true
	}

	env := position.ExpressionEnv(pos)
	if !env.Position.AveragePrice.IsPos() {
		return fixed.Zero, false
	}

	level, err := m.evaluator.Evaluate(param.Expression(), env)
	if err != nil {
		m.logger.Warn("unable to evaluate stop", zap.String("position_id", pos.Id), zap.Error(err))
		return fixed.Zero, false
	}
	return level, true
}

func validateSignal(signal common.Signal) error {
	if signal.Market == "" {
		return fmt.Errorf("%w: market is required", ErrInvalidSignal)
	}
	if signal.Entry.IsNeg() || signal.Target.IsNeg() || signal.Stop.IsNeg() {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidSignal)
	}
	if !signal.Entry.IsZero() && !signal.Stop.IsZero() && signal.Stop.Gte(signal.Entry) {
		return fmt.Errorf("%w: stop %s must be below entry %s", ErrInvalidSignal, signal.Stop, signal.Entry)
	}
	if !signal.Entry.IsZero() && !signal.Target.IsZero() && signal.Target.Lte(signal.Entry) {
		return fmt.Errorf("%w: target %s must be above entry %s", ErrInvalidSignal, signal.Target, signal.Entry)
	}
	return nil
}
