package position

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/exchange"
	"github.com/peter-kozarec/spotsim/pkg/expression"
	"github.com/peter-kozarec/spotsim/pkg/utility"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Manager drives long positions through the exchange: it opens the entry
// orders, stages exits once every entry filled, offsets the remainder on
// close and keeps PnL current.
type Manager struct {
	mu sync.Mutex

	logger    *zap.Logger
	exchange  exchange.Venue
	evaluator expression.Evaluator
	holdings  *Holdings

	openedHandler  bus.EventHandler[common.Position]
	updatedHandler bus.EventHandler[common.Position]
}

func NewManager(venue exchange.Venue, options ...Option) *Manager {
	m := &Manager{
		logger:    zap.NewNop(),
		exchange:  venue,
		evaluator: expression.NewEvaluator(),
		holdings:  NewHoldings(),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

func (m *Manager) Positions() []common.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.holdings.Snapshot()
}

func (m *Manager) Position(id string) (common.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	position, err := m.holdings.Find(id)
	if err != nil {
		return common.Position{}, err
	}
	return position.Clone(), nil
}

// Open creates one BUY order per entry. When an entry is rejected the entries
// already resting on the exchange are cancelled; the position is kept only if
// some entry had already filled.
func (m *Manager) Open(ctx context.Context, request common.PositionOpenRequest) (common.Position, error) {
	if err := validateOpenRequest(request); err != nil {
		return common.Position{}, err
	}

	m.mu.Lock()
	position, err := m.open(ctx, request)
	var snapshot common.Position
	if position != nil {
		snapshot = position.Clone()
	}
	m.mu.Unlock()

	if position != nil {
		m.notify(ctx, m.openedHandler, snapshot)
	}
	return snapshot, err
}

func (m *Manager) open(ctx context.Context, request common.PositionOpenRequest) (*common.Position, error) {
	timestamp := m.timestamp(request.TimeStamp)

	position := &common.Position{
		Id:          utility.NewID(),
		SignalId:    request.SignalId,
		ExecutionID: utility.GetExecutionID(),
		TimeStamp:   timestamp,
		Exchange:    request.Exchange,
		Market:      request.Market,
		Status:      common.PositionStatusOpen,
		Type:        common.PositionTypeLong,
		Entries:     append([]common.EntrySpec(nil), request.Entries...),
		Exits:       make([]common.ExitSpec, len(request.Exits)),
		CreatedAt:   timestamp,
	}

	for i, exit := range request.Exits {
		if exit.Id == "" {
			exit.Id = utility.NewID()
		}
		position.Exits[i] = exit
	}

	for i, entry := range request.Entries {
		options := common.OrderOptions{
			Exchange:      request.Exchange,
			Market:        request.Market,
			Side:          common.OrderSideBuy,
			Type:          entry.Type,
			BaseQuantity:  entry.BaseQuantity,
			QuoteQuantity: entry.QuoteQuantity,
			Price:         entry.Price,
			StopPrice:     entry.StopPrice,
			TimeStamp:     timestamp,
		}

		exchangeOrder, err := m.exchange.CreateOrder(ctx, options)
		if err != nil {
			err = fmt.Errorf("unable to create entry %d: %w", i, err)
			return m.abandon(ctx, position, err)
		}
		position.Orders = append(position.Orders, newOrder(options, exchangeOrder, ""))
	}

	m.updatePnL(position)
	m.holdings.Add(position)

	m.logger.Info("position opened", position.Fields()...)
	return position, nil
}

func (m *Manager) abandon(ctx context.Context, position *common.Position, cause error) (*common.Position, error) {
	if err := m.cancelOpenOrders(ctx, position); err != nil {
		cause = errors.Join(cause, err)
	}

	if filledQuantity(position, common.OrderSideBuy).IsZero() {
		m.logger.Warn("position rejected", zap.String("market", position.Market), zap.Error(cause))
		return nil, cause
	}

	m.updatePnL(position)
	m.holdings.Add(position)

	m.logger.Warn("position partially opened", append(position.Fields(), zap.Error(cause))...)
	return position, cause
}

// Evaluate matches the exchange against the current candle and advances every
// position that is not closed.
func (m *Manager) Evaluate(ctx context.Context) error {
	m.mu.Lock()

	var errs []error
	if err := m.exchange.Evaluate(ctx); err != nil {
		if errors.Is(err, exchange.ErrSimulationNotReady) || ctx.Err() != nil {
			m.mu.Unlock()
			return err
		}
		errs = append(errs, err)
	}

	var updated []common.Position
	for _, position := range m.holdings.WithStatus(common.PositionStatusOpen, common.PositionStatusClosing) {
		if err := m.evaluatePosition(ctx, position); err != nil {
			m.logger.Warn("unable to evaluate position", append(position.Fields(), zap.Error(err))...)
			errs = append(errs, fmt.Errorf("position %s: %w", position.Id, err))
		}
		updated = append(updated, position.Clone())
	}

	m.mu.Unlock()

	for _, position := range updated {
		m.notify(ctx, m.updatedHandler, position)
	}
	return errors.Join(errs...)
}

func (m *Manager) evaluatePosition(ctx context.Context, position *common.Position) error {
	m.refresh(position)

	var errs []error
	if shouldStageExits(position) {
		if err := m.stageExits(ctx, position); err != nil {
			errs = append(errs, err)
		}
	}

	if position.Status == common.PositionStatusClosing && !hasPendingOrders(position) {
		if err := m.offset(ctx, position); err != nil {
			errs = append(errs, err)
		}
	}

	if isFlat(position, m.amountPrecision(position)) {
		if err := m.markClosed(ctx, position); err != nil {
			errs = append(errs, err)
		}
	}

	m.updatePnL(position)
	return errors.Join(errs...)
}

// Close cancels the resting orders of a position and sells what is left of
// it at market. A remainder rejected by the market limits is kept in CLOSING
// and retried by later evaluations.
func (m *Manager) Close(ctx context.Context, request common.PositionCloseRequest) (common.Position, error) {
	m.mu.Lock()

	position, err := m.holdings.Find(request.Id)
	if err != nil {
		m.mu.Unlock()
		return common.Position{}, fmt.Errorf("position %s: %w", request.Id, err)
	}
	if position.Status == common.PositionStatusClosed {
		snapshot := position.Clone()
		m.mu.Unlock()
		return snapshot, nil
	}

	err = m.closePosition(ctx, position, request.TimeStamp)
	snapshot := position.Clone()
	m.mu.Unlock()

	m.notify(ctx, m.updatedHandler, snapshot)
	return snapshot, err
}

func (m *Manager) closePosition(ctx context.Context, position *common.Position, timestamp time.Time) error {
	m.refresh(position)

	if err := m.cancelOpenOrders(ctx, position); err != nil {
		return err
	}

	if filledQuantity(position, common.OrderSideBuy).IsZero() {
		position.Status = common.PositionStatusClosed
		position.ClosedAt = m.timestamp(timestamp)
		m.updatePnL(position)
		m.logger.Info("position closed without fills", position.Fields()...)
		return nil
	}

	position.Status = common.PositionStatusClosing
	err := m.offset(ctx, position)
	m.updatePnL(position)
	return err
}

// CloseAll closes every OPEN position concurrently and waits for all of them.
// A failing close does not stop the others.
func (m *Manager) CloseAll(ctx context.Context, request common.PositionCloseAllRequest) error {
	m.mu.Lock()
	open := m.holdings.WithStatus(common.PositionStatusOpen)
	ids := make([]string, 0, len(open))
	for _, position := range open {
		ids = append(ids, position.Id)
	}
	m.mu.Unlock()

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			_, err := m.Close(ctx, common.PositionCloseRequest{Id: id, TimeStamp: request.TimeStamp})
			return err
		})
	}
	return g.Wait()
}

// offset sells the unsold base quantity at market. Limit rejections are logged
// and leave the position as it is.
func (m *Manager) offset(ctx context.Context, position *common.Position) error {
	remainder := filledQuantity(position, common.OrderSideBuy).
		Sub(filledQuantity(position, common.OrderSideSell)).
		RoundDown(m.amountPrecision(position))
	if !remainder.IsPos() {
		return nil
	}

	options := common.OrderOptions{
		Exchange:     position.Exchange,
		Market:       position.Market,
		Side:         common.OrderSideSell,
		Type:         common.OrderTypeMarket,
		BaseQuantity: remainder,
		TimeStamp:    m.timestamp(time.Time{}),
	}

	exchangeOrder, err := m.exchange.CreateOrder(ctx, options)
	if err != nil {
		if exchange.IsLimitError(err) {
			m.logger.Warn("offset order rejected by market limits", append(position.Fields(), zap.Error(err))...)
			return nil
		}
		return fmt.Errorf("unable to create offset order: %w", err)
	}

	position.Orders = append(position.Orders, newOrder(options, exchangeOrder, ""))
	m.logger.Debug("offset order created", exchangeOrder.Fields()...)
	return nil
}

func (m *Manager) markClosed(ctx context.Context, position *common.Position) error {
	err := m.cancelOpenOrders(ctx, position)

	position.Status = common.PositionStatusClosed
	for _, order := range position.Orders {
		if order.ClosedAt.After(position.ClosedAt) {
			position.ClosedAt = order.ClosedAt
		}
	}

	m.logger.Info("position closed", position.Fields()...)
	return err
}

func (m *Manager) cancelOpenOrders(ctx context.Context, position *common.Position) error {
	var errs []error
	for i := range position.Orders {
		order := &position.Orders[i]
		if order.Status.IsTerminal() {
			continue
		}
		if err := m.exchange.CancelOrder(ctx, order.ForeignId); err != nil {
			errs = append(errs, fmt.Errorf("unable to cancel order %s: %w", order.Id, err))
			continue
		}
		m.refreshOrder(order)
	}
	return errors.Join(errs...)
}

func (m *Manager) refresh(position *common.Position) {
	for i := range position.Orders {
		m.refreshOrder(&position.Orders[i])
	}
}

func (m *Manager) refreshOrder(order *common.Order) {
	exchangeOrder, ok := m.exchange.Order(order.ForeignId)
	if !ok {
		m.logger.Warn("exchange order not found", zap.String("order_id", order.Id), zap.String("foreign_id", order.ForeignId))
		return
	}
	order.Refresh(exchangeOrder)
}

func (m *Manager) updatePnL(position *common.Position) {
	tick, _ := m.exchange.Tick()
	calcPnL(position, m.amountPrecision(position), tick)

	end := position.ClosedAt
	if position.Status != common.PositionStatusClosed {
		if candle, ok := m.exchange.Candle(); ok {
			end = candle.TimeStamp
		}
	}
	if !end.IsZero() && !position.CreatedAt.IsZero() && end.After(position.CreatedAt) {
		position.Metrics.Duration = end.Sub(position.CreatedAt)
	}
}

func (m *Manager) amountPrecision(position *common.Position) int {
	market, ok := m.exchange.Market(position.Market)
	if !ok {
		return 0
	}
	return market.Precision.Amount
}

// timestamp prefers the given time and falls back to the current candle.
func (m *Manager) timestamp(t time.Time) time.Time {
	if !t.IsZero() {
		return t
	}
	if candle, ok := m.exchange.Candle(); ok {
		return candle.TimeStamp
	}
	return time.Time{}
}

func (m *Manager) notify(ctx context.Context, handler bus.EventHandler[common.Position], position common.Position) {
	if handler != nil {
		handler(ctx, position)
	}
}

func validateOpenRequest(request common.PositionOpenRequest) error {
	switch {
	case request.Exchange == "":
		return exchange.NewValidationError("exchange", exchange.KindRequired, "exchange is required")
	case request.Market == "":
		return exchange.NewValidationError("market", exchange.KindRequired, "market is required")
	case len(request.Entries) == 0:
		return exchange.NewValidationError("entries", exchange.KindRequired, "at least one entry is required")
	}

	for i, entry := range request.Entries {
		if entry.Type == "" {
			return exchange.NewValidationError(fmt.Sprintf("entries[%d].type", i), exchange.KindRequired, "entry type is required")
		}
	}
	for i, exit := range request.Exits {
		if exit.Type == "" {
			return exchange.NewValidationError(fmt.Sprintf("exits[%d].type", i), exchange.KindRequired, "exit type is required")
		}
		if i < len(request.Exits)-1 && !exit.BaseQuantity.IsSet() {
			return exchange.NewValidationError(fmt.Sprintf("exits[%d].baseQuantity", i), exchange.KindRequired,
				"only the last exit may omit its base quantity")
		}
	}
	return nil
}

func newOrder(options common.OrderOptions, exchangeOrder common.ExchangeOrder, exitId string) common.Order {
	order := common.Order{
		Id:        utility.NewID(),
		ForeignId: exchangeOrder.Id,
		ExitId:    exitId,
		Options:   options,
	}
	order.Refresh(exchangeOrder)
	return order
}

func filledQuantity(position *common.Position, side common.OrderSide) fixed.Point {
	total := fixed.Zero
	for _, order := range position.Orders {
		if order.Side == side && order.Status == common.OrderStatusFilled {
			total = total.Add(order.BaseQuantityNet)
		}
	}
	return total
}

func hasPendingOrders(position *common.Position) bool {
	for _, order := range position.Orders {
		if !order.Status.IsTerminal() {
			return true
		}
	}
	return false
}

// isFlat reports whether the filled exits sold exactly what the filled
// entries bought, once no entry is still pending.
func isFlat(position *common.Position, precision int) bool {
	for _, order := range position.Orders {
		if order.Side == common.OrderSideBuy && !order.Status.IsTerminal() {
			return false
		}
	}

	bought := filledQuantity(position, common.OrderSideBuy).RoundDown(precision)
	sold := filledQuantity(position, common.OrderSideSell).RoundDown(precision)
	if !bought.Eq(sold) {
		return false
	}
	return bought.IsPos() || position.Status == common.PositionStatusClosing
}
