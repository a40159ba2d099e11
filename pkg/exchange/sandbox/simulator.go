package sandbox

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/exchange"
	"github.com/peter-kozarec/spotsim/pkg/exchange/balance"
	"github.com/peter-kozarec/spotsim/pkg/utility"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

var (
	slippageLow  = fixed.MustParse("0.999")
	slippageHigh = fixed.MustParse("1.001")
)

// Simulator is a candle-driven spot exchange. Market orders fill immediately
// around the current tick, other orders lock funds and fill when a candle
// reaches their trigger price.
type Simulator struct {
	mu sync.Mutex

	name   string
	logger *zap.Logger

	initialMarkets  []common.Market
	initialBalances []common.Balance

	markets  map[string]common.Market
	symbols  []string
	balances *balance.Manager
	orders   []*common.ExchangeOrder

	tick      fixed.Point
	tickSet   bool
	candle    common.Candle
	candleSet bool

	slippageHandler   SlippageHandler
	rand              *rand.Rand
	inclusiveTriggers bool
}

func NewSimulator(name string, options ...Option) (*Simulator, error) {
	if name == "" {
		return nil, exchange.NewValidationError("exchange", exchange.KindRequired, "exchange name is required")
	}

	s := &Simulator{
		name:    name,
		logger:  zap.NewNop(),
		markets: make(map[string]common.Market),
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, option := range options {
		option(s)
	}

	for _, market := range s.initialMarkets {
		if err := exchange.ValidateMarket(market); err != nil {
			return nil, fmt.Errorf("market %s: %w", market.Symbol, err)
		}
		if _, ok := s.markets[market.Symbol]; ok {
			return nil, exchange.NewValidationError("market", exchange.KindInvalid, "duplicate market %s", market.Symbol)
		}
		s.markets[market.Symbol] = market
		s.symbols = append(s.symbols, market.Symbol)
	}

	balances, err := balance.NewManager(s.initialBalances...)
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}
	s.balances = balances

	if s.slippageHandler == nil {
		s.slippageHandler = s.randomSlippage
	}

	return s, nil
}

func (s *Simulator) Name() string {
	return s.name
}

func (s *Simulator) SetTick(tick fixed.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick = tick
	s.tickSet = true
}

func (s *Simulator) Tick() (fixed.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tick, s.tickSet
}

func (s *Simulator) SetCandle(candle common.Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.candle = candle
	s.candleSet = true
}

func (s *Simulator) Candle() (common.Candle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.candle, s.candleSet
}

func (s *Simulator) Markets() []common.Market {
	s.mu.Lock()
	defer s.mu.Unlock()

	markets := make([]common.Market, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		markets = append(markets, s.markets[symbol])
	}
	return markets
}

func (s *Simulator) Market(symbol string) (common.Market, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	market, ok := s.markets[symbol]
	return market, ok
}

func (s *Simulator) Balances() []common.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.balances.Balances()
}

func (s *Simulator) Balance(symbol string) (common.Balance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.balances.Balance(symbol)
}

func (s *Simulator) Orders() []common.ExchangeOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]common.ExchangeOrder, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, order.Clone())
	}
	return orders
}

func (s *Simulator) Order(id string) (common.ExchangeOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.find(id)
	if order == nil {
		return common.ExchangeOrder{}, false
	}
	return order.Clone(), true
}

// CreateOrder validates the request, then either fills it immediately (MARKET)
// or locks the funds it needs and leaves it OPEN. A rejected request changes no state.
func (s *Simulator) CreateOrder(ctx context.Context, options common.OrderOptions) (common.ExchangeOrder, error) {
	if err := ctx.Err(); err != nil {
		return common.ExchangeOrder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	market, err := s.validateOptions(options)
	if err != nil {
		return common.ExchangeOrder{}, err
	}

	order := s.newOrder(options, market)

	reference, err := s.referencePrice(order)
	if err != nil {
		return common.ExchangeOrder{}, err
	}

	trade, err := emulateTrade(order, market, reference)
	if err != nil {
		return common.ExchangeOrder{}, err
	}

	if err := s.checkFunds(order, market, trade); err != nil {
		return common.ExchangeOrder{}, err
	}

	if order.Type == common.OrderTypeMarket {
		trade.Id = utility.NewExchangeID()
		trade.TimeStamp = s.fillTime(order)
		filled := applyTrade(order, trade)
		if err := s.balances.UpdateFromOrder(filled, market); err != nil {
			return common.ExchangeOrder{}, err
		}
		order = filled
		s.logger.Debug("market order filled", order.Fields()...)
	} else {
		if err := s.balances.LockFromOrder(order, market); err != nil {
			return common.ExchangeOrder{}, err
		}
		order.Status = common.OrderStatusOpen
		s.logger.Debug("order opened", order.Fields()...)
	}

	s.orders = append(s.orders, &order)
	return order.Clone(), nil
}

// CancelOrder releases the funds locked by an open order.
func (s *Simulator) CancelOrder(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.find(id)
	if order == nil {
		return exchange.NewValidationError("id", exchange.KindDoesNotExist, "order %s does not exist", id)
	}
	if order.Status.IsTerminal() {
		return exchange.NewValidationError("id", exchange.KindInvalid, "order %s is already %s", id, order.Status)
	}

	if order.Status == common.OrderStatusOpen {
		if err := s.balances.UnlockFromOrder(*order, s.markets[order.Market]); err != nil {
			return fmt.Errorf("unable to unlock balance of order %s: %w", id, err)
		}
	}

	order.Status = common.OrderStatusCancelled
	order.ClosedAt = s.fillTime(*order)

	s.logger.Debug("order cancelled", order.Fields()...)
	return nil
}

// Evaluate matches every open order against the current tick and candle.
// Orders that fail to fill stay open; their errors are joined and returned.
func (s *Simulator) Evaluate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tickSet || !s.candleSet {
		return exchange.ErrSimulationNotReady
	}

	var errs []error
	for _, order := range s.orders {
		if order.Status.IsTerminal() {
			continue
		}
		if s.candle.Symbol != "" && s.candle.Symbol != order.Market {
			continue
		}
		if err := s.evaluateOrder(order); err != nil {
			s.logger.Warn("unable to fill order", append(order.Fields(), zap.Error(err))...)
			errs = append(errs, fmt.Errorf("order %s: %w", order.Id, err))
		}
	}

	return errors.Join(errs...)
}

func (s *Simulator) evaluateOrder(order *common.ExchangeOrder) error {
	if order.Type.HasStopPrice() && !order.StopPriceHit {
		if s.reached(order.StopPrice) {
			order.StopPriceHit = true
			s.logger.Debug("stop price hit", order.Fields()...)
		}
		return nil
	}

	if order.Type.HasLimitPrice() {
		if !s.reached(order.Price) {
			return nil
		}
		return s.fill(order, order.Price)
	}

	return s.fill(order, s.slippageHandler(s.tick))
}

func (s *Simulator) fill(order *common.ExchangeOrder, price fixed.Point) error {
	market := s.markets[order.Market]

	trade, err := emulateTrade(*order, market, price)
	if err != nil {
		return err
	}
	trade.Id = utility.NewExchangeID()
	trade.TimeStamp = s.fillTime(*order)

	filled := applyTrade(*order, trade)

	if err := s.balances.UnlockFromOrder(*order, market); err != nil {
		return fmt.Errorf("unable to unlock balance: %w", err)
	}
	if err := s.balances.UpdateFromOrder(filled, market); err != nil {
		if lockErr := s.balances.LockFromOrder(*order, market); lockErr != nil {
			s.logger.Error("unable to restore locked balance", append(order.Fields(), zap.Error(lockErr))...)
		}
		return err
	}

	*order = filled
	s.logger.Debug("order filled", order.Fields()...)
	return nil
}

func (s *Simulator) validateOptions(options common.OrderOptions) (common.Market, error) {
	switch {
	case options.Exchange == "":
		return common.Market{}, exchange.NewValidationError("exchange", exchange.KindRequired, "exchange is required")
	case options.Exchange != s.name:
		return common.Market{}, exchange.NewValidationError("exchange", exchange.KindDoesNotExist, "exchange %s does not exist", options.Exchange)
	case options.Market == "":
		return common.Market{}, exchange.NewValidationError("market", exchange.KindRequired, "market is required")
	}

	market, ok := s.markets[options.Market]
	if !ok {
		return common.Market{}, exchange.NewValidationError("market", exchange.KindDoesNotExist, "market %s does not exist", options.Market)
	}

	switch {
	case options.Side == "":
		return common.Market{}, exchange.NewValidationError("side", exchange.KindRequired, "side is required")
	case !slices.Contains(common.OrderSides, options.Side):
		return common.Market{}, exchange.NewValidationError("side", exchange.KindSupportsOnly, "side supports only %v", common.OrderSides)
	case options.Type == "":
		return common.Market{}, exchange.NewValidationError("type", exchange.KindRequired, "type is required")
	case !slices.Contains(common.OrderTypes, options.Type):
		return common.Market{}, exchange.NewValidationError("type", exchange.KindSupportsOnly, "type supports only %v", common.OrderTypes)
	}

	for _, field := range []struct {
		name  string
		value fixed.Point
	}{
		{"baseQuantity", options.BaseQuantity},
		{"quoteQuantity", options.QuoteQuantity},
		{"price", options.Price},
		{"stopPrice", options.StopPrice},
	} {
		if field.value.IsNeg() {
			return common.Market{}, exchange.NewValidationError(field.name, exchange.KindNumberMin, "%s must not be negative", field.name)
		}
	}

	if options.Type.HasStopPrice() {
		if options.BaseQuantity.IsZero() {
			return common.Market{}, exchange.NewValidationError("baseQuantity", exchange.KindRequired, "baseQuantity is required for %s orders", options.Type)
		}
		if options.StopPrice.IsZero() {
			return common.Market{}, exchange.NewValidationError("stopPrice", exchange.KindRequired, "stopPrice is required for %s orders", options.Type)
		}
	} else {
		if options.BaseQuantity.IsZero() && options.QuoteQuantity.IsZero() {
			return common.Market{}, exchange.NewValidationError("baseQuantity", exchange.KindOrRequired, "baseQuantity or quoteQuantity is required")
		}
		if !options.BaseQuantity.IsZero() && !options.QuoteQuantity.IsZero() {
			return common.Market{}, exchange.NewValidationError("quoteQuantity", exchange.KindInvalid, "only one of baseQuantity and quoteQuantity may be set")
		}
	}

	if options.Type.HasLimitPrice() && options.Price.IsZero() {
		return common.Market{}, exchange.NewValidationError("price", exchange.KindRequired, "price is required for %s orders", options.Type)
	}

	if options.Type == common.OrderTypeMarket && !s.tickSet {
		return common.Market{}, exchange.ErrSimulationNotReady
	}

	return market, nil
}

func (s *Simulator) newOrder(options common.OrderOptions, market common.Market) common.ExchangeOrder {
	order := common.ExchangeOrder{
		Id:            utility.NewExchangeID(),
		TimeStamp:     options.TimeStamp,
		Exchange:      options.Exchange,
		Market:        options.Market,
		Status:        common.OrderStatusNew,
		Side:          options.Side,
		Type:          options.Type,
		BaseQuantity:  options.BaseQuantity,
		QuoteQuantity: options.QuoteQuantity,
		Price:         options.Price.RoundDown(market.Precision.Price),
		StopPrice:     options.StopPrice.RoundDown(market.Precision.Price),
	}
	if order.TimeStamp.IsZero() {
		order.TimeStamp = s.candle.TimeStamp
	}

	derivation := order.Price
	if derivation.IsZero() {
		derivation = order.StopPrice
	}
	if derivation.IsPos() {
		if order.QuoteQuantity.IsZero() {
			order.QuoteQuantity = order.BaseQuantity.Mul(derivation).RoundUp(market.Precision.Quote)
		}
		if order.BaseQuantity.IsZero() {
			order.BaseQuantity = order.QuoteQuantity.Div(derivation).RoundDown(market.Precision.Amount)
		}
	}

	return order
}

// referencePrice is the price a new order is expected to trade at, used to
// check market limits and funds before anything is locked.
func (s *Simulator) referencePrice(order common.ExchangeOrder) (fixed.Point, error) {
	switch {
	case order.Type.HasLimitPrice():
		return order.Price, nil
	case order.Type.HasStopPrice():
		return order.StopPrice, nil
	case s.tickSet:
		return s.slippageHandler(s.tick), nil
	default:
		return fixed.Zero, exchange.ErrSimulationNotReady
	}
}

func (s *Simulator) checkFunds(order common.ExchangeOrder, market common.Market, trade common.Trade) error {
	symbol, field, amount := market.Quote, "quoteQuantity", order.QuoteQuantity
	if order.Side == common.OrderSideSell {
		symbol, field, amount = market.Base, "baseQuantity", order.BaseQuantity
	}
	if amount.IsZero() {
		amount = trade.QuoteQuantityGross
		if order.Side == common.OrderSideSell {
			amount = trade.BaseQuantityGross
		}
	}

	b, ok := s.balances.Balance(symbol)
	if !ok {
		return exchange.NewValidationError(field, exchange.KindDoesNotExist, "no %s balance", symbol)
	}
	if b.Free.Lt(amount) {
		return exchange.NewValidationError(field, exchange.KindInsufficientBalance,
			"insufficient %s balance, required %s, free %s", symbol, amount, b.Free)
	}
	return nil
}

func (s *Simulator) reached(price fixed.Point) bool {
	if s.inclusiveTriggers {
		return price.Within(s.candle.Low, s.candle.High)
	}
	return price.Between(s.candle.Low, s.candle.High)
}

func (s *Simulator) fillTime(order common.ExchangeOrder) time.Time {
	if s.candleSet {
		return s.candle.TimeStamp
	}
	return order.TimeStamp
}

func (s *Simulator) randomSlippage(tick fixed.Point) fixed.Point {
	low := tick.Mul(slippageLow)
	high := tick.Mul(slippageHigh)
	return low.Add(high.Sub(low).Mul(fixed.FromFloat64(s.rand.Float64())))
}

func (s *Simulator) find(id string) *common.ExchangeOrder {
	for _, order := range s.orders {
		if order.Id == id {
			return order
		}
	}
	return nil
}
