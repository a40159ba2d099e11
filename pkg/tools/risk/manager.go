package risk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/exchange"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

var (
	ErrMaxOpenPositions = errors.New("max open positions reached")
	ErrCooldown         = errors.New("cooldown in progress")
	ErrZeroSize         = errors.New("position size is zero")
)

// Manager sizes new long positions in quote currency from the free quote
// balance of the venue.
type Manager struct {
	mu sync.Mutex

	logger        *zap.Logger
	exchange      exchange.Venue
	configuration Configuration

	drawdownMulHandler DrawdownMultiplierHandler
	cooldownHandler    CooldownHandler

	open          map[string]struct{}
	lastTradeTime time.Time
	peakEquity    fixed.Point
}

func NewManager(venue exchange.Venue, configuration Configuration, options ...Option) (*Manager, error) {
	if err := configuration.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk configuration: %w", err)
	}

	m := &Manager{
		logger:        zap.NewNop(),
		exchange:      venue,
		configuration: configuration,
		open:          make(map[string]struct{}),
	}

	for _, option := range options {
		option(m)
	}

	return m, nil
}

// QuoteQuantity returns the quote amount a BUY entry for signal may spend.
func (m *Manager) QuoteQuantity(signal common.Signal) (fixed.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	market, ok := m.exchange.Market(signal.Market)
	if !ok {
		return fixed.Zero, exchange.NewValidationError("market", exchange.KindDoesNotExist, "market %q does not exist", signal.Market)
	}

	if m.configuration.MaxOpenPositions > 0 && len(m.open) >= m.configuration.MaxOpenPositions {
		return fixed.Zero, ErrMaxOpenPositions
	}

	if m.cooldownHandler != nil && !m.lastTradeTime.IsZero() && !m.cooldownHandler(m.lastTradeTime, signal.TimeStamp) {
		return fixed.Zero, ErrCooldown
	}

	quote, ok := m.exchange.Balance(market.Quote)
	if !ok || !quote.Free.IsPos() {
		return fixed.Zero, exchange.NewValidationError("balance", exchange.KindInsufficientBalance, "no free %s balance", market.Quote)
	}

	entry := signal.Entry
	if entry.IsZero() {
		entry, _ = m.exchange.Tick()
	}

	drawdown := m.drawdown(market)
	drawdownMul := fixed.One
	if m.drawdownMulHandler != nil {
		drawdownMul = m.drawdownMulHandler(drawdown)
	}
	strengthMul := signalStrengthMultiplier(signal.Strength)
	rrrMul := riskRewardMultiplier(entry, signal.Stop, signal.Target)

	size := quote.Free.Mul(m.configuration.RiskPercentage).DivInt(100).
		Mul(strengthMul).
		Mul(rrrMul).
		Mul(drawdownMul)

	m.logger.Debug("position sized",
		zap.String("signal_id", signal.Id),
		zap.String("free_quote", quote.Free.String()),
		zap.String("drawdown", drawdown.String()),
		zap.String("strength_multiplier", strengthMul.String()),
		zap.String("rrr_multiplier", rrrMul.String()),
		zap.String("drawdown_multiplier", drawdownMul.String()),
		zap.String("size", size.String()))

	if !size.IsPos() {
		return fixed.Zero, ErrZeroSize
	}

	size = clamp(size, common.Range{Min: m.configuration.MinQuoteQuantity, Max: m.configuration.MaxQuoteQuantity})
	size = clamp(size, market.Limits.Cost)
	size = fixed.Min(size, quote.Free).RoundDown(market.Precision.Quote)

	if market.Limits.Cost.BelowMin(size) || !size.IsPos() {
		return fixed.Zero, exchange.NewValidationError("quoteQuantity", exchange.KindMinimumLimit,
			"free %s balance %s cannot cover the minimum cost %s", market.Quote, quote.Free, market.Limits.Cost.Min)
	}

	return size, nil
}

// Drawdown returns the current drawdown of market's equity in percent of its peak.
func (m *Manager) Drawdown(symbol string) fixed.Point {
	m.mu.Lock()
	defer m.mu.Unlock()

	market, ok := m.exchange.Market(symbol)
	if !ok {
		return fixed.Zero
	}
	return m.drawdown(market)
}

func (m *Manager) OpenPositions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.open)
}

func (m *Manager) OnPositionOpened(_ context.Context, position common.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if position.Status != common.PositionStatusClosed {
		m.open[position.Id] = struct{}{}
	}
	if position.CreatedAt.After(m.lastTradeTime) {
		m.lastTradeTime = position.CreatedAt
	}
}

func (m *Manager) OnPositionUpdated(_ context.Context, position common.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if position.Status == common.PositionStatusClosed {
		delete(m.open, position.Id)
	}
	if market, ok := m.exchange.Market(position.Market); ok {
		m.drawdown(market)
	}
}

// drawdown values the base holding of market at the current tick, raises the
// equity peak when exceeded and returns the distance to it in percent.
func (m *Manager) drawdown(market common.Market) fixed.Point {
	equity := fixed.Zero
	if quote, ok := m.exchange.Balance(market.Quote); ok {
		equity = equity.Add(quote.Total)
	}
	if base, ok := m.exchange.Balance(market.Base); ok {
		if tick, ok := m.exchange.Tick(); ok {
			equity = equity.Add(base.Total.Mul(tick))
		}
	}

	if equity.Gt(m.peakEquity) {
		m.peakEquity = equity
	}
	if !m.peakEquity.IsPos() {
		return fixed.Zero
	}
	return m.peakEquity.Sub(equity).Div(m.peakEquity).MulInt(100)
}
