package balance

import (
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/exchange"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// Manager is the per-asset ledger of one venue. It is not safe for concurrent
// use; the owning exchange serializes access.
type Manager struct {
	balances map[string]*common.Balance
	symbols  []string
}

func NewManager(balances ...common.Balance) (*Manager, error) {
	m := &Manager{
		balances: make(map[string]*common.Balance, len(balances)),
	}

	for _, b := range balances {
		if b.Symbol == "" {
			return nil, exchange.NewValidationError("symbol", exchange.KindRequired, "balance symbol is required")
		}
		if b.Free.IsNeg() || b.Used.IsNeg() {
			return nil, exchange.NewValidationError(b.Symbol, exchange.KindNumberMin, "balance must not be negative")
		}
		if _, ok := m.balances[b.Symbol]; ok {
			return nil, exchange.NewValidationError(b.Symbol, exchange.KindInvalid, "duplicate balance")
		}
		m.put(common.Balance{Symbol: b.Symbol, Free: b.Free, Used: b.Used, Total: b.Free.Add(b.Used)})
	}

	return m, nil
}

func (m *Manager) Balances() []common.Balance {
	out := make([]common.Balance, 0, len(m.symbols))
	for _, symbol := range m.symbols {
		out = append(out, *m.balances[symbol])
	}
	return out
}

func (m *Manager) Balance(symbol string) (common.Balance, bool) {
	b, ok := m.balances[symbol]
	if !ok {
		return common.Balance{}, false
	}
	return *b, true
}

// Lock moves amount from free to used.
func (m *Manager) Lock(symbol string, amount fixed.Point) error {
	b, err := m.lookup(symbol, amount)
	if err != nil {
		return err
	}
	if b.Free.Lt(amount) {
		return exchange.NewValidationError("amount", exchange.KindInsufficientBalance,
			"cannot lock %s %s, only %s free", amount, symbol, b.Free)
	}

	b.Free = b.Free.Sub(amount)
	b.Used = b.Used.Add(amount)
	return nil
}

// Unlock moves amount from used back to free.
func (m *Manager) Unlock(symbol string, amount fixed.Point) error {
	b, err := m.lookup(symbol, amount)
	if err != nil {
		return err
	}
	if b.Used.Lt(amount) {
		return exchange.NewValidationError("amount", exchange.KindInsufficientBalance,
			"cannot unlock %s %s, only %s used", amount, symbol, b.Used)
	}

	b.Free = b.Free.Add(amount)
	b.Used = b.Used.Sub(amount)
	return nil
}

// LockAmount returns the asset and amount an open order keeps locked: the
// requested quote quantity for BUY and the requested base quantity for SELL.
func LockAmount(order common.ExchangeOrder, market common.Market) (string, fixed.Point) {
	if order.Side == common.OrderSideBuy {
		return market.Quote, order.QuoteQuantity
	}
	return market.Base, order.BaseQuantity
}

func (m *Manager) LockFromOrder(order common.ExchangeOrder, market common.Market) error {
	symbol, amount := LockAmount(order, market)
	return m.Lock(symbol, amount)
}

func (m *Manager) UnlockFromOrder(order common.ExchangeOrder, market common.Market) error {
	symbol, amount := LockAmount(order, market)
	return m.Unlock(symbol, amount)
}

// UpdateFromOrder settles the gross and net quantities of a filled order.
// Missing base or quote rows are created with zero balances once the order
// is known to settle.
func (m *Manager) UpdateFromOrder(order common.ExchangeOrder, market common.Market) error {
	switch order.Side {
	case common.OrderSideBuy:
		if free := m.free(market.Quote); free.Lt(order.QuoteQuantityGross) {
			return exchange.NewValidationError("quoteQuantity", exchange.KindInsufficientBalance,
				"cannot pay %s %s, only %s free", order.QuoteQuantityGross, market.Quote, free)
		}
	case common.OrderSideSell:
		if free := m.free(market.Base); free.Lt(order.BaseQuantityGross) {
			return exchange.NewValidationError("baseQuantity", exchange.KindInsufficientBalance,
				"cannot deliver %s %s, only %s free", order.BaseQuantityGross, market.Base, free)
		}
	default:
		return exchange.NewValidationError("side", exchange.KindSupportsOnly, "side must be BUY or SELL")
	}

	base := m.ensure(market.Base)
	quote := m.ensure(market.Quote)

	if order.Side == common.OrderSideBuy {
		base.Free = base.Free.Add(order.BaseQuantityNet)
		base.Total = base.Total.Add(order.BaseQuantityNet)
		quote.Free = quote.Free.Sub(order.QuoteQuantityGross)
		quote.Total = quote.Total.Sub(order.QuoteQuantityGross)
		return nil
	}

	base.Free = base.Free.Sub(order.BaseQuantityGross)
	base.Total = base.Total.Sub(order.BaseQuantityGross)
	quote.Free = quote.Free.Add(order.QuoteQuantityNet)
	quote.Total = quote.Total.Add(order.QuoteQuantityNet)
	return nil
}

func (m *Manager) free(symbol string) fixed.Point {
	if b, ok := m.balances[symbol]; ok {
		return b.Free
	}
	return fixed.Zero
}

func (m *Manager) lookup(symbol string, amount fixed.Point) (*common.Balance, error) {
	if amount.IsNeg() {
		return nil, exchange.NewValidationError("amount", exchange.KindNumberMin, "amount must not be negative")
	}
	b, ok := m.balances[symbol]
	if !ok {
		return nil, exchange.NewValidationError("symbol", exchange.KindDoesNotExist, "no %s balance", symbol)
	}
	return b, nil
}

func (m *Manager) ensure(symbol string) *common.Balance {
	if b, ok := m.balances[symbol]; ok {
		return b
	}
	return m.put(common.Balance{Symbol: symbol})
}

func (m *Manager) put(b common.Balance) *common.Balance {
	m.balances[b.Symbol] = &b
	m.symbols = append(m.symbols, b.Symbol)
	return &b
}
