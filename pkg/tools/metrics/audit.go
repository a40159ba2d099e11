package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// Wallet is the part of a venue the audit values.
type Wallet interface {
	Balance(symbol string) (common.Balance, bool)
}

type Equity struct {
	TimeStamp time.Time
	Value     fixed.Point
}

// Audit samples the quote equity of one market after every candle.
type Audit struct {
	mu sync.Mutex

	wallet   Wallet
	market   common.Market
	equities []Equity
}

func NewAudit(wallet Wallet, market common.Market) *Audit {
	return &Audit{
		wallet: wallet,
		market: market,
	}
}

// WithCandle records the equity once handler has processed the candle.
func (a *Audit) WithCandle(handler bus.CandleEventHandler) bus.CandleEventHandler {
	return func(ctx context.Context, candle common.Candle) {
		handler(ctx, candle)
		a.Record(candle)
	}
}

// Record values the base and quote balances at the close of candle.
func (a *Audit) Record(candle common.Candle) {
	value := fixed.Zero
	if quote, ok := a.wallet.Balance(a.market.Quote); ok {
		value = value.Add(quote.Total)
	}
	if base, ok := a.wallet.Balance(a.market.Base); ok {
		value = value.Add(base.Total.Mul(candle.Close))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.equities = append(a.equities, Equity{TimeStamp: candle.TimeStamp, Value: value})
}

func (a *Audit) Equities() []Equity {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]Equity(nil), a.equities...)
}

// GenerateReport combines the sampled equity curve with positions.
func (a *Audit) GenerateReport(positions []common.Position, balances []common.Balance) Report {
	equities := a.Equities()

	report := Report{
		Positions:   len(positions),
		RealizedPnL: fixed.Zero,
		Balances:    balances,
	}

	if len(equities) > 0 {
		first, last := equities[0], equities[len(equities)-1]
		report.StartDate, report.EndDate = first.TimeStamp, last.TimeStamp
		report.InitialEquity, report.FinalEquity = first.Value, last.Value
		if first.Value.IsPos() {
			report.TotalProfit = last.Value.Div(first.Value).Sub(fixed.One).Mul(fixed.Hundred).RoundDown(2)
		}
		report.MaxDrawdown = maxDrawdown(equities).Mul(fixed.Hundred).RoundDown(2)
	}

	var (
		returns       []fixed.Point
		totalProfit   = fixed.Zero
		totalLoss     = fixed.Zero
		totalDuration time.Duration
	)
	for _, position := range positions {
		if position.Status != common.PositionStatusClosed {
			report.Open++
			continue
		}

		if position.Win != nil && *position.Win {
			report.Wins++
			totalProfit = totalProfit.Add(position.RealizedPnL)
		} else {
			report.Losses++
			totalLoss = totalLoss.Add(position.RealizedPnL.Neg())
		}
		if position.ClosedAt.After(position.CreatedAt) {
			totalDuration += position.ClosedAt.Sub(position.CreatedAt)
		}
		report.RealizedPnL = report.RealizedPnL.Add(position.RealizedPnL)
		returns = append(returns, position.RealizedPnLPercent)
	}

	closed := report.Wins + report.Losses
	if closed > 0 {
		report.WinRate = fixed.FromInt(report.Wins, 0).Mul(fixed.Hundred).DivInt(closed).RoundDown(2)
		report.Expectancy = report.RealizedPnL.DivInt(closed).RoundDown(4)
		report.AverageDuration = totalDuration / time.Duration(closed)
	}
	if report.Wins > 0 {
		report.AverageWin = totalProfit.DivInt(report.Wins).RoundDown(4)
	}
	if report.Losses > 0 {
		report.AverageLoss = totalLoss.DivInt(report.Losses).RoundDown(4)
	}
	if totalLoss.IsPos() {
		report.ProfitFactor = totalProfit.Div(totalLoss).RoundDown(4)
	}
	report.SharpeRatio = sharpeRatio(returns).RoundDown(4)
	report.SortinoRatio = sortinoRatio(returns).RoundDown(4)

	return report
}

// maxDrawdown returns the largest peak to trough decline as a fraction.
func maxDrawdown(equities []Equity) fixed.Point {
	peak, worst := fixed.Zero, fixed.Zero
	for _, equity := range equities {
		if equity.Value.Gt(peak) {
			peak = equity.Value
		}
		if !peak.IsPos() {
			continue
		}
		if drawdown := peak.Sub(equity.Value).Div(peak); drawdown.Gt(worst) {
			worst = drawdown
		}
	}
	return worst
}
