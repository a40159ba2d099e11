package metrics

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

type Report struct {
	StartDate     time.Time
	EndDate       time.Time
	InitialEquity fixed.Point
	FinalEquity   fixed.Point
	TotalProfit   fixed.Point
	MaxDrawdown   fixed.Point

	Positions int
	Open      int
	Wins      int
	Losses    int

	WinRate         fixed.Point
	RealizedPnL     fixed.Point
	Expectancy      fixed.Point
	ProfitFactor    fixed.Point
	AverageWin      fixed.Point
	AverageLoss     fixed.Point
	AverageDuration time.Duration

	SharpeRatio  fixed.Point
	SortinoRatio fixed.Point

	Balances []common.Balance
}

func (r Report) Fields() []zap.Field {
	return []zap.Field{
		zap.String("initial_equity", r.InitialEquity.String()),
		zap.String("final_equity", r.FinalEquity.String()),
		zap.String("total_profit", fmt.Sprintf("%s%%", r.TotalProfit)),
		zap.String("max_drawdown", fmt.Sprintf("%s%%", r.MaxDrawdown)),
		zap.Int("positions", r.Positions),
		zap.Int("open", r.Open),
		zap.Int("wins", r.Wins),
		zap.Int("losses", r.Losses),
		zap.String("win_rate", fmt.Sprintf("%s%%", r.WinRate)),
		zap.String("realized_pnl", r.RealizedPnL.String()),
		zap.String("profit_factor", r.ProfitFactor.String()),
		zap.Duration("average_duration", r.AverageDuration),
		zap.String("sharpe_ratio", r.SharpeRatio.String()),
		zap.String("sortino_ratio", r.SortinoRatio.String()),
	}
}

// Print writes the report as an aligned two column table.
func (r Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(tw, "period\t%s - %s\n", r.StartDate.Format(time.DateTime), r.EndDate.Format(time.DateTime))
	_, _ = fmt.Fprintf(tw, "equity\t%s -> %s (%s%%)\n", r.InitialEquity, r.FinalEquity, r.TotalProfit)
	_, _ = fmt.Fprintf(tw, "max drawdown\t%s%%\n", r.MaxDrawdown)
	_, _ = fmt.Fprintf(tw, "positions\t%d\n", r.Positions)
	_, _ = fmt.Fprintf(tw, "still open\t%d\n", r.Open)
	_, _ = fmt.Fprintf(tw, "wins / losses\t%d / %d\n", r.Wins, r.Losses)
	_, _ = fmt.Fprintf(tw, "win rate\t%s%%\n", r.WinRate)
	_, _ = fmt.Fprintf(tw, "realized pnl\t%s\n", r.RealizedPnL)
	_, _ = fmt.Fprintf(tw, "expectancy\t%s\n", r.Expectancy)
	_, _ = fmt.Fprintf(tw, "profit factor\t%s\n", r.ProfitFactor)
	_, _ = fmt.Fprintf(tw, "average win / loss\t%s / %s\n", r.AverageWin, r.AverageLoss)
	_, _ = fmt.Fprintf(tw, "average duration\t%s\n", r.AverageDuration)
	_, _ = fmt.Fprintf(tw, "sharpe\t%s\n", r.SharpeRatio)
	_, _ = fmt.Fprintf(tw, "sortino\t%s\n", r.SortinoRatio)
	for _, balance := range r.Balances {
		_, _ = fmt.Fprintf(tw, "balance %s\t%s (used %s)\n", balance.Symbol, balance.Total, balance.Used)
	}

	return tw.Flush()
}
