package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peter-kozarec/spotsim/internal/dbg"
	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/config"
	"github.com/peter-kozarec/spotsim/pkg/data/db/sqlite"
	"github.com/peter-kozarec/spotsim/pkg/data/duckdb"
	"github.com/peter-kozarec/spotsim/pkg/datasource"
	"github.com/peter-kozarec/spotsim/pkg/datasource/historical"
	"github.com/peter-kozarec/spotsim/pkg/datasource/synthetic"
	"github.com/peter-kozarec/spotsim/pkg/exchange/sandbox"
	"github.com/peter-kozarec/spotsim/pkg/middleware"
	"github.com/peter-kozarec/spotsim/pkg/strategy"
	"github.com/peter-kozarec/spotsim/pkg/tools/bar"
	"github.com/peter-kozarec/spotsim/pkg/tools/metrics"
	"github.com/peter-kozarec/spotsim/pkg/tools/risk"
	"github.com/peter-kozarec/spotsim/pkg/trader"
	"github.com/peter-kozarec/spotsim/pkg/utility"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a config file",
	Long: `Run replays the configured candle source through the simulated exchange
and prints a summary of the closed positions.

Example:
  backtest run -f configs/backtest.yaml`,
	RunE: runRun,
}

var (
	runConfigPath string
	runEnvPath    string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().StringVar(&runEnvPath, "env", "", "path to an env file with SPOTSIM_* overrides (default .env)")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnv(runEnvPath); err != nil {
		return err
	}

	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := dbg.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r, err := runBacktest(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return r.Print(cmd.OutOrStdout())
}

func runBacktest(ctx context.Context, cfg *config.Config, logger *zap.Logger) (metrics.Report, error) {
	logger.Info(fmt.Sprintf("backtest %s", Version), zap.String("execution_id", utility.ResetExecutionID().String()))
	defer logger.Info("done")

	market, ok := cfg.Market(cfg.DataSource.Symbol)
	if !ok {
		return metrics.Report{}, fmt.Errorf("market %q is not configured", cfg.DataSource.Symbol)
	}

	sim, err := newSimulator(cfg, logger)
	if err != nil {
		return metrics.Report{}, fmt.Errorf("create simulator: %w", err)
	}

	router := bus.NewRouter(cfg.EventCapacity, bus.WithLogger(logger))

	traderOptions := []trader.Option{
		trader.WithLogger(logger),
		trader.WithRiskOptions(riskOptions(cfg)...),
	}
	if cfg.Strategy.Kind == config.StrategyMeanReversion {
		traderOptions = append(traderOptions, trader.WithStrategy(newMeanReversion(cfg, router, logger)))
	}

	t, err := trader.NewTrader(router, sim, cfg.Trader, traderOptions...)
	if err != nil {
		return metrics.Report{}, fmt.Errorf("create trader: %w", err)
	}

	source, closeSource, err := openDataSource(ctx, cfg, market)
	if err != nil {
		return metrics.Report{}, fmt.Errorf("open data source: %w", err)
	}
	defer closeSource()
	if cfg.DataSource.Period > 0 {
		source = bar.NewAggregator(source, cfg.DataSource.Period)
	}

	flags, unknown := middleware.ParseMonitorFlags(cfg.Log.Monitor)
	if len(unknown) > 0 {
		logger.Warn("unknown monitor topics", zap.Strings("topics", unknown))
	}
	monitor := middleware.NewMonitor(logger, flags)
	telemetry := middleware.NewTelemetry(logger)
	performance := middleware.NewPerformance(logger)
	audit := metrics.NewAudit(sim, market)

	updatedWrappers := []func(bus.PositionUpdatedEventHandler) bus.PositionUpdatedEventHandler{
		telemetry.WithPositionUpdated, performance.WithPositionUpdated, monitor.WithPositionUpdated,
	}
	if cfg.Journal.Path != "" {
		db, err := sqlite.Open(ctx, cfg.Journal.Path)
		if err != nil {
			return metrics.Report{}, err
		}
		defer func() {
			_ = db.Close()
		}()

		ledger := middleware.NewLedger(logger, db)
		defer func() {
			if err := ledger.Wait(); err != nil {
				logger.Warn("journal incomplete", zap.Error(err))
			}
		}()
		updatedWrappers = append(updatedWrappers, ledger.WithPositionUpdated)
	}

	router.OnCandle = middleware.Chain(telemetry.WithCandle, performance.WithCandle, monitor.WithCandle, audit.WithCandle)(t.OnCandle)
	router.OnSignal = middleware.Chain(telemetry.WithSignal, performance.WithSignal, monitor.WithSignal)(t.OnSignal)
	router.OnPositionOpen = middleware.Chain(telemetry.WithPositionOpen, performance.WithPositionOpen, monitor.WithPositionOpen)(t.OnPositionOpen)
	router.OnPositionOpened = middleware.Chain(telemetry.WithPositionOpened, performance.WithPositionOpened, monitor.WithPositionOpened)(t.OnPositionOpened)
	router.OnPositionClose = middleware.Chain(telemetry.WithPositionClose, performance.WithPositionClose, monitor.WithPositionClose)(t.OnPositionClose)
	router.OnPositionCloseAll = middleware.Chain(telemetry.WithPositionCloseAll, performance.WithPositionCloseAll, monitor.WithPositionCloseAll)(t.OnPositionCloseAll)
	router.OnPositionUpdated = middleware.Chain(updatedWrappers...)(t.OnPositionUpdated)

	err = <-router.ExecLoop(ctx, datasource.CreateCandleDispatcher(router, source))
	switch {
	case err == nil, errors.Is(err, datasource.ErrEof):
	case errors.Is(err, context.Canceled):
		logger.Warn("backtest interrupted")
	default:
		return metrics.Report{}, fmt.Errorf("backtest failed: %w", err)
	}

	closeOpenPositions(context.WithoutCancel(ctx), router, t, sim, logger)

	logger.Info("router statistics", router.Statistics().Fields()...)
	telemetry.PrintStatistics()
	performance.PrintStatistics(telemetry)

	r := audit.GenerateReport(t.Positions().Positions(), sim.Balances())
	logger.Info("backtest finished", r.Fields()...)
	return r, nil
}

// closeOpenPositions sells every position still held after the last candle and
// settles the offsets against that candle.
func closeOpenPositions(ctx context.Context, router *bus.Router, t *trader.Trader, sim *sandbox.Simulator, logger *zap.Logger) {
	candle, ok := sim.Candle()
	if !ok {
		return
	}

	if err := router.Post(bus.PositionCloseAllEvent, common.PositionCloseAllRequest{TimeStamp: candle.TimeStamp}); err != nil {
		logger.Warn("unable to request close of open positions", zap.Error(err))
		return
	}
	router.Drain(ctx)

	if err := t.Positions().Evaluate(ctx); err != nil {
		logger.Warn("final evaluation failed", zap.Error(err))
	}
	router.Drain(ctx)
}

func newSimulator(cfg *config.Config, logger *zap.Logger) (*sandbox.Simulator, error) {
	options := []sandbox.Option{
		sandbox.WithLogger(logger),
		sandbox.WithMarkets(cfg.Exchange.Markets...),
		sandbox.WithBalances(cfg.Exchange.Balances...),
	}

	switch {
	case !cfg.Exchange.Slippage:
		options = append(options, sandbox.WithSlippageHandler(func(tick fixed.Point) fixed.Point { return tick }))
	case cfg.Exchange.Seed != 0:
		options = append(options, sandbox.WithRandSource(rand.NewSource(cfg.Exchange.Seed)))
	}
	if cfg.Exchange.InclusiveTriggers {
		options = append(options, sandbox.WithInclusiveTriggers())
	}

	return sandbox.NewSimulator(cfg.Exchange.Name, options...)
}

func riskOptions(cfg *config.Config) []risk.Option {
	var options []risk.Option
	if cfg.Strategy.Cooldown > 0 {
		options = append(options, risk.WithCooldownPeriod(cfg.Strategy.Cooldown))
	}
	if cfg.Strategy.ScaleDrawdown {
		options = append(options, risk.WithDefaultDrawdownMultiplier())
	}
	return options
}

func newMeanReversion(cfg *config.Config, router *bus.Router, logger *zap.Logger) *strategy.MeanReversion {
	s := cfg.Strategy
	options := []strategy.Option{strategy.WithLogger(logger)}
	if !s.Threshold.IsZero() {
		options = append(options, strategy.WithThreshold(s.Threshold))
	}
	if !s.StopMultiplier.IsZero() {
		options = append(options, strategy.WithStopMultiplier(s.StopMultiplier))
	}
	if s.AtrWindow > 0 {
		options = append(options, strategy.WithAtrWindow(s.AtrWindow))
	}
	return strategy.NewMeanReversion(router, cfg.Exchange.Name, cfg.DataSource.Symbol, s.Window, options...)
}

func openDataSource(ctx context.Context, cfg *config.Config, market common.Market) (datasource.CandleDataSource, func(), error) {
	ds := cfg.DataSource
	from, to := ds.Window()

	switch ds.Kind {
	case config.DataSourceDuckDB, config.DataSourceCSV:
		dsn := ""
		if ds.Kind == config.DataSourceDuckDB {
			dsn = ds.Path
		}
		reader := duckdb.NewReader(dsn)
		if err := reader.Connect(); err != nil {
			return nil, nil, err
		}
		defer reader.Close()

		var candles []common.Candle
		collect := func(candle common.Candle) error {
			candles = append(candles, candle)
			return nil
		}

		var err error
		if ds.Kind == config.DataSourceDuckDB {
			err = reader.LoadCandles(ctx, ds.Table, ds.Symbol, from, to, collect)
		} else {
			err = reader.LoadCandlesCSV(ctx, ds.Path, ds.Symbol, from, to, collect)
		}
		if err != nil {
			return nil, nil, err
		}
		return datasource.NewCandles(candles), func() {}, nil

	case config.DataSourceBinary:
		source := historical.NewSource[historical.BinaryCandle](ds.Path)
		if err := source.Open(); err != nil {
			return nil, nil, err
		}
		reader := historical.NewCandleReader(source, ds.Symbol, from, to, market.Precision.Price, market.Precision.Amount)
		return reader, source.Close, nil

	case config.DataSourceSynthetic:
		s := ds.Synthetic
		start := ds.From
		if start.IsZero() {
			start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		generator := synthetic.NewCandleGenerator(ds.Symbol, rand.New(rand.NewSource(s.Seed)), start,
			s.StartPrice, s.Interval, s.Drift, s.Volatility, s.Steps)
		generator.SetDigits(market.Precision.Price, market.Precision.Amount)
		return generator, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown data source kind %q", ds.Kind)
	}
}
