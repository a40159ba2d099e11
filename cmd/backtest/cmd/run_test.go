package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/peter-kozarec/spotsim/pkg/config"
	"github.com/peter-kozarec/spotsim/pkg/data/db/sqlite"
	"github.com/peter-kozarec/spotsim/pkg/datasource/historical"
	"github.com/peter-kozarec/spotsim/pkg/utility"
)

const syntheticConfig = `
exchange:
  name: sandbox
  markets:
    - symbol: BTC/USDT
      base: BTC
      quote: USDT
      fees: {maker: 0.001, taker: 0.001}
      precision: {base: 8, price: 2, quote: 2, amount: 6}
  balances:
    - symbol: USDT
      free: 10000
dataSource:
  kind: synthetic
  symbol: BTC/USDT
  synthetic:
    startPrice: 42000
    interval: 1m
    volatility: 0.004
    steps: 2000
    seed: 11
strategy:
  kind: meanReversion
  window: 20
  threshold: 2
trader:
  risk:
    riskPercentage: 5
`

func loadSyntheticConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Parse([]byte(syntheticConfig))
	require.NoError(t, err)
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestBacktest_RunSynthetic(t *testing.T) {
	cfg := loadSyntheticConfig(t)

	r, err := runBacktest(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Positive(t, r.Positions, "the strategy should trade a volatile series")
	assert.Zero(t, r.Open, "positions left after the last candle are closed")
	assert.Equal(t, r.Positions, r.Wins+r.Losses)
	assert.Equal(t, "10000", r.InitialEquity.String())

	db, err := sqlite.Open(context.Background(), cfg.Journal.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	records, err := sqlite.Positions(context.Background(), db)
	require.NoError(t, err)
	assert.Len(t, records, r.Positions)
	for _, record := range records {
		assert.Equal(t, utility.GetExecutionID().String(), record.ExecutionID)
	}

	var out bytes.Buffer
	require.NoError(t, r.Print(&out))
	assert.Contains(t, out.String(), "balance USDT")
}

func TestBacktest_RunBinaryMatchesSynthetic(t *testing.T) {
	cfg := loadSyntheticConfig(t)
	cfg.Journal.Path = ""
	market, _ := cfg.Market("BTC/USDT")

	source, closeSource, err := openDataSource(context.Background(), cfg, market)
	require.NoError(t, err)
	defer closeSource()

	candles := drain(t, source)
	require.Len(t, candles, 2000)

	path := filepath.Join(t.TempDir(), "candles.bin")
	require.NoError(t, historical.WriteCandles(path, candles))

	want, err := runBacktest(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	cfg.DataSource.Kind = config.DataSourceBinary
	cfg.DataSource.Path = path
	got, err := runBacktest(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, want.Positions, got.Positions)
	assert.Equal(t, want.RealizedPnL.String(), got.RealizedPnL.String())
}

func TestBacktest_RunResampled(t *testing.T) {
	cfg := loadSyntheticConfig(t)
	cfg.Journal.Path = ""
	cfg.DataSource.Period = 5 * time.Minute

	r, err := runBacktest(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Zero(t, r.Open)
	assert.Equal(t, r.Positions, r.Wins+r.Losses)
	assert.Equal(t, time.Duration(0), r.StartDate.Sub(r.StartDate.Truncate(5*time.Minute)))
}

func TestBacktest_ConvertCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "candles.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"ts,open,high,low,close,volume\n"+
			"2024-01-01 00:00:00,100,101,99,100.5,2\n"+
			"2024-01-01 00:01:00,100.5,102,100,101.25,3\n"), 0o600))

	outPath := filepath.Join(dir, "candles.bin")
	n, err := convertCSV(context.Background(), csvPath, outPath)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	source := historical.NewSource[historical.BinaryCandle](outPath)
	require.NoError(t, source.Open())
	defer source.Close()

	count, err := source.EntryCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var record historical.BinaryCandle
	require.NoError(t, source.Read(1, &record))
	assert.Equal(t, 101.25, record.Close)
}

func TestBacktest_VersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute())
	assert.Equal(t, "backtest "+Version+"\n", out.String())
}
