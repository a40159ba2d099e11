package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/spotsim/pkg/common"
)

var (
	from = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2024, 1, 1, 0, 2, 0, 0, time.UTC)
)

func collect(candles *[]common.Candle) func(common.Candle) error {
	return func(c common.Candle) error {
		*candles = append(*candles, c)
		return nil
	}
}

func TestDuckDBReader_LoadCandles(t *testing.T) {
	ctx := context.Background()
	r := NewReader("")
	require.NoError(t, r.Connect())
	t.Cleanup(r.Close)

	_, err := r.DB().ExecContext(ctx, `
	CREATE TABLE btc_candles (ts TIMESTAMP, open DECIMAL(18,8), high DECIMAL(18,8), low DECIMAL(18,8), close DECIMAL(18,8), volume DECIMAL(18,8))`)
	require.NoError(t, err)

	_, err = r.DB().ExecContext(ctx, `
	INSERT INTO btc_candles VALUES
		('2024-01-01 00:03:00', 103, 104, 102, 103.5, 1),
		('2024-01-01 00:01:00', 101, 102.5, 100.5, 102, 3.25),
		('2024-01-01 00:00:00', 100, 101, 99.5, 101, 2)`)
	require.NoError(t, err)

	var candles []common.Candle
	require.NoError(t, r.LoadCandles(ctx, "btc_candles", "BTC/USDT", from, to, collect(&candles)))

	require.Len(t, candles, 2)
	assert.Equal(t, "BTC/USDT", candles[0].Symbol)
	assert.True(t, candles[0].TimeStamp.Equal(from))
	assert.Equal(t, "99.5", candles[0].Low.String())
	assert.Equal(t, "102.5", candles[1].High.String())
	assert.Equal(t, "3.25", candles[1].Volume.String())
}

func TestDuckDBReader_LoadCandlesCSV(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"ts,open,high,low,close,volume\n"+
			"2024-01-01 00:00:00,100,101,99.5,101,2\n"+
			"2024-01-01 00:01:00,101,102.5,100.5,102,3.25\n"), 0o600))

	r := NewReader("")
	require.NoError(t, r.Connect())
	t.Cleanup(r.Close)

	var candles []common.Candle
	require.NoError(t, r.LoadCandlesCSV(ctx, path, "BTC/USDT", from, to, collect(&candles)))

	require.Len(t, candles, 2)
	assert.Equal(t, "101", candles[0].Close.String())
	assert.Equal(t, "102", candles[1].Close.String())
}

func TestDuckDBReader_RejectsInvalidTable(t *testing.T) {
	r := NewReader("")
	require.NoError(t, r.Connect())
	t.Cleanup(r.Close)

	err := r.LoadCandles(context.Background(), "candles; DROP TABLE x", "BTC/USDT", from, to, func(common.Candle) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidTable)
}
