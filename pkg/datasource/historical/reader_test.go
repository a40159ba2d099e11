package historical

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

var startTime = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func testCandles(n int) []common.Candle {
	candles := make([]common.Candle, n)
	for i := range candles {
		price := fixed.FromInt(100+i, 0)
		candles[i] = common.Candle{
			TimeStamp: startTime.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price.Add(fixed.FromInt(2, 0)),
			Low:       price.Sub(fixed.FromInt(1, 0)),
			Close:     price.Add(fixed.FromInt(1, 0)),
			Volume:    fixed.FromInt(15, 1),
		}
	}
	return candles
}

func openTestSource(t *testing.T, candles []common.Candle) *Source[BinaryCandle] {
	t.Helper()

	path := filepath.Join(t.TempDir(), "candles.bin")
	require.NoError(t, WriteCandles(path, candles))

	source := NewSource[BinaryCandle](path)
	require.NoError(t, source.Open())
	t.Cleanup(source.Close)
	return source
}

func readAll(t *testing.T, reader *CandleReader) []common.Candle {
	t.Helper()

	var candles []common.Candle
	for {
		candle, err := reader.GetNext()
		if err == ErrEof {
			return candles
		}
		require.NoError(t, err)
		candles = append(candles, candle)
	}
}

func TestHistoricalSource_EntryCount(t *testing.T) {
	source := openTestSource(t, testCandles(10))

	count, err := source.EntryCount()
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)

	var record BinaryCandle
	require.NoError(t, source.Read(9, &record))
	assert.Equal(t, 109.0, record.Open)
	assert.ErrorIs(t, source.Read(10, &record), ErrEof)
}

func TestHistoricalCandleReader_Range(t *testing.T) {
	source := openTestSource(t, testCandles(10))

	reader := NewCandleReader(source, "BTC/USDT", startTime.Add(3*time.Minute), startTime.Add(6*time.Minute), 2, 4)
	candles := readAll(t, reader)

	require.Len(t, candles, 4)
	assert.Equal(t, "BTC/USDT", candles[0].Symbol)
	assert.True(t, candles[0].TimeStamp.Equal(startTime.Add(3*time.Minute)))
	assert.Equal(t, "103", candles[0].Open.String())
	assert.Equal(t, "105", candles[0].High.String())
	assert.Equal(t, "1.5", candles[0].Volume.String())
	assert.True(t, candles[3].TimeStamp.Equal(startTime.Add(6*time.Minute)))
}

func TestHistoricalCandleReader_FromBetweenCandles(t *testing.T) {
	source := openTestSource(t, testCandles(5))

	reader := NewCandleReader(source, "BTC/USDT", startTime.Add(90*time.Second), startTime.Add(time.Hour), 2, 4)
	candles := readAll(t, reader)

	require.Len(t, candles, 3)
	assert.Equal(t, "102", candles[0].Open.String())
}

func TestHistoricalCandleReader_RangeAfterData(t *testing.T) {
	source := openTestSource(t, testCandles(5))

	reader := NewCandleReader(source, "BTC/USDT", startTime.Add(time.Hour), startTime.Add(2*time.Hour), 2, 4)
	_, err := reader.GetNext()
	assert.ErrorIs(t, err, ErrEof)
}

func TestHistoricalCandleReader_EmptyFile(t *testing.T) {
	source := openTestSource(t, nil)

	reader := NewCandleReader(source, "BTC/USDT", startTime, startTime.Add(time.Hour), 2, 4)
	_, err := reader.GetNext()
	assert.ErrorIs(t, err, ErrEof)
}

func TestHistoricalCandleReader_OpenWindow(t *testing.T) {
	source := openTestSource(t, testCandles(3))

	reader := NewCandleReader(source, "BTC/USDT", time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC), 2, 4)
	assert.Len(t, readAll(t, reader), 3)
}
