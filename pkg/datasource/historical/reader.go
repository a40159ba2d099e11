package historical

import (
	"fmt"
	"math"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/common"
)

const invalidIndex = -1

// CandleReader walks the candles of a Source within [from, to].
type CandleReader struct {
	source *Source[BinaryCandle]

	symbol       string
	priceDigits  int
	volumeDigits int
	from         int64
	to           int64
	idx          int64
}

func NewCandleReader(source *Source[BinaryCandle], symbol string, from, to time.Time, priceDigits, volumeDigits int) *CandleReader {
	return &CandleReader{
		source:       source,
		symbol:       symbol,
		priceDigits:  priceDigits,
		volumeDigits: volumeDigits,
		from:         unixNano(from),
		to:           unixNano(to),
		idx:          invalidIndex,
	}
}

func (c *CandleReader) GetNext() (common.Candle, error) {
	var candle common.Candle
	var binCandle BinaryCandle

	if c.idx == invalidIndex {
		if err := c.lookupStartIndex(); err != nil {
			return candle, err
		}
	}

	if err := c.source.Read(c.idx, &binCandle); err != nil {
		if err == ErrEof {
			return candle, ErrEof
		}
		return candle, fmt.Errorf("error reading entry at index %d: %w", c.idx, err)
	}
	c.idx++

	if binCandle.TimeStamp < c.from {
		return candle, fmt.Errorf("timestamp %d is before the requested range", binCandle.TimeStamp)
	}
	if binCandle.TimeStamp > c.to {
		return candle, ErrEof
	}

	binCandle.ToCandle(&candle, c.priceDigits, c.volumeDigits)
	candle.Symbol = c.symbol

	return candle, nil
}

func (c *CandleReader) lookupStartIndex() error {
	entryCount, err := c.source.EntryCount()
	if err != nil {
		return fmt.Errorf("error getting entry count: %w", err)
	}
	if entryCount == 0 {
		return ErrEof
	}

	var entry BinaryCandle

	low := int64(0)
	high := entryCount - 1

	for low <= high {
		mid := (low + high) / 2

		if err := c.source.Read(mid, &entry); err != nil {
			return fmt.Errorf("error reading entry at index %d: %w", mid, err)
		}

		if entry.TimeStamp < c.from {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	if low >= entryCount {
		return ErrEof
	}

	c.idx = low
	return nil
}

var (
	minUnixNano = time.Unix(0, math.MinInt64)
	maxUnixNano = time.Unix(0, math.MaxInt64)
)

// unixNano clamps t to the range a unix nanosecond timestamp can hold.
func unixNano(t time.Time) int64 {
	switch {
	case t.Before(minUnixNano):
		return math.MinInt64
	case t.After(maxUnixNano):
		return math.MaxInt64
	default:
		return t.UnixNano()
	}
}
