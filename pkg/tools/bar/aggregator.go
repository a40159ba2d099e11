package bar

import (
	"errors"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/datasource"
)

// Aggregator merges the candles of a source into candles of a longer period.
// Periods are aligned to the unix epoch and stamped with their start.
type Aggregator struct {
	source datasource.CandleDataSource
	period time.Duration

	inConstruction *common.Candle
	done           bool
}

func NewAggregator(source datasource.CandleDataSource, period time.Duration) *Aggregator {
	return &Aggregator{
		source: source,
		period: period,
	}
}

// GetNext returns the next completed candle. The last partial period is
// returned before ErrEof.
func (a *Aggregator) GetNext() (common.Candle, error) {
	for !a.done {
		candle, err := a.source.GetNext()
		if errors.Is(err, datasource.ErrEof) {
			a.done = true
			break
		}
		if err != nil {
			return common.Candle{}, err
		}

		start := candle.TimeStamp.Truncate(a.period)
		if a.inConstruction == nil {
			a.open(candle, start)
			continue
		}
		if !start.After(a.inConstruction.TimeStamp) {
			a.merge(candle)
			continue
		}

		completed := *a.inConstruction
		a.open(candle, start)
		return completed, nil
	}

	if a.inConstruction == nil {
		return common.Candle{}, datasource.ErrEof
	}
	completed := *a.inConstruction
	a.inConstruction = nil
	return completed, nil
}

func (a *Aggregator) open(candle common.Candle, start time.Time) {
	candle.TimeStamp = start
	a.inConstruction = &candle
}

func (a *Aggregator) merge(candle common.Candle) {
	bar := a.inConstruction
	if candle.High.Gt(bar.High) {
		bar.High = candle.High
	}
	if candle.Low.Lt(bar.Low) {
		bar.Low = candle.Low
	}
	bar.Close = candle.Close
	bar.Volume = bar.Volume.Add(candle.Volume)
}
