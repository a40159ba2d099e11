package datasource

import (
	"errors"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
)

var ErrEof = errors.New("EOF")

type CandleDataSource interface {
	GetNext() (common.Candle, error)
}

type Poster interface {
	Post(id bus.EventId, data any) error
}

// CreateCandleDispatcher returns a callback for bus.Router.ExecLoop that posts
// the next candle of ds on every call.
func CreateCandleDispatcher(r Poster, ds CandleDataSource) func() error {
	return func() error {
		var candle common.Candle
		var err error

		if candle, err = ds.GetNext(); err != nil {
			return err
		}
		if err = r.Post(bus.CandleEvent, candle); err != nil {
			return err
		}
		return nil
	}
}

// Candles serves a fixed series of candles in order.
type Candles struct {
	candles []common.Candle
	idx     int
}

func NewCandles(candles []common.Candle) *Candles {
	return &Candles{candles: candles}
}

func (c *Candles) GetNext() (common.Candle, error) {
	if c.idx >= len(c.candles) {
		return common.Candle{}, ErrEof
	}
	candle := c.candles[c.idx]
	c.idx++
	return candle, nil
}

func (c *Candles) Len() int {
	return len(c.candles)
}
