package indicators

import (
	"errors"

	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

var ErrNotReady = errors.New("not enough data")

type ZScore struct {
	data *fixed.RingBuffer
}

func NewZScore(windowSize int) *ZScore {
	return &ZScore{
		data: fixed.NewRingBuffer(windowSize),
	}
}

func (z *ZScore) Add(p fixed.Point) {
	z.data.Add(p)
}

// Value returns how many sample deviations the latest point is from the
// window mean. A flat window has a z-score of zero.
func (z *ZScore) Value() (fixed.Point, error) {
	if !z.IsReady() {
		return fixed.Zero, ErrNotReady
	}

	stdDev := z.data.SampleStdDev()
	if stdDev.IsZero() {
		return fixed.Zero, nil
	}
	return z.data.Latest().Sub(z.data.Mean()).Div(stdDev), nil
}

func (z *ZScore) Mean() fixed.Point {
	return z.data.Mean()
}

func (z *ZScore) StdDev() fixed.Point {
	return z.data.SampleStdDev()
}

func (z *ZScore) IsReady() bool {
	return z.data.IsFull()
}
