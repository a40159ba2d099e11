package indicators

import (
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// Atr is Wilder's average true range over candles.
type Atr struct {
	windowSize int

	lastClose  fixed.Point
	currentAtr fixed.Point
	currentTr  fixed.Point
	samples    int
}

func NewAtr(windowSize int) *Atr {
	return &Atr{windowSize: windowSize}
}

func (a *Atr) OnCandle(c common.Candle) {
	defer func() {
		a.lastClose = c.Close
	}()

	if a.lastClose.IsZero() {
		return
	}

	a.currentTr = fixed.Max(c.High.Sub(c.Low).Abs(),
		fixed.Max(c.High.Sub(a.lastClose).Abs(), c.Low.Sub(a.lastClose).Abs()))

	if a.samples == 0 {
		a.currentAtr = a.currentTr
	} else {
		a.currentAtr = a.currentAtr.MulInt(a.windowSize - 1).Add(a.currentTr).DivInt(a.windowSize)
	}
	a.samples++
}

func (a *Atr) Value() fixed.Point {
	return a.currentAtr
}

func (a *Atr) TrueRange() fixed.Point {
	return a.currentTr
}

// Ready reports whether a full window of true ranges was observed.
func (a *Atr) Ready() bool {
	return a.samples >= a.windowSize
}

func (a *Atr) Reset() {
	*a = Atr{windowSize: a.windowSize}
}
