package strategy

import (
	"context"
	"fmt"

	"github.com/peter-kozarec/spotsim/pkg/bus"
	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/indicators"
	"github.com/peter-kozarec/spotsim/pkg/utility"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"go.uber.org/zap"
)

const meanReversionComponentName = "strategy.reversion"

var (
	defaultThreshold      = fixed.Two
	defaultStopMultiplier = fixed.Two
	strengthPerDeviation  = fixed.FromInt(25, 0)
)

type Poster interface {
	Post(id bus.EventId, data any) error
}

// MeanReversion buys closes that are stretched below their rolling mean and
// targets the mean. One signal is emitted per excursion below the threshold.
type MeanReversion struct {
	logger *zap.Logger
	poster Poster

	exchange string
	market   string

	threshold      fixed.Point
	stopMultiplier fixed.Point
	atrWindow      int

	zScore *indicators.ZScore
	atr    *indicators.Atr
	armed  bool
}

func NewMeanReversion(poster Poster, exchange, market string, window int, options ...Option) *MeanReversion {
	m := &MeanReversion{
		logger:         zap.NewNop(),
		poster:         poster,
		exchange:       exchange,
		market:         market,
		threshold:      defaultThreshold,
		stopMultiplier: defaultStopMultiplier,
		atrWindow:      window,
		zScore:         indicators.NewZScore(window),
		armed:          true,
	}

	for _, option := range options {
		option(m)
	}

	m.atr = indicators.NewAtr(m.atrWindow)
	return m
}

func (m *MeanReversion) OnCandle(_ context.Context, candle common.Candle) {
	if candle.Symbol != "" && candle.Symbol != m.market {
		return
	}

	m.atr.OnCandle(candle)
	m.zScore.Add(candle.Close)

	z, err := m.zScore.Value()
	if err != nil || !m.atr.Ready() {
		return
	}

	if z.Gt(m.threshold.Neg()) {
		m.armed = true
		return
	}
	if !m.armed {
		return
	}

	stop := candle.Close.Sub(m.atr.Value().Mul(m.stopMultiplier))
	if !stop.IsPos() {
		return
	}

	signal := common.Signal{
		Id:        utility.NewID(),
		Source:    meanReversionComponentName,
		Exchange:  m.exchange,
		Market:    m.market,
		TimeStamp: candle.TimeStamp,
		Entry:     candle.Close,
		Target:    m.zScore.Mean(),
		Stop:      stop,
		Strength:  strength(z),
		Comment:   fmt.Sprintf("z-score: %s", z.RoundDown(4)),
	}

	if err := m.poster.Post(bus.SignalEvent, signal); err != nil {
		m.logger.Warn("unable to post signal", zap.Error(err))
		return
	}
	m.armed = false

	m.logger.Debug("signal posted",
		zap.String("signal_id", signal.Id),
		zap.String("entry", signal.Entry.String()),
		zap.String("target", signal.Target.String()),
		zap.String("stop", signal.Stop.String()))
}

// strength maps the depth of the excursion to 0..100, four deviations being
// full conviction.
func strength(z fixed.Point) uint8 {
	s := z.Abs().Mul(strengthPerDeviation)
	if s.Gte(fixed.Hundred) {
		return 100
	}
	f, _ := s.RoundDown(0).Float64()
	return uint8(f)
}
