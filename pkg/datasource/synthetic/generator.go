package synthetic

import (
	"math"
	"math/rand"
	"time"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/datasource"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

var ErrEof = datasource.ErrEof

// CandleGenerator produces candles whose closes follow a geometric Brownian
// motion. The same seed always yields the same series.
type CandleGenerator struct {
	symbol string
	rng    *rand.Rand

	interval time.Duration
	steps    int64
	t        int64

	drift      float64
	volatility float64
	wick       float64
	avgVolume  float64

	priceDigits  int
	volumeDigits int

	lastTime  time.Time
	lastClose float64
}

// NewCandleGenerator returns a generator of steps candles of the given
// interval. mu and sigma are the drift and volatility per candle.
func NewCandleGenerator(symbol string, rng *rand.Rand, startTime time.Time, startPrice fixed.Point, interval time.Duration, mu, sigma float64, steps int64) *CandleGenerator {
	start, _ := startPrice.Float64()
	return &CandleGenerator{
		symbol:       symbol,
		rng:          rng,
		interval:     interval,
		steps:        steps,
		drift:        mu - sigma*sigma/2,
		volatility:   sigma,
		wick:         sigma / 2,
		avgVolume:    1,
		priceDigits:  2,
		volumeDigits: 4,
		lastTime:     startTime,
		lastClose:    start,
	}
}

func (g *CandleGenerator) SetDigits(priceDigits, volumeDigits int) {
	g.priceDigits = priceDigits
	g.volumeDigits = volumeDigits
}

func (g *CandleGenerator) SetAverageVolume(avgVolume float64) {
	g.avgVolume = avgVolume
}

func (g *CandleGenerator) GetNext() (common.Candle, error) {
	if g.t >= g.steps {
		return common.Candle{}, ErrEof
	}

	open := g.lastClose
	closePrice := open * math.Exp(g.drift+g.volatility*g.rng.NormFloat64())
	high := math.Max(open, closePrice) * (1 + math.Abs(g.rng.NormFloat64())*g.wick)
	low := math.Min(open, closePrice) * (1 - math.Min(math.Abs(g.rng.NormFloat64())*g.wick, 0.5))
	volume := g.avgVolume * math.Exp(g.rng.NormFloat64()*0.5)

	candle := common.Candle{
		Symbol:    g.symbol,
		TimeStamp: g.lastTime,
		Open:      g.price(open),
		High:      g.price(high),
		Low:       g.price(low),
		Close:     g.price(closePrice),
		Volume:    fixed.FromFloat64(volume).RoundDown(g.volumeDigits),
	}

	g.lastClose = closePrice
	g.lastTime = g.lastTime.Add(g.interval)
	g.t++

	return candle, nil
}

func (g *CandleGenerator) price(v float64) fixed.Point {
	return fixed.FromFloat64(v).RoundDown(g.priceDigits)
}
