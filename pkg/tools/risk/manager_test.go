package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/exchange"
	"github.com/peter-kozarec/spotsim/pkg/exchange/sandbox"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

var testTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func p(s string) fixed.Point {
	return fixed.MustParse(s)
}

func testMarket() common.Market {
	return common.Market{
		Symbol:    "BTC/USDT",
		Base:      "BTC",
		Quote:     "USDT",
		Fees:      common.MarketFees{Maker: p("0.001"), Taker: p("0.001")},
		Precision: common.MarketPrecision{Base: 8, Price: 2, Quote: 2, Amount: 6},
	}
}

func createTestSimulator(t *testing.T, market common.Market, usdt, btc string) *sandbox.Simulator {
	t.Helper()

	sim, err := sandbox.NewSimulator("sandbox",
		sandbox.WithMarkets(market),
		sandbox.WithBalances(
			common.Balance{Symbol: "BTC", Free: p(btc)},
			common.Balance{Symbol: "USDT", Free: p(usdt)},
		),
	)
	require.NoError(t, err)
	sim.SetTick(p("100"))
	return sim
}

func testConfiguration() Configuration {
	return Configuration{RiskPercentage: p("2")}
}

func testSignal() common.Signal {
	return common.Signal{
		Id:        "signal-1",
		Exchange:  "sandbox",
		Market:    "BTC/USDT",
		TimeStamp: testTime,
	}
}

func TestRiskConfiguration_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Configuration
		wantErr bool
	}{
		{"valid", testConfiguration(), false},
		{"zero risk", Configuration{}, true},
		{"risk above hundred", Configuration{RiskPercentage: p("101")}, true},
		{"negative min", Configuration{RiskPercentage: p("1"), MinQuoteQuantity: p("-1")}, true},
		{"max below min", Configuration{RiskPercentage: p("1"), MinQuoteQuantity: p("10"), MaxQuoteQuantity: p("5")}, true},
		{"negative max open positions", Configuration{RiskPercentage: p("1"), MaxOpenPositions: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRiskManager_NewManagerRejectsInvalidConfiguration(t *testing.T) {
	sim := createTestSimulator(t, testMarket(), "10000", "0")

	_, err := NewManager(sim, Configuration{})
	assert.Error(t, err)
}

func TestRiskManager_QuoteQuantity(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Configuration
		limits  common.MarketLimits
		usdt    string
		signal  func(common.Signal) common.Signal
		options []Option
		want    string
	}{
		{
			name: "share of free quote",
			cfg:  testConfiguration(),
			usdt: "10000",
			want: "200",
		},
		{
			name: "scaled by signal strength",
			cfg:  testConfiguration(),
			usdt: "10000",
			signal: func(s common.Signal) common.Signal {
				s.Strength = 75
				return s
			},
			want: "140",
		},
		{
			name: "scaled by risk reward ratio",
			cfg:  testConfiguration(),
			usdt: "10000",
			signal: func(s common.Signal) common.Signal {
				s.Entry = p("100")
				s.Stop = p("99")
				s.Target = p("103")
				return s
			},
			want: "280",
		},
		{
			name:    "scaled by drawdown",
			cfg:     testConfiguration(),
			usdt:    "10000",
			options: []Option{WithDefaultDrawdownMultiplier()},
			want:    "240",
		},
		{
			name: "capped by configuration",
			cfg:  Configuration{RiskPercentage: p("2"), MaxQuoteQuantity: p("150")},
			usdt: "10000",
			want: "150",
		},
		{
			name:   "raised to market minimum cost",
			cfg:    testConfiguration(),
			limits: common.MarketLimits{Cost: common.Range{Min: p("500")}},
			usdt:   "10000",
			want:   "500",
		},
		{
			name: "rounded down to quote precision",
			cfg:  Configuration{RiskPercentage: p("1")},
			usdt: "1234.567",
			want: "12.34",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			market := testMarket()
			market.Limits = tt.limits
			sim := createTestSimulator(t, market, tt.usdt, "0")

			m, err := NewManager(sim, tt.cfg, tt.options...)
			require.NoError(t, err)

			signal := testSignal()
			if tt.signal != nil {
				signal = tt.signal(signal)
			}

			got, err := m.QuoteQuantity(signal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestRiskManager_QuoteQuantityErrors(t *testing.T) {
	t.Run("unknown market", func(t *testing.T) {
		sim := createTestSimulator(t, testMarket(), "10000", "0")
		m, err := NewManager(sim, testConfiguration())
		require.NoError(t, err)

		signal := testSignal()
		signal.Market = "ETH/USDT"
		_, err = m.QuoteQuantity(signal)
		assert.Equal(t, exchange.KindDoesNotExist, kindOf(t, err))
	})

	t.Run("no free quote", func(t *testing.T) {
		sim := createTestSimulator(t, testMarket(), "0", "0")
		m, err := NewManager(sim, testConfiguration())
		require.NoError(t, err)

		_, err = m.QuoteQuantity(testSignal())
		assert.Equal(t, exchange.KindInsufficientBalance, kindOf(t, err))
	})

	t.Run("weak signal", func(t *testing.T) {
		sim := createTestSimulator(t, testMarket(), "10000", "0")
		m, err := NewManager(sim, testConfiguration())
		require.NoError(t, err)

		signal := testSignal()
		signal.Strength = 10
		_, err = m.QuoteQuantity(signal)
		assert.ErrorIs(t, err, ErrZeroSize)
	})

	t.Run("below market minimum cost", func(t *testing.T) {
		market := testMarket()
		market.Limits.Cost.Min = p("500")
		sim := createTestSimulator(t, market, "100", "0")
		m, err := NewManager(sim, testConfiguration())
		require.NoError(t, err)

		_, err = m.QuoteQuantity(testSignal())
		assert.True(t, exchange.IsLimitError(err))
	})
}

func TestRiskManager_MaxOpenPositions(t *testing.T) {
	sim := createTestSimulator(t, testMarket(), "10000", "0")
	m, err := NewManager(sim, Configuration{RiskPercentage: p("2"), MaxOpenPositions: 1})
	require.NoError(t, err)

	position := common.Position{Id: "pos-1", Market: "BTC/USDT", Status: common.PositionStatusOpen, CreatedAt: testTime}
	m.OnPositionOpened(context.Background(), position)
	assert.Equal(t, 1, m.OpenPositions())

	_, err = m.QuoteQuantity(testSignal())
	assert.ErrorIs(t, err, ErrMaxOpenPositions)

	position.Status = common.PositionStatusClosed
	m.OnPositionUpdated(context.Background(), position)
	assert.Zero(t, m.OpenPositions())

	_, err = m.QuoteQuantity(testSignal())
	assert.NoError(t, err)
}

func TestRiskManager_Cooldown(t *testing.T) {
	sim := createTestSimulator(t, testMarket(), "10000", "0")
	m, err := NewManager(sim, testConfiguration(), WithOneHourCooldown())
	require.NoError(t, err)

	m.OnPositionOpened(context.Background(), common.Position{Id: "pos-1", Status: common.PositionStatusOpen, CreatedAt: testTime})

	signal := testSignal()
	signal.TimeStamp = testTime.Add(30 * time.Minute)
	_, err = m.QuoteQuantity(signal)
	assert.ErrorIs(t, err, ErrCooldown)

	signal.TimeStamp = testTime.Add(2 * time.Hour)
	_, err = m.QuoteQuantity(signal)
	assert.NoError(t, err)
}

func TestRiskManager_Drawdown(t *testing.T) {
	sim := createTestSimulator(t, testMarket(), "10000", "10")
	m, err := NewManager(sim, testConfiguration())
	require.NoError(t, err)

	assert.True(t, m.Drawdown("BTC/USDT").IsZero())

	sim.SetTick(p("45"))
	assert.Equal(t, "5", m.Drawdown("BTC/USDT").String())

	sim.SetTick(p("200"))
	assert.True(t, m.Drawdown("BTC/USDT").IsZero())
	assert.True(t, m.Drawdown("ETH/USDT").IsZero())
}

func kindOf(t *testing.T, err error) exchange.ErrorKind {
	t.Helper()
	kind, ok := exchange.KindOf(err)
	require.True(t, ok, "expected validation error, got %v", err)
	return kind
}
