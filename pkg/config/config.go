package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/peter-kozarec/spotsim/pkg/common"
	"github.com/peter-kozarec/spotsim/pkg/exchange"
	"github.com/peter-kozarec/spotsim/pkg/trader"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

const (
	DataSourceDuckDB    = "duckdb"
	DataSourceCSV       = "csv"
	DataSourceBinary    = "binary"
	DataSourceSynthetic = "synthetic"

	StrategyNone          = ""
	StrategyMeanReversion = "meanReversion"

	defaultEventCapacity = 1000
	envPrefix            = "SPOTSIM_"
)

// Config is the complete description of one backtest run.
type Config struct {
	Exchange   ExchangeConfig       `yaml:"exchange" json:"exchange"`
	DataSource DataSourceConfig     `yaml:"dataSource" json:"dataSource"`
	Strategy   StrategyConfig       `yaml:"strategy" json:"strategy"`
	Trader     trader.Configuration `yaml:"trader" json:"trader"`
	Journal    JournalConfig        `yaml:"journal" json:"journal"`
	Log        LogConfig            `yaml:"log" json:"log"`

	// EventCapacity bounds the router queue.
	EventCapacity int `yaml:"eventCapacity" json:"eventCapacity"`
}

type ExchangeConfig struct {
	Name     string           `yaml:"name" json:"name"`
	Markets  []common.Market  `yaml:"markets" json:"markets"`
	Balances []common.Balance `yaml:"balances" json:"balances"`

	// Slippage enables the random market order slippage of the simulator.
	Slippage          bool  `yaml:"slippage" json:"slippage"`
	Seed              int64 `yaml:"seed" json:"seed"`
	InclusiveTriggers bool  `yaml:"inclusiveTriggers" json:"inclusiveTriggers"`
}

type DataSourceConfig struct {
	Kind   string    `yaml:"kind" json:"kind"`
	Path   string    `yaml:"path" json:"path"`
	Table  string    `yaml:"table" json:"table"`
	Symbol string    `yaml:"symbol" json:"symbol"`
	From   time.Time `yaml:"from" json:"from"`
	To     time.Time `yaml:"to" json:"to"`

	// Period resamples the source candles into longer candles when set.
	Period time.Duration `yaml:"period" json:"period"`

	Synthetic SyntheticConfig `yaml:"synthetic" json:"synthetic"`
}

type SyntheticConfig struct {
	StartPrice fixed.Point   `yaml:"startPrice" json:"startPrice"`
	Interval   time.Duration `yaml:"interval" json:"interval"`
	Drift      float64       `yaml:"drift" json:"drift"`
	Volatility float64       `yaml:"volatility" json:"volatility"`
	Steps      int64         `yaml:"steps" json:"steps"`
	Seed       int64         `yaml:"seed" json:"seed"`
}

type StrategyConfig struct {
	Kind           string        `yaml:"kind" json:"kind"`
	Window         int           `yaml:"window" json:"window"`
	AtrWindow      int           `yaml:"atrWindow" json:"atrWindow"`
	Threshold      fixed.Point   `yaml:"threshold" json:"threshold"`
	StopMultiplier fixed.Point   `yaml:"stopMultiplier" json:"stopMultiplier"`
	Cooldown       time.Duration `yaml:"cooldown" json:"cooldown"`
	ScaleDrawdown  bool          `yaml:"scaleDrawdown" json:"scaleDrawdown"`
}

type JournalConfig struct {
	Path string `yaml:"path" json:"path"`
}

type LogConfig struct {
	Level       string   `yaml:"level" json:"level"`
	Development bool     `yaml:"development" json:"development"`
	Monitor     []string `yaml:"monitor" json:"monitor"`
}

// LoadFromFile reads path as YAML, falling back to JSON, applies environment
// overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = &Config{}
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jsonErr))
		}
	}
	if cfg.EventCapacity == 0 {
		cfg.EventCapacity = defaultEventCapacity
	}
	return cfg, nil
}

// LoadEnv loads variables from an env file into the process environment.
// A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides the paths and the log level from SPOTSIM_* variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(envPrefix + "DATA_PATH"); v != "" {
		c.DataSource.Path = v
	}
	if v := os.Getenv(envPrefix + "JOURNAL_PATH"); v != "" {
		c.Journal.Path = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Exchange.Name == "" {
		return fmt.Errorf("exchange.name is required")
	}
	if len(c.Exchange.Markets) == 0 {
		return fmt.Errorf("exchange.markets requires at least one market")
	}
	for i, market := range c.Exchange.Markets {
		if err := exchange.ValidateMarket(market); err != nil {
			return fmt.Errorf("exchange.markets[%d]: %w", i, err)
		}
	}
	for i, balance := range c.Exchange.Balances {
		if balance.Symbol == "" {
			return fmt.Errorf("exchange.balances[%d].symbol is required", i)
		}
		if balance.Free.IsNeg() {
			return fmt.Errorf("exchange.balances[%d].free must not be negative", i)
		}
	}

	if err := c.validateDataSource(); err != nil {
		return err
	}
	if _, ok := c.Market(c.DataSource.Symbol); !ok {
		return fmt.Errorf("dataSource.symbol %q is not a configured market", c.DataSource.Symbol)
	}

	switch c.Strategy.Kind {
	case StrategyNone:
	case StrategyMeanReversion:
		if c.Strategy.Window < 2 {
			return fmt.Errorf("strategy.window must be at least 2")
		}
	default:
		return fmt.Errorf("unknown strategy.kind %q", c.Strategy.Kind)
	}

	if err := c.Trader.Risk.Validate(); err != nil {
		return fmt.Errorf("trader.risk: %w", err)
	}
	if err := c.Trader.Signal.Validate(); err != nil {
		return fmt.Errorf("trader.signal: %w", err)
	}
	if c.EventCapacity < 0 {
		return fmt.Errorf("eventCapacity must not be negative")
	}
	return nil
}

func (c *Config) validateDataSource() error {
	ds := c.DataSource
	if ds.Symbol == "" {
		return fmt.Errorf("dataSource.symbol is required")
	}
	if ds.Period < 0 {
		return fmt.Errorf("dataSource.period must not be negative")
	}

	switch ds.Kind {
	case DataSourceDuckDB:
		if ds.Table == "" {
			return fmt.Errorf("dataSource.table is required for %s", ds.Kind)
		}
	case DataSourceCSV, DataSourceBinary:
		if ds.Path == "" {
			return fmt.Errorf("dataSource.path is required for %s", ds.Kind)
		}
	case DataSourceSynthetic:
		if !ds.Synthetic.StartPrice.IsPos() {
			return fmt.Errorf("dataSource.synthetic.startPrice must be positive")
		}
		if ds.Synthetic.Interval <= 0 || ds.Synthetic.Steps <= 0 {
			return fmt.Errorf("dataSource.synthetic interval and steps must be positive")
		}
		return nil
	default:
		return fmt.Errorf("unknown dataSource.kind %q", ds.Kind)
	}

	if !ds.To.IsZero() && ds.To.Before(ds.From) {
		return fmt.Errorf("dataSource.to must not be before dataSource.from")
	}
	return nil
}

// Market returns the configured market with the given symbol.
func (c *Config) Market(symbol string) (common.Market, bool) {
	for _, market := range c.Exchange.Markets {
		if market.Symbol == symbol {
			return market, true
		}
	}
	return common.Market{}, false
}

// Window returns the configured time window with an open end replaced by the
// far future.
func (d DataSourceConfig) Window() (time.Time, time.Time) {
	to := d.To
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return d.From, to
}
