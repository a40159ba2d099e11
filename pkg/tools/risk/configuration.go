package risk

import (
	"errors"
	"fmt"

	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

type Configuration struct {
	// Share of the free quote balance committed per position, in percent.
	RiskPercentage fixed.Point `yaml:"riskPercentage" json:"riskPercentage"`

	// Bounds of a single entry in quote currency. Zero disables the bound.
	MinQuoteQuantity fixed.Point `yaml:"minQuoteQuantity" json:"minQuoteQuantity"`
	MaxQuoteQuantity fixed.Point `yaml:"maxQuoteQuantity" json:"maxQuoteQuantity"`

	// Zero means no limit.
	MaxOpenPositions int `yaml:"maxOpenPositions" json:"maxOpenPositions"`
}

func (c Configuration) Validate() error {
	if !c.RiskPercentage.IsPos() || c.RiskPercentage.Gt(fixed.Hundred) {
		return fmt.Errorf("risk percentage must be in (0, 100], got %s", c.RiskPercentage)
	}
	if c.MinQuoteQuantity.IsNeg() || c.MaxQuoteQuantity.IsNeg() {
		return errors.New("quote quantity bounds must not be negative")
	}
	if !c.MaxQuoteQuantity.IsZero() && c.MaxQuoteQuantity.Lt(c.MinQuoteQuantity) {
		return fmt.Errorf("max quote quantity %s is below min quote quantity %s", c.MaxQuoteQuantity, c.MinQuoteQuantity)
	}
	if c.MaxOpenPositions < 0 {
		return fmt.Errorf("max open positions must not be negative, got %d", c.MaxOpenPositions)
	}
	return nil
}
