package signal

import (
	"fmt"

	"github.com/peter-kozarec/spotsim/pkg/common"
)

type Configuration struct {
	// Exchange is used for signals that do not name one.
	Exchange string `yaml:"exchange" json:"exchange"`

	// EntryType is MARKET or LIMIT. LIMIT entries rest at the signal entry
	// price and fall back to MARKET when the signal has none.
	EntryType common.OrderType `yaml:"entryType" json:"entryType"`

	// TakeProfit and StopLoss are exit expressions used when a signal has no
	// target or stop, for example "position.averagePrice * 1.02".
	TakeProfit string `yaml:"takeProfit" json:"takeProfit"`
	StopLoss   string `yaml:"stopLoss" json:"stopLoss"`
}

func (c Configuration) Validate() error {
	switch c.EntryType {
	case "", common.OrderTypeMarket, common.OrderTypeLimit:
		return nil
	default:
		return fmt.Errorf("entry type %q is not supported, use %s or %s", c.EntryType, common.OrderTypeMarket, common.OrderTypeLimit)
	}
}
