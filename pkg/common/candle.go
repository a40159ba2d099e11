package common

import (
	"time"

	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

type Candle struct {
	Symbol    string      `json:"symbol,omitempty"`
	TimeStamp time.Time   `json:"ts"`
	Open      fixed.Point `json:"open"`
	High      fixed.Point `json:"high"`
	Low       fixed.Point `json:"low"`
	Close     fixed.Point `json:"close"`
	Volume    fixed.Point `json:"volume"`
}
