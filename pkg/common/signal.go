package common

import (
	"time"

	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// Signal is a long setup proposed by a strategy. A zero Entry means enter at
// market, a zero Stop means no protective exit.
type Signal struct {
	Id        string      `json:"id"`
	Source    string      `json:"source,omitempty"`
	Exchange  string      `json:"exchange"`
	Market    string      `json:"market"`
	TimeStamp time.Time   `json:"ts"`
	Entry     fixed.Point `json:"entry"`
	Target    fixed.Point `json:"target"`
	Stop      fixed.Point `json:"stop"`
	Strength  uint8       `json:"strength,omitempty"`
	Comment   string      `json:"comment,omitempty"`
}
