package common

import (
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// Balance is the ledger row of one asset. Total always equals Free + Used.
type Balance struct {
	Symbol string      `json:"symbol" yaml:"symbol"`
	Free   fixed.Point `json:"free" yaml:"free"`
	Used   fixed.Point `json:"used" yaml:"used"`
	Total  fixed.Point `json:"total" yaml:"total"`
}
