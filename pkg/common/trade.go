package common

import (
	"time"

	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

type Fee struct {
	Currency string      `json:"currency"`
	Cost     fixed.Point `json:"cost"`
}

type Trade struct {
	Id        string    `json:"id"`
	ForeignId string    `json:"foreignId"`
	TimeStamp time.Time `json:"ts"`

	BaseQuantityGross  fixed.Point `json:"baseQuantityGross"`
	BaseQuantityNet    fixed.Point `json:"baseQuantityNet"`
	QuoteQuantityGross fixed.Point `json:"quoteQuantityGross"`
	QuoteQuantityNet   fixed.Point `json:"quoteQuantityNet"`
	Price              fixed.Point `json:"price"`
	Fee                Fee         `json:"fee"`
}
