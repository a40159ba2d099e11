package common

import (
	"encoding/json"
	"testing"

	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitParam_UnmarshalText(t *testing.T) {
	tests := []struct {
		text    string
		set     bool
		isExpr  bool
		literal string
	}{
		{"", false, false, "0"},
		{"10.5", true, false, "10.5"},
		{"entries[0].averagePrice * 1.05", true, true, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var p ExitParam
			require.NoError(t, p.UnmarshalText([]byte(tt.text)))
			assert.Equal(t, tt.set, p.IsSet())
			assert.Equal(t, tt.isExpr, p.IsExpr())
			assert.True(t, p.Value().Eq(fixed.MustParse(tt.literal)))
			assert.Equal(t, tt.text, p.String())
		})
	}
}

func TestExitSpec_JSON(t *testing.T) {
	spec := ExitSpec{
		Id:        "tp",
		Type:      OrderTypeLimit,
		Price:     Expr("position.averagePrice * 1.1"),
		StopPrice: Literal(fixed.MustParse("0.95")),
	}

	out, err := json.Marshal(spec)
	require.NoError(t, err)

	var back ExitSpec
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, spec, back)
	assert.False(t, back.BaseQuantity.IsSet())
}

func TestOrder_Refresh(t *testing.T) {
	exchangeOrder := ExchangeOrder{
		Id:              "x1",
		Status:          OrderStatusFilled,
		Side:            OrderSideBuy,
		Type:            OrderTypeMarket,
		BaseQuantityNet: fixed.MustParse("99.9"),
		Trades:          []Trade{{Id: "t1", ForeignId: "x1"}},
	}

	order := Order{Id: "o1", ForeignId: "x1"}
	order.Refresh(exchangeOrder)

	assert.Equal(t, OrderStatusFilled, order.Status)
	assert.Equal(t, "99.9", order.BaseQuantityNet.String())
	require.Len(t, order.Trades, 1)

	exchangeOrder.Trades[0].Id = "mutated"
	assert.Equal(t, "t1", order.Trades[0].Id)
}

func TestPosition_Clone(t *testing.T) {
	win := true
	position := Position{
		Id:     "p1",
		Win:    &win,
		Orders: []Order{{Id: "o1", Trades: []Trade{{Id: "t1"}}}},
	}

	clone := position.Clone()
	clone.Orders[0].Trades[0].Id = "t2"
	*clone.Win = false

	assert.Equal(t, "t1", position.Orders[0].Trades[0].Id)
	assert.True(t, *position.Win)
}
