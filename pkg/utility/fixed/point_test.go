package fixed

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedPoint_FromInt64(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		scale int
		want  string
	}{
		{"zero", 0, 0, "0"},
		{"positive", 123, 0, "123"},
		{"negative", -456, 0, "-456"},
		{"with scale", 123, 2, "1.23"},
		{"negative with scale", -456, 3, "-0.456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromInt64(tt.value, tt.scale).String())
		})
	}
}

func TestFixedPoint_FromFloat64Panics(t *testing.T) {
	assert.Panics(t, func() { FromFloat64(math.NaN()) })
}

func TestFixedPoint_Parse(t *testing.T) {
	p, err := Parse("100000.25")
	require.NoError(t, err)
	assert.Equal(t, "100000.25", p.String())

	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestFixedPoint_Arithmetic(t *testing.T) {
	a := MustParse("12.34")
	b := MustParse("56.78")

	assert.Equal(t, "69.12", a.Add(b).String())
	assert.Equal(t, "-44.44", a.Sub(b).String())
	assert.Equal(t, "3.75", MustParse("1.5").Mul(MustParse("2.5")).String())
	assert.Equal(t, "2.5", MustParse("10").Div(MustParse("4")).String())
	assert.Equal(t, "-12.34", a.Neg().String())
	assert.Equal(t, "12.34", a.Neg().Abs().String())
	assert.Panics(t, func() { One.Div(Zero) })
}

func TestFixedPoint_RoundDown(t *testing.T) {
	tests := []struct {
		value string
		scale int
		want  string
	}{
		{"1.23456", 2, "1.23"},
		{"1.23956", 2, "1.23"},
		{"99.99999", 0, "99"},
		{"0.0009", 3, "0"},
		{"2.10", 2, "2.1"},
		{"1.5", 4, "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.value).RoundDown(tt.scale).String())
		})
	}
}

func TestFixedPoint_RoundUp(t *testing.T) {
	tests := []struct {
		value string
		scale int
		want  string
	}{
		{"1.23456", 2, "1.24"},
		{"1.23000", 2, "1.23"},
		{"99.00001", 0, "100"},
		{"0.0001", 3, "0.001"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.value).RoundUp(tt.scale).String())
		})
	}
}

func TestFixedPoint_Comparisons(t *testing.T) {
	low, mid, high := MustParse("0.9"), MustParse("1"), MustParse("1.1")

	assert.True(t, mid.Between(low, high))
	assert.False(t, low.Between(low, high))
	assert.False(t, high.Between(low, high))
	assert.True(t, low.Within(low, high))
	assert.True(t, high.Within(low, high))
	assert.True(t, MustParse("1.00").Eq(One))
	assert.True(t, Min(low, high).Eq(low))
	assert.True(t, Max(low, high).Eq(high))
	assert.True(t, low.IsPos())
	assert.True(t, low.Neg().IsNeg())
}

func TestFixedPoint_Sum(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.Equal(t, "6.5", Sum(One, Two, MustParse("3.5")).String())
}

func TestFixedPoint_JSON(t *testing.T) {
	type wrapper struct {
		Value Point `json:"value"`
	}

	out, err := json.Marshal(wrapper{Value: MustParse("99.9")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"99.9"}`, string(out))

	var in wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"value":"0.001"}`), &in))
	assert.Equal(t, "0.001", in.Value.String())
}
