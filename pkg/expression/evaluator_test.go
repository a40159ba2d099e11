package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

type testPosition struct {
	AveragePrice fixed.Point `expr:"averagePrice"`
	BaseQuantity fixed.Point `expr:"baseQuantity"`
}

type testEntry struct {
	AveragePrice    fixed.Point `expr:"averagePrice"`
	BaseQuantityNet fixed.Point `expr:"baseQuantityNet"`
}

type testEnv struct {
	Position testPosition `expr:"position"`
	Entries  []testEntry  `expr:"entries"`
}

func p(s string) fixed.Point {
	return fixed.MustParse(s)
}

func createTestEnv() testEnv {
	return testEnv{
		Position: testPosition{AveragePrice: p("3"), BaseQuantity: p("99.9")},
		Entries:  []testEntry{{AveragePrice: p("0.2"), BaseQuantityNet: p("49.95")}},
	}
}

func TestExprEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		expression string
		want       string
	}{
		{"10", "10"},
		{"1.5 * 2", "3"},
		{"position.averagePrice * 0.7", "2.1"},
		{"0.7 * position.averagePrice", "2.1"},
		{"entries[0].averagePrice + 0.1", "0.3"},
		{"position.averagePrice - entries[0].averagePrice", "2.8"},
		{"position.baseQuantity / 2", "49.95"},
		{"position.averagePrice * 1.05 - 0.15", "3"},
		{"position.averagePrice > 2 ? position.averagePrice * 0.9 : position.averagePrice", "2.7"},
		{"position.averagePrice == 3 ? 1 : 0", "1"},
		{`"42.5"`, "42.5"},
	}

	e := NewEvaluator()
	env := createTestEnv()
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			got, err := e.Evaluate(tt.expression, env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestExprEvaluator_DecimalOperandsStayExact(t *testing.T) {
	e := NewEvaluator()
	env := createTestEnv()

	// 3 * 0.7 is 2.0999999999999996 in float64.
	got, err := e.Evaluate("position.averagePrice * 0.7", env)
	require.NoError(t, err)
	assert.True(t, got.Eq(p("2.1")), "got %s", got)
	assert.Equal(t, "2.1", got.RoundDown(2).String())
}

func TestExprEvaluator_Errors(t *testing.T) {
	e := NewEvaluator()
	env := createTestEnv()

	_, err := e.Evaluate("position.averagePrice >", env)
	assert.Error(t, err)

	_, err = e.Evaluate("entries[0].missing * 2", env)
	assert.Error(t, err)

	_, err = e.Evaluate("position.averagePrice > 1", env)
	assert.ErrorIs(t, err, ErrUnsupportedResult)

	_, err = e.Evaluate("position.averagePrice / 0", env)
	assert.ErrorContains(t, err, ErrDivisionByZero.Error())

	_, err = e.Evaluate(`"abc"`, nil)
	assert.Error(t, err)
}

func TestExprEvaluator_CachesPrograms(t *testing.T) {
	e := NewEvaluator()

	for i := 0; i < 3; i++ {
		_, err := e.Evaluate("1 + 1", nil)
		require.NoError(t, err)
		_, err = e.Evaluate("1 + 1", createTestEnv())
		require.NoError(t, err)
	}
	assert.Len(t, e.programs, 2)
}
