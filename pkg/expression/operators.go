package expression

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

type arithmetic func(a, b fixed.Point) (fixed.Point, error)
type comparison func(a, b fixed.Point) bool

// Operand pairs an overload accepts. Literals in expressions are int or
// float64; at least one side is a decimal so plain literal arithmetic keeps
// the built-in operators.
var (
	arithmeticTypes = []any{
		new(func(fixed.Point, fixed.Point) fixed.Point),
		new(func(fixed.Point, int) fixed.Point),
		new(func(int, fixed.Point) fixed.Point),
		new(func(fixed.Point, float64) fixed.Point),
		new(func(float64, fixed.Point) fixed.Point),
	}
	comparisonTypes = []any{
		new(func(fixed.Point, fixed.Point) bool),
		new(func(fixed.Point, int) bool),
		new(func(int, fixed.Point) bool),
		new(func(fixed.Point, float64) bool),
		new(func(float64, fixed.Point) bool),
	}
)

func decimalOperators() []expr.Option {
	arithmetics := []struct {
		operator string
		name     string
		fn       arithmetic
	}{
		{"+", "decimalAdd", func(a, b fixed.Point) (fixed.Point, error) { return a.Add(b), nil }},
		{"-", "decimalSub", func(a, b fixed.Point) (fixed.Point, error) { return a.Sub(b), nil }},
		{"*", "decimalMul", func(a, b fixed.Point) (fixed.Point, error) { return a.Mul(b), nil }},
		{"/", "decimalDiv", func(a, b fixed.Point) (fixed.Point, error) {
			if b.IsZero() {
				return fixed.Zero, ErrDivisionByZero
			}
			return a.Div(b), nil
		}},
	}
	comparisons := []struct {
		operator string
		name     string
		fn       comparison
	}{
		{"<", "decimalLt", fixed.Point.Lt},
		{"<=", "decimalLte", fixed.Point.Lte},
		{">", "decimalGt", fixed.Point.Gt},
		{">=", "decimalGte", fixed.Point.Gte},
		{"==", "decimalEq", fixed.Point.Eq},
	}

	var options []expr.Option
	for _, a := range arithmetics {
		fn := a.fn
		options = append(options,
			expr.Function(a.name, func(params ...any) (any, error) {
				x, y, err := operands(params)
				if err != nil {
					return nil, err
				}
				return fn(x, y)
			}, arithmeticTypes...),
			expr.Operator(a.operator, a.name))
	}
	for _, c := range comparisons {
		fn := c.fn
		options = append(options,
			expr.Function(c.name, func(params ...any) (any, error) {
				x, y, err := operands(params)
				if err != nil {
					return nil, err
				}
				return fn(x, y), nil
			}, comparisonTypes...),
			expr.Operator(c.operator, c.name))
	}
	return options
}

func operands(params []any) (fixed.Point, fixed.Point, error) {
	if len(params) != 2 {
		return fixed.Zero, fixed.Zero, fmt.Errorf("expected 2 operands, got %d", len(params))
	}
	a, err := toPoint(params[0])
	if err != nil {
		return fixed.Zero, fixed.Zero, err
	}
	b, err := toPoint(params[1])
	if err != nil {
		return fixed.Zero, fixed.Zero, err
	}
	return a, b, nil
}
