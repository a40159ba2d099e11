package expression

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

var (
	ErrUnsupportedResult = errors.New("expression result is not a number")
	ErrDivisionByZero    = errors.New("division by zero")
)

// Evaluator resolves a numeric expression against an environment.
type Evaluator interface {
	Evaluate(expression string, env any) (fixed.Point, error)
}

type programKey struct {
	expression string
	env        reflect.Type
}

// ExprEvaluator evaluates expressions with expr-lang. Arithmetic and
// comparisons on fixed.Point operands are overloaded onto decimal operations,
// so decimals in the environment never pass through float64. Compiled
// programs are cached per expression and environment type.
type ExprEvaluator struct {
	mu       sync.Mutex
	programs map[programKey]*vm.Program
}

func NewEvaluator() *ExprEvaluator {
	return &ExprEvaluator{
		programs: make(map[programKey]*vm.Program),
	}
}

func (e *ExprEvaluator) Evaluate(expression string, env any) (fixed.Point, error) {
	program, err := e.compile(expression, env)
	if err != nil {
		return fixed.Zero, err
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return fixed.Zero, fmt.Errorf("unable to run %q: %w", expression, err)
	}

	value, err := toPoint(out)
	if err != nil {
		return fixed.Zero, fmt.Errorf("unable to convert result of %q: %w", expression, err)
	}
	return value, nil
}

func (e *ExprEvaluator) compile(expression string, env any) (*vm.Program, error) {
	key := programKey{expression: expression, env: reflect.TypeOf(env)}

	e.mu.Lock()
	defer e.mu.Unlock()

	if program, ok := e.programs[key]; ok {
		return program, nil
	}

	options := decimalOperators()
	if env != nil {
		options = append(options, expr.Env(env))
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to compile %q: %w", expression, err)
	}
	e.programs[key] = program
	return program, nil
}

func toPoint(v any) (fixed.Point, error) {
	switch value := v.(type) {
	case fixed.Point:
		return value, nil
	case int:
		return fixed.FromInt(value, 0), nil
	case int64:
		return fixed.FromInt64(value, 0), nil
	case float64:
		return literal(value)
	case string:
		return fixed.Parse(value)
	default:
		return fixed.Zero, fmt.Errorf("%w: %T", ErrUnsupportedResult, v)
	}
}

// literal converts a float written in an expression to the shortest decimal
// that reads back as the same float, which is the literal as written.
func literal(value float64) (fixed.Point, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fixed.Zero, fmt.Errorf("%w: %v", ErrUnsupportedResult, value)
	}
	return fixed.Parse(strconv.FormatFloat(value, 'f', -1, 64))
}
