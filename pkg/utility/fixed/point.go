package fixed

import (
	"github.com/govalues/decimal"
)

// Point is an unsafe wrapper around decimal implementation. Caller must make sure the calculations
// are correct and will not result in an error state, otherwise it will panic
type Point struct {
	v decimal.Decimal
}

func FromInt(value int, scale int) Point {
	return Point{must(decimal.New(int64(value), scale))}
}

func FromInt64(value int64, scale int) Point {
	return Point{must(decimal.New(value, scale))}
}

func FromFloat64(value float64) Point {
	return Point{must(decimal.NewFromFloat64(value))}
}

// Parse returns the point represented by the canonical decimal string s.
func Parse(s string) (Point, error) {
	d, err := decimal.Parse(s)
	if err != nil {
		return Point{}, err
	}
	return Point{d}, nil
}

func MustParse(s string) Point {
	return Point{must(decimal.Parse(s))}
}

func Sum(points ...Point) Point {
	sum := Zero
	for _, point := range points {
		sum = sum.Add(point)
	}
	return sum
}

func Min(a, b Point) Point {
	if a.Lt(b) {
		return a
	}
	return b
}

func Max(a, b Point) Point {
	if a.Gt(b) {
		return a
	}
	return b
}

// String returns the canonical decimal form without trailing zeros.
func (p Point) String() string { return p.v.Trim(0).String() }

func (p Point) Float64() (float64, bool) { return p.v.Float64() }

func (p Point) Abs() Point { return Point{p.v.Abs()} }
func (p Point) Neg() Point { return Point{p.v.Neg()} }

func (p Point) Add(o Point) Point { return Point{must(p.v.Add(o.v))} }
func (p Point) Sub(o Point) Point { return Point{must(p.v.Sub(o.v))} }
func (p Point) Mul(o Point) Point { return Point{must(p.v.Mul(o.v))} }
func (p Point) Div(o Point) Point { return Point{must(p.v.Quo(o.v))} }

func (p Point) MulInt(o int) Point { return Point{must(p.v.Mul(decimal.MustNew(int64(o), 0)))} }
func (p Point) DivInt(o int) Point { return Point{must(p.v.Quo(decimal.MustNew(int64(o), 0)))} }

func (p Point) Eq(o Point) bool  { return p.v.Cmp(o.v) == 0 }
func (p Point) Gt(o Point) bool  { return p.v.Cmp(o.v) > 0 }
func (p Point) Lt(o Point) bool  { return p.v.Cmp(o.v) < 0 }
func (p Point) Gte(o Point) bool { return p.v.Cmp(o.v) >= 0 }
func (p Point) Lte(o Point) bool { return p.v.Cmp(o.v) <= 0 }

func (p Point) IsZero() bool { return p.v.IsZero() }
func (p Point) IsNeg() bool  { return p.v.IsNeg() }
func (p Point) IsPos() bool  { return p.v.IsPos() }

// Between reports whether p lies inside the open interval (low, high).
func (p Point) Between(low, high Point) bool { return p.Gt(low) && p.Lt(high) }

// Within reports whether p lies inside the closed interval [low, high].
func (p Point) Within(low, high Point) bool { return p.Gte(low) && p.Lte(high) }

func (p Point) Rescale(scale int) Point { return Point{p.v.Rescale(scale)} }

// RoundDown truncates p toward zero to the given number of decimal places.
func (p Point) RoundDown(scale int) Point { return Point{p.v.Trunc(scale)} }

// RoundUp rounds p toward positive infinity to the given number of decimal places.
func (p Point) RoundUp(scale int) Point { return Point{p.v.Ceil(scale)} }

func (p Point) Sqrt() Point { return Point{must(p.v.Sqrt())} }

func (p Point) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Point) UnmarshalText(text []byte) error {
	d, err := decimal.Parse(string(text))
	if err != nil {
		return err
	}
	p.v = d
	return nil
}

func must(v decimal.Decimal, err error) decimal.Decimal {
	if err == nil {
		// Return in the happy path
		return v
	}
	panic(err)
}
