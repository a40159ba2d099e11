package common

import (
	"github.com/peter-kozarec/spotsim/pkg/utility/fixed"
)

// ExitParam is either a literal decimal or an expression resolved against the
// position context when exits are staged. The zero value is unset.
type ExitParam struct {
	value fixed.Point
	expr  string
	set   bool
}

func Literal(value fixed.Point) ExitParam {
	return ExitParam{value: value, set: true}
}

func Expr(expression string) ExitParam {
	return ExitParam{expr: expression, set: true}
}

func (p ExitParam) IsSet() bool        { return p.set }
func (p ExitParam) IsExpr() bool       { return p.set && p.expr != "" }
func (p ExitParam) Value() fixed.Point { return p.value }
func (p ExitParam) Expression() string { return p.expr }

func (p ExitParam) String() string {
	switch {
	case !p.set:
		return ""
	case p.expr != "":
		return p.expr
	default:
		return p.value.String()
	}
}

func (p ExitParam) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText reads a decimal literal when the text parses as one and an
// expression otherwise.
func (p *ExitParam) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		*p = ExitParam{}
		return nil
	}
	if value, err := fixed.Parse(s); err == nil {
		*p = Literal(value)
		return nil
	}
	*p = Expr(s)
	return nil
}
