package exchange

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindRequired            ErrorKind = "required"
	KindNumberMin           ErrorKind = "numberMin"
	KindOrRequired          ErrorKind = "orRequired"
	KindMinimumLimit        ErrorKind = "minimumLimit"
	KindMaximumLimit        ErrorKind = "maximumLimit"
	KindDoesNotExist        ErrorKind = "doesNotExist"
	KindInsufficientBalance ErrorKind = "insufficientBalance"
	KindSupportsOnly        ErrorKind = "supportsOnly"
	KindInvalid             ErrorKind = "invalid"
)

var (
	ErrSimulationNotReady = errors.New("simulation is not ready, tick and candle must be set")
	ErrOrderNotFound      = errors.New("order not found")
)

// ValidationError reports a rejected field before any state was changed.
type ValidationError struct {
	Field   string
	Kind    ErrorKind
	Message string
}

func NewValidationError(field string, kind ErrorKind, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Kind)
}

// Is matches another ValidationError by kind, and by field when the target names one.
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	if t.Field != "" && t.Field != e.Field {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first ValidationError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var v *ValidationError
	if !errors.As(err, &v) {
		return "", false
	}
	return v.Kind, true
}

// IsLimitError reports whether err was caused by a market amount or cost limit.
func IsLimitError(err error) bool {
	kind, ok := KindOf(err)
	return ok && (kind == KindMinimumLimit || kind == KindMaximumLimit)
}
