package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedRow         = errors.New("malformed row")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrIO                   = errors.New("cannot read source")
	ErrSystemCategory       = errors.New("system category cannot be deleted")
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
)

// RowError ties a row-scoped failure to the physical line it came from.
type RowError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "line %d", e.Line)
	if e.Field != "" {
		fmt.Fprintf(&b, ", field %s", e.Field)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " (%q)", e.Value)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *RowError) Unwrap() error { return e.Err }
