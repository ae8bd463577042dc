package taxcalc

import (
	"errors"
	"fmt"
)

var (
	// ErrRevenueAboveCeiling means RBT12 is past the last bracket of the family,
	// so the company cannot be taxed under Simples Nacional.
	ErrRevenueAboveCeiling = errors.New("revenue exceeds every bracket ceiling")
	// ErrZeroRevenue is returned when RBA is zero and an effective rate over RBA is meaningless.
	ErrZeroRevenue = errors.New("annual revenue is zero")

	ErrUnknownAnnex     = errors.New("unknown annex")
	ErrInvalidReference = errors.New("invalid reference data")
)

// ValidationError reports the offending input field and the bound it broke.
type ValidationError struct {
	Field   string
	Bound   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Bound == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Bound)
}

func invalid(field, bound, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Bound: bound, Message: fmt.Sprintf(format, args...)}
}
