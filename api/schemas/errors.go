package schemas

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCountry is returned when a country is not part of the vocabulary.
	ErrUnknownCountry = errors.New("unknown country")
	// ErrUnknownDeparture is returned when a departure city is not part of the vocabulary.
	ErrUnknownDeparture = errors.New("unknown departure city")
	// ErrInvalidRequest covers the structural checks on a SearchRequest.
	ErrInvalidRequest = errors.New("invalid search request")
)

// ValidationError reports a SearchRequest field that was rejected before any
// browser automation started. Callers use it to tell bad input apart from an
// empty result.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err (or anything it wraps) is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
