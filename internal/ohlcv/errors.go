package ohlcv

import (
	"errors"
	"fmt"
)

// InputError reports a tick the aggregator refuses to process. Malformed
// input never reaches a bar or the dedupe index.
type InputError struct {
	// Code identifies the error category.
	Code InputErrorCode

	// Message is a human-readable description.
	Message string

	// Symbol is the affected symbol, when known.
	Symbol string
}

// InputErrorCode categorizes input errors.
type InputErrorCode string

const (
	// ErrCodeMissingField indicates a required tick field is absent or zero.
	ErrCodeMissingField InputErrorCode = "MISSING_FIELD"

	// ErrCodeBadValue indicates a tick field is present but out of range.
	ErrCodeBadValue InputErrorCode = "BAD_VALUE"
)

func (e *InputError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("%s: %s (symbol=%s)", e.Code, e.Message, e.Symbol)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInputError returns true if err is an aggregator input error.
// Uses errors.As to handle wrapped errors.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
