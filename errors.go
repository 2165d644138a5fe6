package batchrun

import (
	"errors"
	"fmt"
	"strings"
)

// Common runner configuration errors.
var (
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
	ErrNilTask            = errors.New("task cannot be nil")
)

const allFailedPrefix = "All tasks failed to execute: "

// AllFailedError is the run-level error returned when every task in a run
// failed and fail-fast was not enabled. It carries the individual task
// errors in input order.
type AllFailedError struct {
	Errors []error
}

// Error joins the individual failure messages in input order.
func (e *AllFailedError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return allFailedPrefix + strings.Join(msgs, ", ")
}

// Unwrap exposes the individual task errors to errors.Is and errors.As.
func (e *AllFailedError) Unwrap() []error {
	return e.Errors
}

// normalizePanic converts a recovered panic value into an error. Error
// values pass through unchanged; anything else is coerced to an error
// carrying its string form.
func normalizePanic(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return errors.New(fmt.Sprint(v))
}
