package batchrun

// Outcome is the settled result recorded at one task's index: either the
// value the task produced or the error it returned. A run that mixes
// successes and failures returns a mixed outcome list rather than failing
// as a whole.
type Outcome[T any] struct {
	// Value is the task's result when Err is nil.
	Value T

	// Err is the task's failure when non-nil.
	Err error
}

// Failed reports whether the task settled with an error.
func (o Outcome[T]) Failed() bool {
	return o.Err != nil
}

// Unwrap returns the outcome as a conventional (value, error) pair.
func (o Outcome[T]) Unwrap() (T, error) {
	return o.Value, o.Err
}
