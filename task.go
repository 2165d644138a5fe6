package batchrun

import "context"

// Default runner configuration.
const (
	// DefaultConcurrency is the default number of tasks allowed in flight.
	DefaultConcurrency = 5

	// MinConcurrency is the minimum allowed concurrency limit.
	MinConcurrency = 1
)

// Task is a deferred operation that produces a value of type T or an error
// when invoked. The runner invokes each task at most once per run. The
// context is the one passed to Run, handed through unchanged; the runner
// itself never cancels it.
type Task[T any] func(ctx context.Context) (T, error)

// ProgressFunc is an optional callback invoked after each task settles.
// It receives the cumulative number of settled tasks and the fixed total.
// Calls are serialized on the settlement path, so implementations need no
// locking of their own, but they must not block.
type ProgressFunc func(completed, total int)
