package batchrun

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Runner executes a fixed list of tasks with a bounded number in flight.
// A Runner holds configuration only; all mutable state lives inside a
// single Run call, so a Runner is safe for reuse across runs.
type Runner[T any] struct {
	// concurrency is the maximum number of tasks in flight.
	concurrency int

	// failFast stops dispatching after the first task failure and makes
	// that failure the run's error.
	failFast bool

	// onProgress is an optional callback for progress updates.
	onProgress ProgressFunc
}

// NewRunner creates a runner with the given concurrency limit.
func NewRunner[T any](concurrency int) (*Runner[T], error) {
	if concurrency < MinConcurrency {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, concurrency)
	}

	return &Runner[T]{
		concurrency: concurrency,
	}, nil
}

// NewRunnerWithDefaults creates a runner with the default concurrency limit.
func NewRunnerWithDefaults[T any]() *Runner[T] {
	return &Runner[T]{
		concurrency: DefaultConcurrency,
	}
}

// WithFailFast makes the first task failure abort the run.
func (r *Runner[T]) WithFailFast() *Runner[T] {
	r.failFast = true
	return r
}

// WithProgressCallback sets a progress callback for the runner.
func (r *Runner[T]) WithProgressCallback(callback ProgressFunc) *Runner[T] {
	r.onProgress = callback
	return r
}

// runState is the mutable state of one Run invocation. It is exclusively
// owned by that invocation and discarded when Run returns.
type runState[T any] struct {
	// mu serializes all settlement-path mutation, including progress
	// callback invocation.
	mu sync.Mutex

	outcomes []Outcome[T]

	// started is the duplicate-launch guard: an index is invoked only
	// after its marker flips false -> true, independent of the dispatch
	// cursor.
	started []bool

	progress *Progress

	// aborted is set once by the first fail-fast failure. After that no
	// new tasks are invoked and settling results are discarded.
	aborted       bool
	firstAbortErr error
}

// Run invokes every task with at most the configured number in flight and
// returns one outcome per task at its original index.
//
// Tasks are dispatched strictly in input order; a freed slot is refilled
// with the next undispatched index as soon as a task settles. With a
// concurrency limit of 1 tasks therefore run strictly sequentially.
//
// Without fail-fast, task errors are recorded in the outcome list and the
// run only fails as a whole when every task failed, with an AllFailedError.
// With fail-fast, the first failure aborts dispatch, already-running tasks
// are awaited but their results discarded, and that first error is returned
// verbatim.
//
// ctx is handed through to the task bodies and consulted for the zerolog
// context logger; the runner itself has no cancellation path.
func (r *Runner[T]) Run(ctx context.Context, tasks []Task[T]) ([]Outcome[T], error) {
	for i, task := range tasks {
		if task == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilTask, i)
		}
	}

	if len(tasks) == 0 {
		return []Outcome[T]{}, nil
	}

	total := len(tasks)

	log := zerolog.Ctx(ctx).With().
		Str("component", "batchrun").
		Str("run_id", ulid.Make().String()).
		Logger()

	log.Info().
		Int("task_count", total).
		Int("concurrency", r.concurrency).
		Bool("fail_fast", r.failFast).
		Msg("starting batch run")

	st := &runState[T]{
		outcomes: make([]Outcome[T], total),
		started:  make([]bool, total),
		progress: NewProgress(total),
	}

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)

	for index := range tasks {
		if st.isAborted() {
			break
		}

		index := index
		g.Go(func() error {
			// The abort flag may have flipped while this index was
			// waiting for a slot; re-check under the same lock that
			// set it.
			if !st.markStarted(index) {
				return nil
			}

			log.Debug().Int("task_index", index).Msg("task dispatched")

			value, err := invoke(ctx, tasks[index])
			r.settle(log, st, index, value, err)

			// Always nil: failure policy is handled by run state, not
			// by group cancellation.
			return nil
		})
	}

	// Waits for the whole in-flight window, including tasks that will be
	// discarded after an abort.
	_ = g.Wait()

	if st.aborted {
		log.Warn().Err(st.firstAbortErr).Msg("batch run aborted")
		return nil, st.firstAbortErr
	}

	if err := st.allFailed(); err != nil {
		log.Error().Err(err).Msg("batch run failed")
		return nil, err
	}

	snap := st.progress.Snapshot()
	log.Info().
		Int("completed", snap.CompletedTasks).
		Dur("elapsed", snap.ElapsedTime).
		Float64("tasks_per_second", snap.TasksPerSecond).
		Msg("batch run complete")

	return st.outcomes, nil
}

// invoke runs a single task, converting a panic into a task error so one
// misbehaving task cannot take down the whole run.
func invoke[T any](ctx context.Context, task Task[T]) (value T, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = normalizePanic(v)
		}
	}()

	return task(ctx)
}

// settle records the outcome for index, or discards it when the run has
// aborted. The progress callback runs inside the state lock so that calls
// are serialized and the completed count is strictly monotonic.
func (r *Runner[T]) settle(log zerolog.Logger, st *runState[T], index int, value T, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.aborted {
		// Stop-the-world semantics: anything settling after the abort is
		// discarded, success or failure.
		log.Debug().Int("task_index", index).Msg("result discarded after abort")
		return
	}

	if err != nil && r.failFast {
		st.aborted = true
		st.firstAbortErr = err
		log.Debug().Int("task_index", index).Err(err).Msg("task failed, aborting run")
		return
	}

	st.outcomes[index] = Outcome[T]{Value: value, Err: err}

	completed := st.progress.AddCompleted()
	if err != nil {
		log.Debug().Int("task_index", index).Err(err).Msg("task failed")
	} else {
		log.Debug().Int("task_index", index).Msg("task settled")
	}

	if r.onProgress != nil {
		r.onProgress(completed, st.progress.TotalTasks)
	}
}

// markStarted flips the duplicate-launch marker for index. It returns false
// when the index was already admitted or the run has aborted, in which case
// the task must not be invoked.
func (st *runState[T]) markStarted(index int) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.aborted || st.started[index] {
		return false
	}
	st.started[index] = true
	return true
}

func (st *runState[T]) isAborted() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.aborted
}

// allFailed returns an AllFailedError carrying every task error in input
// order when no task succeeded, and nil otherwise.
func (st *runState[T]) allFailed() error {
	errs := make([]error, 0, len(st.outcomes))
	for _, o := range st.outcomes {
		if o.Err == nil {
			return nil
		}
		errs = append(errs, o.Err)
	}

	return &AllFailedError{Errors: errs}
}
