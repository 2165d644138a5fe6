// Package batchrun executes a fixed list of independent tasks with a bounded
// number running at once, collecting one outcome per task in input order.
//
// The runner performs a single pass over the task list. Key features:
//   - Configurable concurrency limit (default 5 tasks in flight)
//   - Input-order dispatch: under a limit of 1, tasks run strictly sequentially
//   - Two failure policies: abort on the first error, or record errors per
//     index and continue
//   - Progress callbacks reporting cumulative settled counts for UI updates
//
// It is not a job queue: there are no priorities, no retries, and no
// re-queuing. All per-run state is created inside Run and discarded when it
// returns, so a single Runner can be reused across runs.
package batchrun
