package batchrun

import (
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress tracks how many tasks of a run have settled. It provides
// thread-safe access to progress metrics for UI updates and is created
// fresh for every run.
type Progress struct {
	// TotalTasks is the fixed number of tasks in the run.
	TotalTasks int

	// CompletedTasks is the number of tasks settled so far.
	CompletedTasks int

	// StartTime is when the run started.
	StartTime time.Time

	// LastUpdateTime is when progress was last updated.
	LastUpdateTime time.Time

	// mu protects concurrent access to progress fields.
	mu sync.RWMutex
}

// NewProgress creates a progress tracker for a run of totalTasks tasks.
func NewProgress(totalTasks int) *Progress {
	now := time.Now()
	return &Progress{
		TotalTasks:     totalTasks,
		CompletedTasks: 0,
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// AddCompleted records one settled task and returns the new completed count.
// This method is thread-safe.
func (p *Progress) AddCompleted() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.CompletedTasks++
	p.LastUpdateTime = time.Now()
	return p.CompletedTasks
}

// PercentComplete returns the completion percentage (0-100).
func (p *Progress) PercentComplete() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.TotalTasks == 0 {
		return 0
	}
	return (float64(p.CompletedTasks) / float64(p.TotalTasks)) * percentMultiplier
}

// IsComplete returns true if all tasks have settled.
func (p *Progress) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.CompletedTasks >= p.TotalTasks
}

// ElapsedTime returns the time elapsed since the run started.
func (p *Progress) ElapsedTime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return time.Since(p.StartTime)
}

// EstimatedTimeRemaining estimates the remaining run time based on current
// progress. Returns 0 if no tasks have settled yet.
func (p *Progress) EstimatedTimeRemaining() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.CompletedTasks == 0 {
		return 0
	}

	elapsed := time.Since(p.StartTime)
	avgTimePerTask := elapsed / time.Duration(p.CompletedTasks)
	remainingTasks := p.TotalTasks - p.CompletedTasks

	return avgTimePerTask * time.Duration(remainingTasks)
}

// TasksPerSecond returns the settlement rate in tasks per second.
func (p *Progress) TasksPerSecond() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elapsed := time.Since(p.StartTime).Seconds()
	if elapsed == 0 {
		return 0
	}

	return float64(p.CompletedTasks) / elapsed
}

// Snapshot returns a thread-safe copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProgressSnapshot{
		TotalTasks:      p.TotalTasks,
		CompletedTasks:  p.CompletedTasks,
		StartTime:       p.StartTime,
		LastUpdateTime:  p.LastUpdateTime,
		PercentComplete: p.percentCompleteUnsafe(),
		ElapsedTime:     time.Since(p.StartTime),
		TasksPerSecond:  p.tasksPerSecondUnsafe(),
	}
}

// ProgressSnapshot is an immutable snapshot of progress state.
type ProgressSnapshot struct {
	TotalTasks      int
	CompletedTasks  int
	StartTime       time.Time
	LastUpdateTime  time.Time
	PercentComplete float64
	ElapsedTime     time.Duration
	TasksPerSecond  float64
}

// percentCompleteUnsafe calculates percent complete without locking.
// Should only be called when already holding the lock.
func (p *Progress) percentCompleteUnsafe() float64 {
	if p.TotalTasks == 0 {
		return 0
	}
	return (float64(p.CompletedTasks) / float64(p.TotalTasks)) * percentMultiplier
}

// tasksPerSecondUnsafe calculates tasks per second without locking.
// Should only be called when already holding the lock.
func (p *Progress) tasksPerSecondUnsafe() float64 {
	elapsed := time.Since(p.StartTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(p.CompletedTasks) / elapsed
}
