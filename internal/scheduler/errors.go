package scheduler

import "errors"

// Sentinel errors for the scheduler package.
var (
	// ErrAlreadyRunning is returned when Start is called on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler is already running")

	// ErrNotRunning is returned when operations are attempted on a stopped scheduler.
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrQueueFull is returned when a queue is full and cannot accept more tasks.
	ErrQueueFull = errors.New("task queue is full")
)
