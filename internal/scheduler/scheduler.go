// Package scheduler runs background work for documents on a fixed pool of
// workers.
//
// Work comes from two queues. Workers block on the urgent queue, with a
// short timeout, and poll the background queue only when no urgent task is
// waiting. File loading is urgent; re-highlighting and find-all run in the
// background. One Scheduler is created at process start and passed to
// every component that schedules work.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Task is a unit of background work. The context is cancelled when the
// scheduler stops; long tasks should check it at their checkpoints.
type Task func(ctx context.Context)

// Priority selects the queue a task goes to.
type Priority int

// Task priorities.
const (
	Background Priority = iota
	Urgent
)

func (p Priority) String() string {
	if p == Urgent {
		return "urgent"
	}
	return "background"
}

// PanicHandler is called when a task panics.
type PanicHandler func(name string, recovered any, stack []byte)

// Default configuration.
const (
	DefaultQueueSize     = 1024
	DefaultUrgentTimeout = 10 * time.Millisecond
)

type entry struct {
	name string
	task Task
}

// Scheduler is a fixed-size worker pool fed by an urgent and a background
// queue.
type Scheduler struct {
	// Configuration
	workers       int
	queueSize     int
	urgentTimeout time.Duration
	logger        *slog.Logger
	panicHandler  PanicHandler

	// State
	mu         sync.Mutex // protects queue creation and shutdown
	urgent     chan entry
	background chan entry
	wake       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	running    atomic.Bool
	wg         sync.WaitGroup

	// Stats
	enqueued    atomic.Uint64
	processed   atomic.Uint64
	panicked    atomic.Uint64
	dropped     atomic.Uint64
	active      atomic.Int64
	totalTimeNs atomic.Int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithQueueSize sets the capacity of each queue.
func WithQueueSize(size int) Option {
	return func(s *Scheduler) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithUrgentTimeout sets how long an idle worker blocks on the urgent
// queue before polling the background queue again.
func WithUrgentTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.urgentTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPanicHandler sets a handler called after a task panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(s *Scheduler) {
		s.panicHandler = h
	}
}

// New creates a scheduler. It does nothing until Start is called.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		workers:       max(2, runtime.NumCPU()-1),
		queueSize:     DefaultQueueSize,
		urgentTimeout: DefaultUrgentTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start starts the workers.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return ErrAlreadyRunning
	}

	s.urgent = make(chan entry, s.queueSize)
	s.background = make(chan entry, s.queueSize)
	s.wake = make(chan struct{}, 1)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running.Store(true)

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.logger.Debug("scheduler started", "workers", s.workers)
	return nil
}

// Stop cancels running tasks' contexts, discards queued tasks and waits
// for the workers to exit or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running.Load() {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running.Store(false)
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	discarded := len(s.urgent) + len(s.background)
	s.dropped.Add(uint64(discarded))
	s.logger.Debug("scheduler stopped", "discarded", discarded)
	return nil
}

// Schedule queues task. It never blocks: a full queue returns ErrQueueFull.
func (s *Scheduler) Schedule(p Priority, name string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return ErrNotRunning
	}

	q := s.background
	if p == Urgent {
		q = s.urgent
	}
	select {
	case q <- entry{name: name, task: task}:
		s.enqueued.Add(1)
	default:
		s.dropped.Add(1)
		return fmt.Errorf("%s task %q: %w", p, name, ErrQueueFull)
	}

	if p == Background {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	return nil
}

// worker runs tasks until the scheduler stops.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	timer := time.NewTimer(s.urgentTimeout)
	defer timer.Stop()

	for {
		if s.ctx.Err() != nil {
			return
		}

		// Urgent work first, then background work, without blocking.
		select {
		case e := <-s.urgent:
			s.run(id, e)
			continue
		default:
		}
		select {
		case e := <-s.background:
			s.run(id, e)
			continue
		default:
		}

		timer.Reset(s.urgentTimeout)
		select {
		case e := <-s.urgent:
			s.run(id, e)
		case <-s.wake:
		case <-timer.C:
		case <-s.ctx.Done():
			return
		}
	}
}

// run executes one task with panic recovery.
func (s *Scheduler) run(worker int, e entry) {
	s.active.Add(1)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.panicked.Add(1)
			stack := debug.Stack()
			s.logger.Error("task panicked", "task", e.name, "worker", worker, "panic", r)
			if s.panicHandler != nil {
				func() {
					defer func() { _ = recover() }()
					s.panicHandler(e.name, r, stack)
				}()
			}
		}
		s.totalTimeNs.Add(time.Since(start).Nanoseconds())
		s.processed.Add(1)
		s.active.Add(-1)
	}()

	e.task(s.ctx)
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// Workers returns the size of the pool.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Idle returns true if no task is queued or running.
func (s *Scheduler) Idle() bool {
	st := s.Stats()
	return st.Active == 0 && st.UrgentDepth == 0 && st.BackgroundDepth == 0
}

// Stats contains scheduler statistics.
type Stats struct {
	// Enqueued is the total number of tasks accepted.
	Enqueued uint64

	// Processed is the number of tasks that have finished, including panics.
	Processed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Dropped counts tasks rejected by a full queue or discarded by Stop.
	Dropped uint64

	// Active is the number of tasks running now.
	Active int

	// UrgentDepth and BackgroundDepth are the current queue lengths.
	UrgentDepth     int
	BackgroundDepth int

	// AvgDuration is the average task run time.
	AvgDuration time.Duration
}

// Stats returns a snapshot of the scheduler statistics.
func (s *Scheduler) Stats() Stats {
	processed := s.processed.Load()
	var avg time.Duration
	if processed > 0 {
		avg = time.Duration(s.totalTimeNs.Load() / int64(processed))
	}

	s.mu.Lock()
	urgent, background := len(s.urgent), len(s.background)
	s.mu.Unlock()

	return Stats{
		Enqueued:        s.enqueued.Load(),
		Processed:       processed,
		Panicked:        s.panicked.Load(),
		Dropped:         s.dropped.Load(),
		Active:          int(s.active.Load()),
		UrgentDepth:     urgent,
		BackgroundDepth: background,
		AvgDuration:     avg,
	}
}
