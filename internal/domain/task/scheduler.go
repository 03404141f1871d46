// Package task runs deferred, fire-and-forget device actions off the
// request path. Outcomes are logged and counted; nothing is reported back
// to the code that scheduled the task.
package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/observability"
	"sleepvoice-server-go/internal/util"
	"sleepvoice-server-go/internal/util/work"
)

// Func is the deferred work. ctx carries the per-task timeout.
type Func func(ctx context.Context) error

// Task is one scheduled unit.
type Task struct {
	ID        string
	Name      string
	Due       time.Time
	CreatedAt time.Time
	run       Func
}

// Config tunes the scheduler.
type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Scheduler holds delayed tasks in a due-time heap and hands them to a
// worker pool when they come due.
type Scheduler struct {
	cfg     Config
	logger  *logging.Logger
	metrics *observability.Metrics

	queue *util.DelayQueue[*Task]
	pool  *work.Pool[*Task]

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	startMu  sync.Mutex
	started  bool
	stopOnce sync.Once

	inflight sync.WaitGroup
}

func NewScheduler(cfg Config, logger *logging.Logger, metrics *observability.Metrics) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scheduler{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		queue:   util.NewDelayQueue[*Task](),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.pool = work.NewPool(cfg.Workers, cfg.QueueSize, s.execute)
	return s
}

// Start launches the timer loop. Tasks scheduled earlier wait for it.
func (s *Scheduler) Start() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.loop()
}

// Schedule runs fn after delay and returns the task id.
func (s *Scheduler) Schedule(delay time.Duration, name string, fn Func) (string, error) {
	if delay < 0 {
		delay = 0
	}
	now := time.Now()
	t := &Task{
		ID:        uuid.NewString(),
		Name:      name,
		Due:       now.Add(delay),
		CreatedAt: now,
		run:       fn,
	}

	s.inflight.Add(1)
	if err := s.queue.Push(t, t.Due); err != nil {
		s.inflight.Done()
		return "", fmt.Errorf("schedule %s: %w", name, err)
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	s.logger.DebugTag("Task", "scheduled %s (%s) in %s", name, t.ID, delay)
	return t.ID, nil
}

func (s *Scheduler) loop() {
	defer close(s.done)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait := time.Hour
		if next, ok := s.queue.Next(); ok {
			wait = time.Until(next)
			if wait < 0 {
				wait = 0
			}
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-s.stop:
			return
		case <-s.wake:
		case <-timer.C:
			for _, t := range s.queue.PopReady(time.Now()) {
				if err := s.pool.Submit(t); err != nil {
					s.logger.WarnTag("Task", "dropped %s (%s): %v", t.Name, t.ID, err)
					s.metrics.ObserveTask("dropped")
					s.inflight.Done()
				}
			}
		}
	}
}

func (s *Scheduler) execute(t *Task) {
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		return t.run(ctx)
	}()

	lag := start.Sub(t.Due)
	if err != nil {
		s.logger.ErrorTag("Task", "%s (%s) failed after %s: %v", t.Name, t.ID, time.Since(start), err)
		s.metrics.ObserveTask("failed")
		return
	}
	s.logger.InfoTag("Task", "%s (%s) done in %s, lag %s", t.Name, t.ID, time.Since(start), lag)
	s.metrics.ObserveTask("success")
}

// Pending counts tasks still waiting for their due time.
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}

// WaitIdle blocks until every scheduled task has finished or ctx ends.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop drops tasks that are not yet due and waits for running ones.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.startMu.Lock()
		started := s.started
		s.startMu.Unlock()
		if started {
			<-s.done
		}
		for _, t := range s.queue.Close() {
			s.logger.DebugTag("Task", "discarded %s (%s) on shutdown", t.Name, t.ID)
			s.inflight.Done()
		}
		s.pool.Stop()
	})
}
