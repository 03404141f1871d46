// Package work provides a bounded worker pool.
package work

import (
	"errors"
	"sync"
)

var (
	ErrPoolClosed = errors.New("work pool closed")
	ErrPoolFull   = errors.New("work pool queue full")
)

// Handler processes one job.
type Handler[T any] func(job T)

// Pool runs jobs on a fixed number of workers fed by a bounded queue.
type Pool[T any] struct {
	jobs    chan T
	handler Handler[T]
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewPool starts numWorkers workers.
func NewPool[T any](numWorkers, queueSize int, handler Handler[T]) *Pool[T] {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool[T]{
		jobs:    make(chan T, queueSize),
		handler: handler,
	}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool[T]) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.handler(job)
	}
}

// Submit enqueues job without blocking.
func (p *Pool[T]) Submit(job T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrPoolFull
	}
}

// Stop lets queued jobs finish and waits for the workers.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
