package eventbus

import (
	"fmt"
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"sleepvoice-server-go/internal/platform/logging"
)

// AsyncEventBus wraps EventBus with a bounded worker pool for asynchronous
// publishing. Synchronous Publish runs subscribers on the caller's goroutine.
type AsyncEventBus struct {
	bus       evbus.Bus
	logger    *logging.Logger
	workerNum int
	workChan  chan asyncEvent
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	inflight  sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

type asyncEvent struct {
	topic string
	args  []interface{}
}

// NewAsyncEventBus creates a bus; call Start before PublishAsync.
func NewAsyncEventBus(workerNum int, logger *logging.Logger) *AsyncEventBus {
	if workerNum <= 0 {
		workerNum = 4
	}
	return &AsyncEventBus{
		bus:       evbus.New(),
		logger:    logger,
		workerNum: workerNum,
		workChan:  make(chan asyncEvent, 256),
		stopChan:  make(chan struct{}),
	}
}

// Start launches the workers.
func (b *AsyncEventBus) Start() {
	for i := 0; i < b.workerNum; i++ {
		b.wg.Add(1)
		go b.worker()
	}
}

// Stop signals the workers to exit and waits for them. Events still queued
// are dropped so WaitAsync returns.
func (b *AsyncEventBus) Stop() {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.stopped = true
		b.mu.Unlock()
		close(b.stopChan)
	})
	b.wg.Wait()
	b.drain()
}

func (b *AsyncEventBus) drain() {
	for {
		select {
		case event := <-b.workChan:
			b.inflight.Done()
			b.logger.WarnTag("EventBus", "bus stopped, dropped event on %s", event.topic)
		default:
			return
		}
	}
}

func (b *AsyncEventBus) worker() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopChan:
			return
		case event := <-b.workChan:
			b.deliver(event)
		}
	}
}

func (b *AsyncEventBus) deliver(event asyncEvent) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorTag("EventBus", "subscriber panic on %s: %v", event.topic, r)
		}
	}()
	b.bus.Publish(event.topic, event.args...)
}

// Publish delivers synchronously.
func (b *AsyncEventBus) Publish(topic string, args ...interface{}) {
	b.bus.Publish(topic, args...)
}

// PublishAsync queues the event; it is dropped with a warning when the queue
// is full or the bus is stopped.
func (b *AsyncEventBus) PublishAsync(topic string, args ...interface{}) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		b.logger.WarnTag("EventBus", "bus stopped, dropped event on %s", topic)
		return false
	}

	b.inflight.Add(1)
	select {
	case b.workChan <- asyncEvent{topic: topic, args: args}:
		return true
	default:
		b.inflight.Done()
		b.logger.WarnTag("EventBus", "queue full, dropped event on %s", topic)
		return false
	}
}

// Subscribe registers fn; its signature must match the published args.
func (b *AsyncEventBus) Subscribe(topic string, fn interface{}) error {
	if err := b.bus.Subscribe(topic, fn); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

func (b *AsyncEventBus) Unsubscribe(topic string, fn interface{}) error {
	return b.bus.Unsubscribe(topic, fn)
}

// WaitAsync blocks until every queued event has been delivered.
func (b *AsyncEventBus) WaitAsync() {
	b.inflight.Wait()
}
