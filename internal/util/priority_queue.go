package util

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

var ErrDelayQueueClosed = errors.New("delay queue closed")

// DelayItem is a value due at a point in time.
type DelayItem[T any] struct {
	Value T
	Due   time.Time
	seq   uint64
	index int
}

type delayHeap[T any] []*DelayItem[T]

func (h delayHeap[T]) Len() int { return len(h) }

// Less orders by due time, then by insertion order.
func (h delayHeap[T]) Less(i, j int) bool {
	if h[i].Due.Equal(h[j].Due) {
		return h[i].seq < h[j].seq
	}
	return h[i].Due.Before(h[j].Due)
}

func (h delayHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *delayHeap[T]) Push(x interface{}) {
	item := x.(*DelayItem[T])
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *delayHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// DelayQueue is a thread-safe min-heap keyed by due time.
type DelayQueue[T any] struct {
	mu     sync.Mutex
	items  delayHeap[T]
	seq    uint64
	closed bool
}

func NewDelayQueue[T any]() *DelayQueue[T] {
	q := &DelayQueue[T]{}
	heap.Init(&q.items)
	return q
}

// Push adds value due at due.
func (q *DelayQueue[T]) Push(value T, due time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrDelayQueueClosed
	}
	q.seq++
	heap.Push(&q.items, &DelayItem[T]{Value: value, Due: due, seq: q.seq})
	return nil
}

// Next reports the earliest due time.
func (q *DelayQueue[T]) Next() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].Due, true
}

// PopReady removes and returns every item due at or before now, earliest first.
func (q *DelayQueue[T]) PopReady(now time.Time) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	var ready []T
	for len(q.items) > 0 && !q.items[0].Due.After(now) {
		item := heap.Pop(&q.items).(*DelayItem[T])
		ready = append(ready, item.Value)
	}
	return ready
}

// Close rejects further pushes and returns the items left behind.
func (q *DelayQueue[T]) Close() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	left := make([]T, 0, len(q.items))
	for len(q.items) > 0 {
		left = append(left, heap.Pop(&q.items).(*DelayItem[T]).Value)
	}
	return left
}

func (q *DelayQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
