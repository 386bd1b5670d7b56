// Package fifo provides a bounded, order-preserving, lossless channel wrapper.
package fifo

import "sync/atomic"

// Queue is a bounded FIFO with a single logical consumer.
//
// Unlike an overwriting ring, a full Queue never discards: Send waits for the
// consumer to make room. Producers therefore observe back-pressure instead of
// losing elements, and the consumer sees elements in exactly the order they
// were sent.
//
// # Example
//
//	q := fifo.New[string](16)
//
//	go func() {
//	    defer q.Close()
//	    q.Send("a")
//	    q.Send("b")
//	}()
//
//	for v := range q.C() {
//	    fmt.Println(v) // a, then b
//	}
type Queue[T any] struct {
	ch      chan T
	metrics Metrics
}

// New creates a Queue with the given capacity.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		panic("fifo: capacity must be > 0")
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// C returns the underlying receive-only channel.
//
// WARNING: reading from the returned channel bypasses the Processed metric.
// Use Receive if the metric matters.
func (q *Queue[T]) C() <-chan T {
	return q.ch
}

// Send appends v, waiting while the queue is full. Panics after Close.
func (q *Queue[T]) Send(v T) {
	select {
	case q.ch <- v:
	default:
		q.metrics.addBlocked(1)
		q.ch <- v
	}
	q.metrics.addWritten(1)
}

// TrySend appends v without waiting.
// Returns false if the queue is full.
func (q *Queue[T]) TrySend(v T) bool {
	select {
	case q.ch <- v:
		q.metrics.addWritten(1)
		return true
	default:
		return false
	}
}

// Receive blocks until a value is available or the queue is closed.
// The ok result is false once the queue is closed and drained.
func (q *Queue[T]) Receive() (v T, ok bool) {
	v, ok = <-q.ch
	if ok {
		q.metrics.addProcessed(1)
	}
	return
}

// Len returns the number of buffered elements.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}

// Close marks the end of the stream. Buffered elements stay receivable.
func (q *Queue[T]) Close() {
	close(q.ch)
}

// GetMetrics returns a snapshot of current counters.
func (q *Queue[T]) GetMetrics() Metrics {
	return Metrics{
		Written:   atomic.LoadInt64(&q.metrics.Written),
		Processed: atomic.LoadInt64(&q.metrics.Processed),
		Blocked:   atomic.LoadInt64(&q.metrics.Blocked),
	}
}

// Metrics holds lock-free counters for a Queue.
type Metrics struct {
	Written   int64
	Processed int64
	Blocked   int64 // sends that had to wait for room
}

func (m *Metrics) addWritten(n int) {
	atomic.AddInt64(&m.Written, int64(n))
}

func (m *Metrics) addProcessed(n int) {
	atomic.AddInt64(&m.Processed, int64(n))
}

func (m *Metrics) addBlocked(n int) {
	atomic.AddInt64(&m.Blocked, int64(n))
}
