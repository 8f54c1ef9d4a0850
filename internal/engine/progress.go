package engine

import (
	"math"
	"sync"
)

// ProgressFeed is a single-producer, single-consumer channel of progress
// fractions that holds at most one pending value. Publishing replaces any
// value the consumer has not read yet, and values that would move progress
// backwards are dropped.
type ProgressFeed struct {
	mu     sync.Mutex
	ch     chan float64
	last   float64
	closed bool
}

// NewProgressFeed constructs an open feed.
func NewProgressFeed() *ProgressFeed {
	return &ProgressFeed{ch: make(chan float64, 1)}
}

// C returns the receive side of the feed.
func (f *ProgressFeed) C() <-chan float64 {
	return f.ch
}

// Publish offers a new fraction. Values are clamped to [0,1].
func (f *ProgressFeed) Publish(fraction float64) {
	if math.IsNaN(fraction) {
		return
	}
	fraction = math.Max(0, math.Min(1, fraction))

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || fraction < f.last {
		return
	}
	f.last = fraction
	select {
	case <-f.ch:
	default:
	}
	f.ch <- fraction
}

// Last returns the highest fraction published so far.
func (f *ProgressFeed) Last() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Close stops the feed. A pending value stays readable.
func (f *ProgressFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.ch)
}
