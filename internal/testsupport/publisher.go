package testsupport

import (
	"sync"
	"testing"
	"time"

	"squeeze/internal/events"
)

// Recorder is a publisher that keeps every event it receives in order.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
	notify chan struct{}
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

func (r *Recorder) Publish(ev events.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// ForJob returns the recorded events carrying jobID.
func (r *Recorder) ForJob(jobID uint64) []events.Event {
	var out []events.Event
	for _, ev := range r.Events() {
		if EventJobID(ev) == jobID {
			out = append(out, ev)
		}
	}
	return out
}

// States lists the state names published for jobID, in order.
func (r *Recorder) States(jobID uint64) []string {
	var out []string
	for _, ev := range r.ForJob(jobID) {
		if sc, ok := ev.(events.JobStateChanged); ok {
			out = append(out, sc.State)
		}
	}
	return out
}

// WaitFor polls until match returns true for some recorded event.
func (r *Recorder) WaitFor(t testing.TB, match func(events.Event) bool) events.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		for _, ev := range r.Events() {
			if match(ev) {
				return ev
			}
		}
		select {
		case <-r.notify:
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatal("timed out waiting for event")
			return nil
		}
	}
}

// EventJobID extracts the job id from a job event, or 0.
func EventJobID(ev events.Event) uint64 {
	switch e := ev.(type) {
	case events.JobStateChanged:
		return e.JobID
	case events.Telemetry:
		return e.JobID
	case events.JobCompleted:
		return e.JobID
	case events.JobFailed:
		return e.JobID
	default:
		return 0
	}
}
