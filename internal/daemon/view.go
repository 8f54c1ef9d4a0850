package daemon

import (
	"sync"
	"time"

	"squeeze/internal/compress"
	"squeeze/internal/events"
)

const streamBuffer = 64

// streamEvent is one server-sent event.
type streamEvent struct {
	Name    string
	Payload any
}

type telemetryPayload struct {
	events.Telemetry
	SpeedLabel string `json:"speed_label"`
	ETALabel   string `json:"eta_label"`
}

// jobView follows the bus, keeps terminal-state totals, and fans events out
// to /api/events subscribers. Each event type arrives on its own bus queue, so
// telemetry can trail a job's terminal events; it is dropped once any job at
// or after its ID has finished.
type jobView struct {
	mu          sync.Mutex
	clients     map[chan streamEvent]struct{}
	totals      map[string]int
	lastEvent   time.Time
	finishedJob uint64
	unsubs      []func()
}

func newJobView(bus *events.Bus) *jobView {
	v := &jobView{
		clients: make(map[chan streamEvent]struct{}),
		totals:  make(map[string]int),
	}
	if bus != nil {
		v.unsubs = []func(){
			bus.Subscribe(v.onStateChanged),
			bus.Subscribe(v.onTelemetry),
			bus.Subscribe(v.onCompleted),
			bus.Subscribe(v.onFailed),
		}
	}
	return v
}

func (v *jobView) onStateChanged(e events.JobStateChanged) {
	v.mu.Lock()
	if compress.State(e.State).Terminal() {
		v.totals[e.State]++
		v.markFinishedLocked(e.JobID)
	}
	v.mu.Unlock()
	v.broadcast("state", e, e.At)
}

func (v *jobView) onTelemetry(e events.Telemetry) {
	v.mu.Lock()
	stale := e.JobID <= v.finishedJob
	v.mu.Unlock()
	if stale {
		return
	}
	v.broadcast("telemetry", telemetryPayload{
		Telemetry:  e,
		SpeedLabel: compress.FormatSpeed(e.Speed),
		ETALabel:   compress.FormatETA(e.ETASeconds),
	}, e.At)
}

func (v *jobView) onCompleted(e events.JobCompleted) {
	v.mu.Lock()
	v.markFinishedLocked(e.JobID)
	v.mu.Unlock()
	v.broadcast("completed", e, e.At)
}

func (v *jobView) onFailed(e events.JobFailed) {
	v.mu.Lock()
	v.markFinishedLocked(e.JobID)
	v.mu.Unlock()
	v.broadcast("failed", e, e.At)
}

func (v *jobView) markFinishedLocked(jobID uint64) {
	if jobID > v.finishedJob {
		v.finishedJob = jobID
	}
}

// broadcast drops events for clients whose buffer is full rather than
// stalling the bus.
func (v *jobView) broadcast(name string, payload any, at time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if at.After(v.lastEvent) {
		v.lastEvent = at
	}
	ev := streamEvent{Name: name, Payload: payload}
	for ch := range v.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (v *jobView) subscribe() (<-chan streamEvent, func()) {
	ch := make(chan streamEvent, streamBuffer)
	v.mu.Lock()
	v.clients[ch] = struct{}{}
	v.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.clients, ch)
			v.mu.Unlock()
		})
	}
}

func (v *jobView) summary() (map[string]int, time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	totals := make(map[string]int, len(v.totals))
	for k, n := range v.totals {
		totals[k] = n
	}
	return totals, v.lastEvent
}

func (v *jobView) close() {
	for _, unsub := range v.unsubs {
		unsub()
	}
	v.unsubs = nil
}
