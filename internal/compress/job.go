package compress

import (
	"context"
	"sync"
	"time"

	"squeeze/internal/budget"
	"squeeze/internal/engine"
)

// Failure is the classified reason a job ended in StateFailed.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Job is one compression attempt. Only the Controller mutates it; readers use
// Snapshot or Wait.
type Job struct {
	ID        uint64
	Token     string
	Source    engine.Source
	Preset    budget.Preset
	CreatedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	state     State
	cancelled bool
	handle    engine.Handle
	metadata  engine.Metadata
	plan      budget.Plan
	execStart time.Time
	progress  float64
	telemetry Telemetry
	failure   *Failure
	result    *Result
}

// Snapshot is a consistent copy of a job's observable fields.
type Snapshot struct {
	ID        uint64          `json:"id"`
	Token     string          `json:"token"`
	Source    string          `json:"source"`
	Preset    budget.PresetID `json:"preset"`
	State     State           `json:"state"`
	Metadata  engine.Metadata `json:"metadata"`
	Plan      budget.Plan     `json:"plan"`
	Telemetry Telemetry       `json:"telemetry"`
	Failure   *Failure        `json:"failure,omitempty"`
	Result    *Result         `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Snapshot copies the job's current view.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := Snapshot{
		ID:        j.ID,
		Token:     j.Token,
		Source:    j.Source.Name(),
		Preset:    j.Preset.ID,
		State:     j.state,
		Metadata:  j.metadata,
		Plan:      j.plan,
		Telemetry: j.telemetry,
		CreatedAt: j.CreatedAt,
	}
	if j.failure != nil {
		failure := *j.failure
		snap.Failure = &failure
	}
	if j.result != nil {
		result := *j.result
		snap.Result = &result
	}
	return snap
}

// Done is closed once the job's run goroutine has exited.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job reaches a terminal state and its run goroutine
// has exited, then returns the final snapshot.
func (j *Job) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-j.done:
		return j.Snapshot(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}
