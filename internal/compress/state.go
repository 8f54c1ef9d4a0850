package compress

// State is a job lifecycle state.
type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating"
	StateResolving    State = "resolving"
	StateInitializing State = "initializing"
	StateExecuting    State = "executing"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
	StateCancelled    State = "cancelled"
)

// Terminal reports whether no further transitions can follow.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

func (s State) String() string { return string(s) }
