package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeJobStateChanged uint32 = iota + 1
	TypeTelemetry
	TypeJobCompleted
	TypeJobFailed
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// JobStateChanged reports a lifecycle transition.
type JobStateChanged struct {
	JobID    uint64    `json:"job_id"`
	Token    string    `json:"token"`
	Source   string    `json:"source"`
	Preset   string    `json:"preset"`
	Previous string    `json:"previous"`
	State    string    `json:"state"`
	At       time.Time `json:"at"`
}

func (e JobStateChanged) Type() uint32 { return TypeJobStateChanged }

// Telemetry is one tick of derived progress. Speed and ETA are nil until
// the engine has reported any progress.
type Telemetry struct {
	JobID      uint64        `json:"job_id"`
	Progress   float64       `json:"progress"`
	Percentage int           `json:"percentage"`
	Elapsed    time.Duration `json:"elapsed"`
	Speed      *float64      `json:"speed,omitempty"`
	ETASeconds *int64        `json:"eta_seconds,omitempty"`
	At         time.Time     `json:"at"`
}

func (e Telemetry) Type() uint32 { return TypeTelemetry }

// JobCompleted carries the finished artifact and its size comparison.
type JobCompleted struct {
	JobID            uint64        `json:"job_id"`
	Path             string        `json:"path"`
	FileName         string        `json:"file_name"`
	MimeType         string        `json:"mime_type"`
	OriginalSize     int64         `json:"original_size"`
	CompressedSize   int64         `json:"compressed_size"`
	CompressionRatio float64       `json:"compression_ratio"`
	BytesSaved       int64         `json:"bytes_saved"`
	Elapsed          time.Duration `json:"elapsed"`
	At               time.Time     `json:"at"`
}

func (e JobCompleted) Type() uint32 { return TypeJobCompleted }

// JobFailed reports a classified failure.
type JobFailed struct {
	JobID   uint64        `json:"job_id"`
	Kind    string        `json:"kind"`
	Message string        `json:"message"`
	Elapsed time.Duration `json:"elapsed"`
	At      time.Time     `json:"at"`
}

func (e JobFailed) Type() uint32 { return TypeJobFailed }
