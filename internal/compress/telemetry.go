package compress

import (
	"math"
	"strconv"
	"time"
)

// Telemetry is the derived view of a job's progress at one instant.
type Telemetry struct {
	Progress   float64       `json:"progress"`
	Percentage int           `json:"percentage"`
	Elapsed    time.Duration `json:"elapsed"`
	// Speed is seconds of source processed per wall-clock second. Nil while unknown.
	Speed *float64 `json:"speed,omitempty"`
	// ETASeconds is the rounded remaining time. Nil while unknown.
	ETASeconds *int64 `json:"eta_seconds,omitempty"`
}

// ComputeTelemetry derives percentage, speed, and ETA from a progress
// fraction, the wall time since the transcode started, and the source
// duration in seconds. Speed and ETA stay unknown until both progress and
// elapsed time are positive, except that a finished job always reports an
// ETA of zero.
func ComputeTelemetry(progress float64, elapsed time.Duration, durationSeconds float64) Telemetry {
	if math.IsNaN(progress) {
		progress = 0
	}
	progress = math.Max(0, math.Min(1, progress))
	t := Telemetry{
		Progress:   progress,
		Percentage: int(math.Round(progress * 100)),
		Elapsed:    elapsed,
	}
	seconds := elapsed.Seconds()
	if progress >= 1 {
		var done int64
		t.ETASeconds = &done
	}
	if progress <= 0 || seconds <= 0 {
		return t
	}
	estimatedTotal := seconds / progress
	speed := durationSeconds / estimatedTotal
	eta := int64(math.Max(0, math.Round(estimatedTotal*(1-progress))))
	t.Speed = &speed
	t.ETASeconds = &eta
	return t
}

// FormatSpeed renders a speed factor to three significant figures, e.g. "2.47x".
func FormatSpeed(speed *float64) string {
	if speed == nil || math.IsNaN(*speed) || math.IsInf(*speed, 0) {
		return "-"
	}
	v := *speed
	if v == 0 {
		return "0.00x"
	}
	magnitude := int(math.Floor(math.Log10(math.Abs(v))))
	scale := math.Pow(10, float64(2-magnitude))
	v = math.Round(v*scale) / scale
	magnitude = int(math.Floor(math.Log10(math.Abs(v))))
	decimals := max(0, 2-magnitude)
	return strconv.FormatFloat(v, 'f', decimals, 64) + "x"
}

// FormatETA renders the remaining time as "42s" or "-" while unknown.
func FormatETA(eta *int64) string {
	if eta == nil {
		return "-"
	}
	return strconv.FormatInt(*eta, 10) + "s"
}
