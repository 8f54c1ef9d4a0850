package budget

import (
	"errors"
	"fmt"
	"math"
)

const (
	bytesPerMB = 1024 * 1024

	// SafetyMargin is the share of the size ceiling handed to the encoder.
	// The remaining 10% covers container and muxing overhead.
	SafetyMargin = 0.9

	// MinVideoBitrate is the floor applied to every computed video bitrate.
	MinVideoBitrate int64 = 100_000
)

var (
	// ErrInvalidDuration reports a zero, negative, or non-finite duration.
	ErrInvalidDuration = errors.New("duration must be a positive number of seconds")
	// ErrBudgetInfeasible reports that the audio track alone consumes the
	// whole size budget, leaving nothing for video.
	ErrBudgetInfeasible = errors.New("size budget infeasible")
)

// Plan is the bitrate allocation for a single encode.
type Plan struct {
	VideoBitrate int64 `json:"video_bitrate"`
	AudioBitrate int64 `json:"audio_bitrate"`
	// Clamped is set when the computed video bitrate fell below
	// MinVideoBitrate and the floor was used instead.
	Clamped bool `json:"clamped"`
}

// InfeasibleError carries the numbers behind ErrBudgetInfeasible.
type InfeasibleError struct {
	Preset      PresetID
	Duration    float64
	MaxDuration float64
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("%s: preset %s cannot fit %.1fs of audio (longest feasible input is %.1fs)",
		ErrBudgetInfeasible, e.Preset, e.Duration, e.MaxDuration)
}

func (e *InfeasibleError) Unwrap() error { return ErrBudgetInfeasible }

// Calculate derives the plan for the preset registered under id.
func Calculate(id PresetID, durationSeconds float64) (Plan, error) {
	preset, err := Lookup(id)
	if err != nil {
		return Plan{}, err
	}
	return CalculateFor(preset, durationSeconds)
}

// CalculateFor derives the plan for an explicit preset value.
func CalculateFor(preset Preset, durationSeconds float64) (Plan, error) {
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) || durationSeconds <= 0 {
		return Plan{}, fmt.Errorf("%w: got %v", ErrInvalidDuration, durationSeconds)
	}
	if preset.TargetSizeMB <= 0 || preset.AudioBitrateKbps <= 0 {
		return Plan{}, fmt.Errorf("%w %q: target size and audio bitrate must be positive", ErrUnknownPreset, preset.ID)
	}

	audioBitrate := preset.AudioBitrate()
	availableVideoBits := targetSizeBits(preset) - float64(audioBitrate)*durationSeconds
	if availableVideoBits <= 0 {
		return Plan{}, &InfeasibleError{
			Preset:      preset.ID,
			Duration:    durationSeconds,
			MaxDuration: MaxFeasibleDuration(preset),
		}
	}

	raw := (availableVideoBits / durationSeconds) * preset.VideoBitrateFactor
	video := int64(math.Round(raw))
	plan := Plan{VideoBitrate: video, AudioBitrate: audioBitrate}
	if video < MinVideoBitrate {
		plan.VideoBitrate = MinVideoBitrate
		plan.Clamped = true
	}
	return plan, nil
}

// MaxFeasibleDuration returns the duration in seconds at which the audio
// track alone fills the preset's budget.
func MaxFeasibleDuration(preset Preset) float64 {
	audio := preset.AudioBitrate()
	if audio <= 0 {
		return math.Inf(1)
	}
	return targetSizeBits(preset) / float64(audio)
}

// EstimatedSizeBytes predicts the encoded payload size for a plan. Container
// overhead is not included.
func EstimatedSizeBytes(plan Plan, durationSeconds float64) int64 {
	if durationSeconds <= 0 {
		return 0
	}
	bits := float64(plan.VideoBitrate+plan.AudioBitrate) * durationSeconds
	return int64(math.Round(bits / 8))
}

func targetSizeBits(preset Preset) float64 {
	maxSizeBits := preset.TargetSizeMB * bytesPerMB * 8
	return maxSizeBits * SafetyMargin
}
