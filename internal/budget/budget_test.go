package budget

import (
	"errors"
	"math"
	"testing"
)

func TestCalculateMediumSixtySeconds(t *testing.T) {
	plan, err := Calculate(PresetMedium, 60)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if plan.VideoBitrate != 757773 {
		t.Fatalf("video bitrate = %d, want 757773", plan.VideoBitrate)
	}
	if plan.AudioBitrate != 64000 {
		t.Fatalf("audio bitrate = %d, want 64000", plan.AudioBitrate)
	}
	if plan.Clamped {
		t.Fatal("expected floor not to be applied")
	}
}

func TestCalculateFloorAndAudioForAllPresets(t *testing.T) {
	durations := []float64{0.001, 0.5, 1, 10, 60, 120.25, 300, 600, 700}
	for _, preset := range Presets() {
		for _, duration := range durations {
			plan, err := CalculateFor(preset, duration)
			if errors.Is(err, ErrBudgetInfeasible) {
				if duration < MaxFeasibleDuration(preset) {
					t.Fatalf("%s/%v: infeasible below max duration %v", preset.ID, duration, MaxFeasibleDuration(preset))
				}
				continue
			}
			if err != nil {
				t.Fatalf("%s/%v: unexpected error: %v", preset.ID, duration, err)
			}
			if plan.VideoBitrate < MinVideoBitrate {
				t.Fatalf("%s/%v: video bitrate %d below floor", preset.ID, duration, plan.VideoBitrate)
			}
			if plan.AudioBitrate != preset.AudioBitrateKbps*1000 {
				t.Fatalf("%s/%v: audio bitrate %d, want %d", preset.ID, duration, plan.AudioBitrate, preset.AudioBitrateKbps*1000)
			}
		}
	}
}

func TestCalculateClampsToFloor(t *testing.T) {
	// 700s of 32kbps audio leaves ~249kbit for video on the low preset.
	plan, err := Calculate(PresetLow, 700)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	if plan.VideoBitrate != MinVideoBitrate {
		t.Fatalf("video bitrate = %d, want floor %d", plan.VideoBitrate, MinVideoBitrate)
	}
	if !plan.Clamped {
		t.Fatal("expected Clamped to be set")
	}
}

func TestCalculateInfeasible(t *testing.T) {
	_, err := Calculate(PresetLow, 800)
	if !errors.Is(err, ErrBudgetInfeasible) {
		t.Fatalf("expected ErrBudgetInfeasible, got %v", err)
	}
	var infeasible *InfeasibleError
	if !errors.As(err, &infeasible) {
		t.Fatalf("expected *InfeasibleError, got %T", err)
	}
	if infeasible.Preset != PresetLow {
		t.Fatalf("preset = %q, want low", infeasible.Preset)
	}
	want := 3 * 1024 * 1024 * 8 * 0.9 / 32000
	if math.Abs(infeasible.MaxDuration-want) > 1e-6 {
		t.Fatalf("max duration = %v, want %v", infeasible.MaxDuration, want)
	}
}

func TestCalculateRejectsInvalidDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
	}{
		{"zero", 0},
		{"negative", -5},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Calculate(PresetHigh, tt.duration); !errors.Is(err, ErrInvalidDuration) {
				t.Fatalf("expected ErrInvalidDuration, got %v", err)
			}
		})
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	first, err := Calculate(PresetHigh, 42.42)
	if err != nil {
		t.Fatalf("Calculate returned error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Calculate(PresetHigh, 42.42)
		if err != nil {
			t.Fatalf("Calculate returned error: %v", err)
		}
		if again != first {
			t.Fatalf("plan changed between calls: %+v vs %+v", first, again)
		}
	}
}

func TestCalculateUnknownPreset(t *testing.T) {
	if _, err := Calculate("ultra", 60); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestParsePresetID(t *testing.T) {
	id, err := ParsePresetID("  HIGH ")
	if err != nil {
		t.Fatalf("ParsePresetID returned error: %v", err)
	}
	if id != PresetHigh {
		t.Fatalf("id = %q, want high", id)
	}
	if _, err := ParsePresetID(""); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset for empty input, got %v", err)
	}
}

func TestEstimatedSizeStaysUnderTarget(t *testing.T) {
	for _, preset := range Presets() {
		plan, err := CalculateFor(preset, 60)
		if err != nil {
			t.Fatalf("%s: %v", preset.ID, err)
		}
		if size := EstimatedSizeBytes(plan, 60); size > preset.TargetSizeBytes() {
			t.Fatalf("%s: estimated %d bytes exceeds target %d", preset.ID, size, preset.TargetSizeBytes())
		}
	}
	if EstimatedSizeBytes(Plan{VideoBitrate: 1, AudioBitrate: 1}, 0) != 0 {
		t.Fatal("expected zero estimate for zero duration")
	}
}

func TestPresetLabel(t *testing.T) {
	want := map[PresetID]string{PresetLow: "Low", PresetMedium: "Medium", PresetHigh: "High"}
	for _, p := range Presets() {
		if got := p.Label(); got != want[p.ID] {
			t.Errorf("%s label = %q, want %q", p.ID, got, want[p.ID])
		}
	}
}
