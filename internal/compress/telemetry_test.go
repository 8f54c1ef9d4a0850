package compress

import (
	"testing"
	"time"
)

func TestComputeTelemetry(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		elapsed  time.Duration
		duration float64
		percent  int
		speed    float64
		eta      int64
	}{
		{name: "halfway", progress: 0.5, elapsed: 10 * time.Second, duration: 60, percent: 50, speed: 3, eta: 10},
		{name: "quarter", progress: 0.25, elapsed: 5 * time.Second, duration: 100, percent: 25, speed: 5, eta: 15},
		{name: "done", progress: 1, elapsed: 30 * time.Second, duration: 60, percent: 100, speed: 2, eta: 0},
		{name: "rounds percent", progress: 0.333, elapsed: time.Second, duration: 10, percent: 33, speed: 3.33, eta: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTelemetry(tt.progress, tt.elapsed, tt.duration)
			if got.Percentage != tt.percent {
				t.Fatalf("percentage = %d, want %d", got.Percentage, tt.percent)
			}
			if got.Speed == nil || got.ETASeconds == nil {
				t.Fatalf("expected speed and eta, got %+v", got)
			}
			if diff := *got.Speed - tt.speed; diff > 0.001 || diff < -0.001 {
				t.Fatalf("speed = %v, want %v", *got.Speed, tt.speed)
			}
			if *got.ETASeconds != tt.eta {
				t.Fatalf("eta = %d, want %d", *got.ETASeconds, tt.eta)
			}
		})
	}
}

func TestComputeTelemetryUnknownBeforeProgress(t *testing.T) {
	got := ComputeTelemetry(0, 10*time.Second, 60)
	if got.Speed != nil || got.ETASeconds != nil {
		t.Fatalf("expected unknown speed and eta at zero progress, got %+v", got)
	}
	if got.Percentage != 0 {
		t.Fatalf("percentage = %d", got.Percentage)
	}

	got = ComputeTelemetry(0.4, 0, 60)
	if got.Speed != nil || got.ETASeconds != nil {
		t.Fatalf("expected unknown speed and eta at zero elapsed, got %+v", got)
	}
	if got.Percentage != 40 {
		t.Fatalf("percentage = %d", got.Percentage)
	}

	got = ComputeTelemetry(1, 0, 60)
	if got.ETASeconds == nil || *got.ETASeconds != 0 {
		t.Fatalf("expected eta 0 at full progress, got %s", FormatETA(got.ETASeconds))
	}
	if got.Speed != nil {
		t.Fatalf("expected unknown speed at zero elapsed, got %v", *got.Speed)
	}
	if got.Percentage != 100 {
		t.Fatalf("percentage = %d", got.Percentage)
	}
}

func TestComputeTelemetryClampsProgress(t *testing.T) {
	if got := ComputeTelemetry(1.7, time.Second, 10); got.Progress != 1 || got.Percentage != 100 {
		t.Fatalf("expected clamp to 1, got %+v", got)
	}
	if got := ComputeTelemetry(-0.2, time.Second, 10); got.Progress != 0 || got.Speed != nil {
		t.Fatalf("expected clamp to 0, got %+v", got)
	}
}

func TestFormatSpeed(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "-"},
		{ptr(0), "0.00x"},
		{ptr(2.4666), "2.47x"},
		{ptr(12.345), "12.3x"},
		{ptr(123.4), "123x"},
		{ptr(0.5), "0.500x"},
		{ptr(9.996), "10.0x"},
	}
	for _, tt := range tests {
		if got := FormatSpeed(tt.in); got != tt.want {
			t.Errorf("FormatSpeed(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatETA(t *testing.T) {
	if got := FormatETA(nil); got != "-" {
		t.Fatalf("FormatETA(nil) = %q", got)
	}
	eta := int64(42)
	if got := FormatETA(&eta); got != "42s" {
		t.Fatalf("FormatETA(42) = %q", got)
	}
}
