package logging

import "strings"

// ProgressSampler thins progress logging down to one line per percentage
// bucket, plus one whenever the job changes state.
type ProgressSampler struct {
	bucketSize float64
	lastState  string
	lastBucket int
}

// NewProgressSampler builds a sampler with buckets of bucketSize percent.
// Non-positive sizes fall back to 5.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress line for percent in state is worth
// emitting. Negative percent means unknown; only a state change emits then.
// A nil sampler logs everything.
func (s *ProgressSampler) ShouldLog(percent float64, state string) bool {
	if s == nil {
		return true
	}
	emit := false
	if state = strings.TrimSpace(state); state != "" && state != s.lastState {
		s.lastState = state
		s.lastBucket = -1
		emit = true
	}
	if percent < 0 {
		return emit
	}
	bucket := int(min(percent, 100) / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}

// Reset forgets the last state and bucket.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastState = ""
	s.lastBucket = -1
}
