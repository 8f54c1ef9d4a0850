package budget

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PresetID identifies one of the predefined quality presets.
type PresetID string

const (
	PresetLow    PresetID = "low"
	PresetMedium PresetID = "medium"
	PresetHigh   PresetID = "high"
)

// DefaultPreset is used when no preset has been selected.
const DefaultPreset = PresetMedium

// ErrUnknownPreset reports a preset identifier outside the predefined table.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset bundles a target output size with a bitrate allocation strategy.
type Preset struct {
	ID                 PresetID `json:"id"`
	TargetSizeMB       float64  `json:"target_size_mb"`
	VideoBitrateFactor float64  `json:"video_bitrate_factor"`
	AudioBitrateKbps   int64    `json:"audio_bitrate_kbps"`
}

var presets = [...]Preset{
	{ID: PresetLow, TargetSizeMB: 3, VideoBitrateFactor: 0.7, AudioBitrateKbps: 32},
	{ID: PresetMedium, TargetSizeMB: 7.2, VideoBitrateFactor: 0.9, AudioBitrateKbps: 64},
	{ID: PresetHigh, TargetSizeMB: 8, VideoBitrateFactor: 1.0, AudioBitrateKbps: 128},
}

// Presets returns the predefined presets ordered from smallest to largest.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets[:])
	return out
}

// ParsePresetID normalizes user input into a known preset identifier.
func ParsePresetID(value string) (PresetID, error) {
	id := PresetID(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := lookup(id); !ok {
		return "", fmt.Errorf("%w %q (choose one of %s)", ErrUnknownPreset, value, strings.Join(presetNames(), ", "))
	}
	return id, nil
}

// Lookup returns the preset registered under id.
func Lookup(id PresetID) (Preset, error) {
	preset, ok := lookup(PresetID(strings.ToLower(strings.TrimSpace(string(id)))))
	if !ok {
		return Preset{}, fmt.Errorf("%w %q", ErrUnknownPreset, id)
	}
	return preset, nil
}

func lookup(id PresetID) (Preset, bool) {
	for _, preset := range presets {
		if preset.ID == id {
			return preset, true
		}
	}
	return Preset{}, false
}

func presetNames() []string {
	names := make([]string, 0, len(presets))
	for _, preset := range presets {
		names = append(names, string(preset.ID))
	}
	return names
}

// TargetSizeBytes returns the nominal output ceiling in bytes.
func (p Preset) TargetSizeBytes() int64 {
	return int64(p.TargetSizeMB * bytesPerMB)
}

// AudioBitrate returns the fixed audio bitrate in bits per second.
func (p Preset) AudioBitrate() int64 {
	return p.AudioBitrateKbps * 1000
}

// Label is the display name, e.g. "Medium".
func (p Preset) Label() string {
	return cases.Title(language.English).String(string(p.ID))
}
