package logging

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type infoField struct {
	label string
	value string
}

var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldErrorKind,
	FieldErrorHint,
	FieldImpact,
	"source",
	"preset",
	FieldProgressPercent,
	FieldProgressETA,
	"speed",
	"duration_seconds",
	"resolution",
	"video_bitrate",
	"audio_bitrate",
	"clamped",
	"original_size_bytes",
	"compressed_size_bytes",
	"compression_ratio",
	"bytes_saved",
	"elapsed",
	"error",
}

// selectInfoFields returns formatted info-level fields in highlight order
// followed by any remaining keys, plus a count of hidden entries.
func selectInfoFields(attrs []kv) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	hidden := 0

	take := func(idx int) {
		used[idx] = true
		attr := attrs[idx]
		if skipInfoKey(attr.key) {
			return
		}
		if isDebugOnlyKey(attr.key) {
			hidden++
			return
		}
		val := formatValueForKey(attr.key, attr.value)
		if shouldHideInfoValue(attr.key, val) {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: val})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				take(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			take(idx)
		}
	}
	return result, hidden
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()

	if isByteSizeKey(key) {
		switch v.Kind() {
		case slog.KindInt64:
			return formatBytes(v.Int64())
		case slog.KindUint64:
			return humanize.IBytes(v.Uint64())
		}
	}
	if isBitrateKey(key) && v.Kind() == slog.KindInt64 {
		return humanize.SIWithDigits(float64(v.Int64()), 1, "b/s")
	}
	if v.Kind() == slog.KindDuration {
		return v.Duration().Round(time.Second).String()
	}
	if key == FieldProgressPercent {
		switch v.Kind() {
		case slog.KindInt64:
			return strconv.FormatInt(v.Int64(), 10) + "%"
		case slog.KindFloat64:
			return strconv.FormatFloat(v.Float64(), 'f', 0, 64) + "%"
		}
	}
	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}

	value := formatValue(v)
	if key == "error" {
		value = truncateErrorValue(value)
	}
	return value
}

// formatBytes renders signed sizes so negative savings still read naturally.
func formatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

func isByteSizeKey(key string) bool {
	return strings.HasSuffix(key, "_bytes") || key == "bytes_saved" || key == "size"
}

func isBitrateKey(key string) bool {
	return strings.HasSuffix(key, "_bitrate")
}

func truncateErrorValue(value string) string {
	value = strings.TrimSpace(value)
	const maxLen = 200
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldJobID, FieldStage, FieldComponent:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case FieldRequestID, "token", "args", "stderr":
		return true
	}
	return strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}

func shouldHideInfoValue(key, value string) bool {
	switch key {
	case "error", "source":
		return false
	}
	return len(value) > 120
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldErrorKind:
		return "Kind"
	case FieldErrorHint:
		return "Hint"
	case FieldProgressPercent:
		return "Progress"
	case FieldProgressETA:
		return "ETA"
	case "original_size_bytes":
		return "Original"
	case "compressed_size_bytes":
		return "Compressed"
	case "compression_ratio":
		return "Ratio"
	case "bytes_saved":
		return "Saved"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}
