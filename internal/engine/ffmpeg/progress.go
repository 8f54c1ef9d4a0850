package ffmpeg

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// parseProgress consumes ffmpeg's -progress key=value stream and reports
// fractions of totalSeconds. It returns once the reader is exhausted.
func parseProgress(r io.Reader, totalSeconds float64, report func(float64)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	outTimeUS := int64(-1)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				outTimeUS = us
			}
		case "out_time":
			if us := parseOutTime(value); us >= 0 {
				outTimeUS = us
			}
		case "progress":
			if value == "end" {
				report(1)
				continue
			}
			if outTimeUS >= 0 && totalSeconds > 0 {
				report(float64(outTimeUS) / (totalSeconds * 1e6))
			}
			outTimeUS = -1
		}
	}
	return scanner.Err()
}

// parseOutTime parses HH:MM:SS.micro into microseconds, or -1 when unknown.
func parseOutTime(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return -1
	}
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return -1
	}
	hours, err1 := strconv.ParseInt(parts[0], 10, 64)
	mins, err2 := strconv.ParseInt(parts[1], 10, 64)
	secs, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil || hours < 0 || mins < 0 || secs < 0 {
		return -1
	}
	return (hours*3600+mins*60)*1_000_000 + int64(secs*1_000_000+0.5)
}
