package compress

import (
	"fmt"
	"time"

	"squeeze/internal/engine"
)

// Result is a completed job's artifact and size comparison.
//
// CompressionRatio is compressed/original × 100, so values above 100 mean the
// output grew. BytesSaved is original − compressed and goes negative in that
// case; neither value is clamped.
type Result struct {
	JobID            uint64        `json:"job_id"`
	Path             string        `json:"path"`
	FileName         string        `json:"file_name"`
	MimeType         string        `json:"mime_type"`
	OriginalSize     int64         `json:"original_size"`
	CompressedSize   int64         `json:"compressed_size"`
	CompressionRatio float64       `json:"compression_ratio"`
	BytesSaved       int64         `json:"bytes_saved"`
	Elapsed          time.Duration `json:"elapsed"`
	CompletedAt      time.Time     `json:"completed_at"`
}

// ResultFileName is the download name offered for an artifact finished at t.
func ResultFileName(t time.Time) string {
	return fmt.Sprintf("compressed_video_%d.mp4", t.UnixMilli())
}

// CompressionStats compares sizes. A non-positive original yields a zero ratio.
func CompressionStats(originalSize, compressedSize int64) (ratio float64, saved int64) {
	saved = originalSize - compressedSize
	if originalSize <= 0 {
		return 0, saved
	}
	return float64(compressedSize) / float64(originalSize) * 100, saved
}

func newResult(jobID uint64, originalSize int64, out engine.Output, elapsed time.Duration, now time.Time) Result {
	ratio, saved := CompressionStats(originalSize, out.SizeBytes)
	mime := out.MimeType
	if mime == "" {
		mime = engine.MimeTypeMP4
	}
	return Result{
		JobID:            jobID,
		Path:             out.Path,
		FileName:         ResultFileName(now),
		MimeType:         mime,
		OriginalSize:     originalSize,
		CompressedSize:   out.SizeBytes,
		CompressionRatio: ratio,
		BytesSaved:       saved,
		Elapsed:          elapsed,
		CompletedAt:      now,
	}
}
