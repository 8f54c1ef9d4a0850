package compress

import (
	"testing"
	"time"

	"squeeze/internal/engine"
)

func TestCompressionStats(t *testing.T) {
	ratio, saved := CompressionStats(10_000, 2_500)
	if ratio != 25 || saved != 7_500 {
		t.Fatalf("got ratio=%v saved=%d", ratio, saved)
	}
}

func TestCompressionStatsOutputGrew(t *testing.T) {
	ratio, saved := CompressionStats(1_000, 1_500)
	if ratio != 150 {
		t.Fatalf("ratio = %v, want 150", ratio)
	}
	if saved != -500 {
		t.Fatalf("saved = %d, want -500", saved)
	}
}

func TestCompressionStatsZeroOriginal(t *testing.T) {
	ratio, saved := CompressionStats(0, 100)
	if ratio != 0 || saved != -100 {
		t.Fatalf("got ratio=%v saved=%d", ratio, saved)
	}
}

func TestResultFileName(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)
	if got := ResultFileName(at); got != "compressed_video_1700000000123.mp4" {
		t.Fatalf("ResultFileName = %q", got)
	}
}

func TestNewResultDefaultsMimeType(t *testing.T) {
	now := time.UnixMilli(1_000)
	res := newResult(7, 4096, engine.Output{Path: "/tmp/out.mp4", SizeBytes: 1024}, 3*time.Second, now)
	if res.MimeType != engine.MimeTypeMP4 {
		t.Fatalf("mime = %q", res.MimeType)
	}
	if res.JobID != 7 || res.CompressionRatio != 25 || res.BytesSaved != 3072 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.FileName != "compressed_video_1000.mp4" {
		t.Fatalf("file name = %q", res.FileName)
	}
}
