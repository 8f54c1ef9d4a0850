package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "N/A",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestPrimaryVideoSkipsCoverArt(t *testing.T) {
	result := Result{Streams: []Stream{
		{Index: 0, CodecType: "video", Disposition: Disposition{AttachedPic: 1, Default: 1}},
		{Index: 1, CodecType: "audio"},
		{Index: 2, CodecType: "video", Width: 1920, Height: 1080},
		{Index: 3, CodecType: "video", Width: 640, Height: 360, Disposition: Disposition{Default: 1}},
	}}
	stream, ok := result.PrimaryVideo()
	if !ok {
		t.Fatal("expected a primary video stream")
	}
	if stream.Index != 3 {
		t.Fatalf("expected default stream 3, got %d", stream.Index)
	}

	result.Streams[3].Disposition.Default = 0
	stream, ok = result.PrimaryVideo()
	if !ok || stream.Index != 2 {
		t.Fatalf("expected first non-cover stream 2, got %d (ok=%v)", stream.Index, ok)
	}
}

func TestPrimaryVideoMissing(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}}
	if _, ok := result.PrimaryVideo(); ok {
		t.Fatal("expected no primary video for audio-only input")
	}
}

func TestParse(t *testing.T) {
	payload := []byte(`{
		"streams": [{"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720, "duration": "60.000000"}],
		"format": {"filename": "clip.mp4", "duration": "60.021000", "size": "5242880", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
	}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	stream, ok := result.PrimaryVideo()
	if !ok {
		t.Fatal("expected video stream")
	}
	if stream.DurationSeconds() != 60 {
		t.Fatalf("unexpected stream duration %v", stream.DurationSeconds())
	}
	if result.SizeBytes() != 5242880 {
		t.Fatalf("unexpected size %d", result.SizeBytes())
	}
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
