package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ContainerMP4 is the only output container the controller requests.
const ContainerMP4 = "mp4"

// MimeTypeMP4 is the MIME type of every produced artifact.
const MimeTypeMP4 = "video/mp4"

// Engine probes sources and creates transcode handles.
type Engine interface {
	Probe(ctx context.Context, src Source) (Metadata, error)
	Init(ctx context.Context, req Request) (Handle, error)
}

// Handle is a single initialized transcode.
//
// Progress delivers fractions in [0,1] that never decrease; the channel keeps
// only the most recent value. Execute blocks until the transcode finishes.
// Cancel blocks until the engine acknowledges the stop and is safe to call
// more than once, before Execute, or after it returns.
type Handle interface {
	Progress() <-chan float64
	Execute(ctx context.Context) (Output, error)
	Cancel(ctx context.Context) error
}

// Metadata is what a probe learned about a source.
type Metadata struct {
	SizeBytes       int64   `json:"size_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
	HasVideo        bool    `json:"has_video"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	VideoCodec      string  `json:"video_codec,omitempty"`
	FormatName      string  `json:"format_name,omitempty"`
}

// Resolution renders WxH, or an empty string when either side is unknown.
func (m Metadata) Resolution() string {
	if m.Width <= 0 || m.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

// VideoSettings constrains the encoded video stream.
type VideoSettings struct {
	Width     int
	Bitrate   int64
	FrameRate float64
}

// AudioSettings constrains the encoded audio stream.
type AudioSettings struct {
	Bitrate int64
}

// Request describes one transcode.
type Request struct {
	Source          Source
	OutputPath      string
	OutputContainer string
	DurationSeconds float64
	Video           VideoSettings
	Audio           AudioSettings
}

// Validate reports requests no engine can honour.
func (r Request) Validate() error {
	if r.Source.Location() == "" {
		return errors.New("source required")
	}
	if strings.TrimSpace(r.OutputPath) == "" {
		return errors.New("output path required")
	}
	if r.OutputContainer != ContainerMP4 {
		return fmt.Errorf("unsupported output container %q", r.OutputContainer)
	}
	if r.Video.Width <= 0 || r.Video.FrameRate <= 0 {
		return errors.New("video width and frame rate must be positive")
	}
	if r.Video.Bitrate <= 0 || r.Audio.Bitrate <= 0 {
		return errors.New("video and audio bitrates must be positive")
	}
	return nil
}

// Output describes the produced artifact.
type Output struct {
	Path      string
	SizeBytes int64
	MimeType  string
}
