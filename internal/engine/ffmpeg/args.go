package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"squeeze/internal/engine"
)

func buildArgs(e *Engine, req engine.Request) []string {
	videoBitrate := strconv.FormatInt(req.Video.Bitrate, 10)
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-nostats",
		"-loglevel", "error",
		"-y",
		"-i", req.Source.Location(),
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-vf", fmt.Sprintf("scale=%d:-2", req.Video.Width),
		"-r", strconv.FormatFloat(req.Video.FrameRate, 'f', -1, 64),
		"-c:v", e.videoCodec,
	}
	if usesX26xPresets(e.videoCodec) {
		args = append(args, "-preset", e.encoderPreset)
	}
	args = append(args,
		"-b:v", videoBitrate,
		"-maxrate", videoBitrate,
		"-bufsize", strconv.FormatInt(req.Video.Bitrate*2, 10),
		"-pix_fmt", "yuv420p",
		"-c:a", e.audioCodec,
		"-b:a", strconv.FormatInt(req.Audio.Bitrate, 10),
		"-movflags", "+faststart",
		"-f", req.OutputContainer,
		"-progress", "pipe:1",
		req.OutputPath,
	)
	return args
}

func usesX26xPresets(codec string) bool {
	codec = strings.ToLower(codec)
	return strings.Contains(codec, "264") || strings.Contains(codec, "265") || strings.Contains(codec, "hevc")
}
