package deps

// FFmpegRequirements lists the binaries the ffmpeg engine needs.
func FFmpegRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpegBinary,
			Description: "Required for transcoding",
			VersionArg:  "-version",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobeBinary,
			Description: "Required for media inspection",
			VersionArg:  "-version",
		},
	}
}
