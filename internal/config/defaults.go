package config

const (
	defaultStagingDir    = "~/.local/share/squeeze/staging"
	defaultOutputDir     = "~/Videos/squeeze"
	defaultStateDir      = "~/.local/state/squeeze"
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultVideoCodec    = "libx264"
	defaultAudioCodec    = "aac"
	defaultEncoderPreset = "veryfast"
	defaultPreset        = "medium"
	defaultAPIBind       = "127.0.0.1:7491"
	defaultMaxUploadMB   = 2048
	defaultProbeCacheTTL = 30
	defaultNtfyTimeout   = 10
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			StateDir:   defaultStateDir,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			VideoCodec:    defaultVideoCodec,
			AudioCodec:    defaultAudioCodec,
			EncoderPreset: defaultEncoderPreset,
		},
		Compress: Compress{
			DefaultPreset: defaultPreset,
		},
		Server: Server{
			Bind:        defaultAPIBind,
			MaxUploadMB: defaultMaxUploadMB,
		},
		ProbeCache: ProbeCache{
			Enabled:       true,
			RetentionDays: defaultProbeCacheTTL,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
