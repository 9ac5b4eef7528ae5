package config

const (
	defaultFFmpegPath      = "ffmpeg"
	defaultFFprobePath     = "ffprobe"
	defaultTimeoutSeconds  = 120
	defaultSampleRate      = 22050
	defaultFrameSize       = 2048
	defaultHopSize         = 512
	defaultTuningHz        = 440.0
	defaultChromaNorm      = "max"
	defaultStartBPM        = 120.0
	defaultTightness       = 100.0
	defaultOutputDir       = "output"
	defaultSegmentDuration = 1.0
	defaultSegmentMode     = "time"
	defaultBeatsPerSegment = 4
	defaultSilenceOffsetDB = 16.0
	defaultChunkMs         = 10
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Decoder: Decoder{
			FFmpegPath:     defaultFFmpegPath,
			FFprobePath:    defaultFFprobePath,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Analysis: Analysis{
			SampleRate: defaultSampleRate,
			FrameSize:  defaultFrameSize,
			HopSize:    defaultHopSize,
			TuningHz:   defaultTuningHz,
			ChromaNorm: defaultChromaNorm,
			StartBPM:   defaultStartBPM,
			Tightness:  defaultTightness,
		},
		Segment: Segment{
			OutputDir:       defaultOutputDir,
			Duration:        defaultSegmentDuration,
			Mode:            defaultSegmentMode,
			BeatsPerSegment: defaultBeatsPerSegment,
		},
		Sample: Sample{
			SilenceOffsetDB: defaultSilenceOffsetDB,
			ChunkMs:         defaultChunkMs,
		},
		Logging: Logging{
			Level: defaultLogLevel,
			Color: true,
		},
	}
}
