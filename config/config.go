package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/RyanBlaney/sonido-timemap/algorithms/chroma"
	"github.com/RyanBlaney/sonido-timemap/analysis"
	"github.com/RyanBlaney/sonido-timemap/fileutil"
	"github.com/RyanBlaney/sonido-timemap/transcode"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvConfigPath names the environment variable consulted when no explicit
// config path is given.
const EnvConfigPath = "SONIDO_CONFIG"

// Decoder configures the external ffmpeg tools.
type Decoder struct {
	FFmpegPath     string `toml:"ffmpeg_path"`
	FFprobePath    string `toml:"ffprobe_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Analysis configures onset, beat and pitch analysis.
type Analysis struct {
	SampleRate int     `toml:"sample_rate"` // 0 keeps the source rate
	FrameSize  int     `toml:"frame_size"`
	HopSize    int     `toml:"hop_size"`
	TuningHz   float64 `toml:"tuning_hz"`
	ChromaNorm string  `toml:"chroma_norm"`
	StartBPM   float64 `toml:"start_bpm"`
	Tightness  float64 `toml:"tightness"`
}

// Segment holds defaults for the chop command.
type Segment struct {
	OutputDir       string  `toml:"output_dir"`
	Duration        float64 `toml:"duration"`
	Mode            string  `toml:"mode"`
	BeatsPerSegment int     `toml:"beats_per_segment"`
}

// Sample holds silence-trim settings for the extract command.
type Sample struct {
	SilenceOffsetDB float64 `toml:"silence_offset_db"`
	ChunkMs         int     `toml:"chunk_ms"`
}

// Logging controls log output.
type Logging struct {
	Level string `toml:"level"`
	Color bool   `toml:"color"`
}

// Config encapsulates all configuration values for sonido.
type Config struct {
	Decoder  Decoder  `toml:"decoder"`
	Analysis Analysis `toml:"analysis"`
	Segment  Segment  `toml:"segment"`
	Sample   Sample   `toml:"sample"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sonido/config.toml")
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the path that was resolved, and whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("sonido.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes the commented sample configuration to path. An
// existing file is left alone.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if fileutil.Exists(expanded) {
		return fmt.Errorf("config already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return fileutil.WriteFileAtomic(expanded, func(f *os.File) error {
		_, err := f.WriteString(sampleConfig)
		return err
	})
}

// DecoderConfig returns decoder settings that keep the source rate and layout.
func (c *Config) DecoderConfig() *transcode.DecoderConfig {
	dc := transcode.DefaultDecoderConfig()
	dc.FFmpegPath = c.Decoder.FFmpegPath
	dc.FFprobePath = c.Decoder.FFprobePath
	dc.Timeout = time.Duration(c.Decoder.TimeoutSeconds) * time.Second
	return dc
}

// AnalysisDecoderConfig returns decoder settings that deliver mono audio at
// the analysis sample rate.
func (c *Config) AnalysisDecoderConfig() *transcode.DecoderConfig {
	dc := c.DecoderConfig()
	dc.TargetSampleRate = c.Analysis.SampleRate
	dc.TargetChannels = 1
	return dc
}

// AnalysisParams converts the [analysis] section into analysis.Params.
func (c *Config) AnalysisParams() analysis.Params {
	return analysis.Params{
		FrameSize:  c.Analysis.FrameSize,
		HopSize:    c.Analysis.HopSize,
		TuningHz:   c.Analysis.TuningHz,
		ChromaNorm: chroma.Norm(c.Analysis.ChromaNorm),
		StartBPM:   c.Analysis.StartBPM,
		Tightness:  c.Analysis.Tightness,
	}
}
