package config

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-timemap/logging"
	"github.com/RyanBlaney/sonido-timemap/segment"
	"github.com/RyanBlaney/sonido-timemap/transcode"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDecoder(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateSegment(); err != nil {
		return err
	}
	if err := c.validateSample(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

func (c *Config) validateDecoder() error {
	if err := transcode.NewDecoder(c.DecoderConfig()).ValidateConfig(); err != nil {
		return fmt.Errorf("decoder: %w", err)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.SampleRate < 0 {
		return errors.New("analysis.sample_rate must be zero or positive")
	}
	if err := c.AnalysisParams().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

func (c *Config) validateSegment() error {
	if _, err := segment.ParseMode(c.Segment.Mode); err != nil {
		return fmt.Errorf("segment.mode: %w", err)
	}
	if c.Segment.Duration <= 0 {
		return errors.New("segment.duration must be positive")
	}
	if c.Segment.BeatsPerSegment <= 0 {
		return errors.New("segment.beats_per_segment must be positive")
	}
	return nil
}

func (c *Config) validateSample() error {
	if c.Sample.SilenceOffsetDB < 0 {
		return errors.New("sample.silence_offset_db must not be negative")
	}
	if c.Sample.ChunkMs <= 0 {
		return errors.New("sample.chunk_ms must be positive")
	}
	return nil
}
