package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeDecoder()
	c.normalizeAnalysis()
	if err := c.normalizeSegment(); err != nil {
		return err
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func (c *Config) normalizeDecoder() {
	c.Decoder.FFmpegPath = strings.TrimSpace(c.Decoder.FFmpegPath)
	if c.Decoder.FFmpegPath == "" {
		c.Decoder.FFmpegPath = defaultFFmpegPath
	}
	c.Decoder.FFprobePath = strings.TrimSpace(c.Decoder.FFprobePath)
	if c.Decoder.FFprobePath == "" {
		c.Decoder.FFprobePath = defaultFFprobePath
	}
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.ChromaNorm = strings.ToLower(strings.TrimSpace(c.Analysis.ChromaNorm))
	if c.Analysis.ChromaNorm == "" {
		c.Analysis.ChromaNorm = defaultChromaNorm
	}
}

func (c *Config) normalizeSegment() error {
	c.Segment.Mode = strings.ToLower(strings.TrimSpace(c.Segment.Mode))
	if c.Segment.Mode == "" {
		c.Segment.Mode = defaultSegmentMode
	}
	if strings.TrimSpace(c.Segment.OutputDir) == "" {
		c.Segment.OutputDir = defaultOutputDir
	}
	// Relative output directories stay relative to the working directory.
	if strings.HasPrefix(c.Segment.OutputDir, "~") {
		expanded, err := expandPath(c.Segment.OutputDir)
		if err != nil {
			return fmt.Errorf("segment.output_dir: %w", err)
		}
		c.Segment.OutputDir = expanded
	}
	return nil
}
