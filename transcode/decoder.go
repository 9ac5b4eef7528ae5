package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-timemap/audio"
	"github.com/RyanBlaney/sonido-timemap/deps"
	"github.com/RyanBlaney/sonido-timemap/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"` // 0 keeps the source rate
	TargetChannels   int           `json:"target_channels"`    // 0 keeps the source layout
	ResampleQuality  string        `json:"resample_quality"`   // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path"`        // Path to ffmpeg binary
	FFprobePath      string        `json:"ffprobe_path"`       // Path to ffprobe binary
	Timeout          time.Duration `json:"timeout"`            // Timeout for ffmpeg operations
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 0,
		TargetChannels:   0,
		ResampleQuality:  "medium",
		FFmpegPath:       "ffmpeg",  // Assume in PATH
		FFprobePath:      "ffprobe", // Assume in PATH
		Timeout:          2 * time.Minute,
	}
}

// AnalysisDecoderConfig returns a configuration that delivers mono audio at
// sampleRate, which is how the onset analysis consumes its input.
func AnalysisDecoderConfig(sampleRate int) *DecoderConfig {
	config := DefaultDecoderConfig()
	config.TargetSampleRate = sampleRate
	config.TargetChannels = 1
	return config
}

// Decoder loads audio files into waveforms. WAV files are read natively; all
// other containers go through ffprobe and ffmpeg.
type Decoder struct {
	config *DecoderConfig
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// CheckInput verifies that filename exists and is a regular file.
func CheckInput(filename string) error {
	info, err := os.Stat(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &InputNotFoundError{Path: filename}
		}
		return fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return &InputNotFoundError{Path: filename}
	}
	return nil
}

// NeedsFFmpeg reports whether decoding filename requires the external tools.
func NeedsFFmpeg(filename string) bool {
	return !isWAV(filename)
}

func isWAV(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".wav" || ext == ".wave"
}

// DecodeFile decodes an audio file into a waveform plus the properties of the
// source stream.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*audio.Waveform, *AudioMetadata, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	if err := CheckInput(filename); err != nil {
		return nil, nil, err
	}

	if isWAV(filename) {
		waveform, metadata, err := d.decodeWAVFile(filename)
		switch {
		case err == nil:
			logger.Debug("Decoded WAV natively", logging.Fields{
				"sample_rate": waveform.SampleRate(),
				"channels":    waveform.NumChannels(),
				"samples":     waveform.Len(),
			})
			return waveform, metadata, nil
		case errors.Is(err, errUnsupportedWAV):
			logger.Debug("WAV encoding not handled natively, falling back to ffmpeg", logging.Fields{
				"reason": err.Error(),
			})
		default:
			return nil, nil, &DecodeError{Path: filename, Err: err}
		}
	}

	if err := d.CheckAvailability(); err != nil {
		return nil, nil, err
	}

	logger.Debug("Starting audio file decode")

	metadata, err := d.probeAudioFile(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, nil, &DecodeError{Path: filename, Err: err}
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
		"input_bitrate":     metadata.Bitrate,
	})

	waveform, err := d.decodeFileWithFFmpeg(ctx, filename, metadata)
	if err != nil {
		return nil, nil, &DecodeError{Path: filename, Err: err}
	}
	return waveform, metadata, nil
}

// StreamInfo reports stream properties without decoding samples.
func (d *Decoder) StreamInfo(ctx context.Context, filename string) (*AudioMetadata, error) {
	if err := CheckInput(filename); err != nil {
		return nil, err
	}
	if isWAV(filename) {
		if metadata, err := wavStreamInfo(filename); err == nil {
			return metadata, nil
		}
	}
	if err := d.CheckAvailability(); err != nil {
		return nil, err
	}
	metadata, err := d.probeAudioFile(ctx, filename)
	if err != nil {
		return nil, &DecodeError{Path: filename, Err: err}
	}
	return metadata, nil
}

func (d *Decoder) decodeWAVFile(filename string) (*audio.Waveform, *AudioMetadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	waveform, bitDepth, err := ReadWAV(f, filename)
	if err != nil {
		return nil, nil, err
	}

	metadata := &AudioMetadata{
		SampleRate: waveform.SampleRate(),
		Channels:   waveform.NumChannels(),
		Codec:      fmt.Sprintf("pcm_s%dle", bitDepth),
		Duration:   waveform.Duration(),
		Format:     "wav",
	}

	switch d.config.TargetChannels {
	case 0, waveform.NumChannels():
	case 1:
		waveform = waveform.MonoWaveform()
	default:
		return nil, nil, fmt.Errorf("%w: channel remix to %d", errUnsupportedWAV, d.config.TargetChannels)
	}

	if d.config.TargetSampleRate > 0 && d.config.TargetSampleRate != waveform.SampleRate() {
		waveform, err = waveform.Resample(d.config.TargetSampleRate)
		if err != nil {
			return nil, nil, err
		}
	}

	return waveform, metadata, nil
}

// probeAudioFile uses ffprobe to get audio information from a file
func (d *Decoder) probeAudioFile(ctx context.Context, filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_streams",          // Show stream info
		"-select_streams", "a:0", // First audio stream only
		filename,
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.config.FFprobePath, args...)

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]

	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// decodeFileWithFFmpeg performs the actual audio decoding from a file
func (d *Decoder) decodeFileWithFFmpeg(ctx context.Context, filename string, metadata *AudioMetadata) (*audio.Waveform, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "decodeFileWithFFmpeg",
		"filename":  filename,
	})

	sampleRate, channels := d.outputLayout(metadata)

	args := append([]string{"-i", filename}, d.buildFFmpegArgs(metadata, sampleRate, channels)...)
	args = append(args, "pipe:1") // Output to stdout

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	startTime := time.Now()
	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "Ffmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
			return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, strings.TrimSpace(string(exitError.Stderr)))
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}

	waveform, err := audio.FromInterleaved(samples, channels, sampleRate, filename)
	if err != nil {
		return nil, err
	}

	logger.Debug("FFmpeg decode completed successfully", logging.Fields{
		"input_sample_rate":  metadata.SampleRate,
		"input_channels":     metadata.Channels,
		"input_codec":        metadata.Codec,
		"output_samples":     waveform.Len(),
		"output_sample_rate": sampleRate,
		"output_channels":    channels,
		"output_duration":    waveform.Duration(),
		"decode_time":        time.Since(startTime).Seconds(),
	})

	return waveform, nil
}

func (d *Decoder) outputLayout(metadata *AudioMetadata) (sampleRate, channels int) {
	sampleRate = metadata.SampleRate
	if d.config.TargetSampleRate > 0 {
		sampleRate = d.config.TargetSampleRate
	}
	channels = metadata.Channels
	if d.config.TargetChannels > 0 {
		channels = d.config.TargetChannels
	}
	return sampleRate, channels
}

// buildFFmpegArgs builds the ffmpeg arguments based on configuration and metadata
func (d *Decoder) buildFFmpegArgs(metadata *AudioMetadata, sampleRate, channels int) []string {
	args := []string{
		"-vn",         // No video
		"-f", "f64le", // Output raw float64 little-endian
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
	}

	if sampleRate != metadata.SampleRate {
		switch d.config.ResampleQuality {
		case "fast":
			args = append(args, "-af", "aresample=resampler=soxr:precision=16")
		case "medium":
			args = append(args, "-af", "aresample=resampler=soxr:precision=20")
		case "high":
			args = append(args, "-af", "aresample=resampler=soxr:precision=28")
		}
	}

	// Suppress ffmpeg output
	args = append(args, "-v", "error")

	return args
}

func (d *Decoder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d.config.Timeout > 0 {
		return context.WithTimeout(ctx, d.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		// Trim to multiple of 8 bytes
		data = data[:len(data)-(len(data)%8)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate < 0 {
		return fmt.Errorf("target sample rate must not be negative: %d", d.config.TargetSampleRate)
	}

	if d.config.TargetChannels < 0 || d.config.TargetChannels > 8 {
		return fmt.Errorf("target channels must be between 0 and 8: %d", d.config.TargetChannels)
	}

	if d.config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %v", d.config.Timeout)
	}

	return nil
}

// CheckAvailability verifies that ffmpeg and ffprobe resolve and run.
func (d *Decoder) CheckAvailability() error {
	return checkTools(d.config)
}

func checkTools(config *DecoderConfig) error {
	statuses := deps.CheckBinaries(deps.FFmpegRequirements(config.FFmpegPath, config.FFprobePath))
	if missing := deps.Missing(statuses); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		details := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, m.Command)
			details = append(details, m.Detail)
		}
		return &MissingCapabilityError{Binaries: names, Detail: strings.Join(details, "; ")}
	}

	for _, s := range statuses {
		cmd := exec.Command(s.Path, "-version")
		if err := cmd.Run(); err != nil {
			return &MissingCapabilityError{
				Binaries: []string{s.Command},
				Detail:   fmt.Sprintf("%s -version failed: %v", s.Command, err),
			}
		}
	}

	return nil
}
