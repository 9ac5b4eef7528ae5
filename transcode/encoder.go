package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-timemap/audio"
	"github.com/RyanBlaney/sonido-timemap/fileutil"
	"github.com/RyanBlaney/sonido-timemap/logging"
)

const defaultBitrate = "320k"

// EncodeOptions selects the output codec. Codec is the codec name ffprobe
// reported for the source; it decides the encoder when the output extension
// does not.
type EncodeOptions struct {
	Codec   string
	Bitrate int // bits per second, 0 uses the encoder default
}

// Encoder writes waveforms to audio files. WAV output is written natively;
// other formats are encoded by ffmpeg.
type Encoder struct {
	config *DecoderConfig
}

// NewEncoder creates an encoder sharing the decoder's binary configuration.
func NewEncoder(config *DecoderConfig) *Encoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Encoder{config: config}
}

// EncodeFile writes w to path. WAV paths are always written natively as
// 16-bit PCM regardless of opts.Codec. The file appears only once encoding
// succeeded.
func (e *Encoder) EncodeFile(ctx context.Context, w *audio.Waveform, path string, opts EncodeOptions) error {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_encoder",
		"function":  "EncodeFile",
		"path":      path,
	})

	if isWAV(path) {
		err := fileutil.WriteFileAtomic(path, func(f *os.File) error {
			return WriteWAV(f, w)
		})
		if err != nil {
			return &EncodeError{Path: path, Err: err}
		}
		logger.Debug("Wrote WAV natively", logging.Fields{"samples": w.Len()})
		return nil
	}

	if err := checkTools(e.config); err != nil {
		return err
	}

	err := fileutil.ReplaceViaPath(path, func(tmpPath string) error {
		return e.runFFmpeg(ctx, w, tmpPath, codecArgs(path, opts))
	})
	if err != nil {
		var missing *MissingCapabilityError
		if errors.As(err, &missing) {
			return err
		}
		return &EncodeError{Path: path, Err: err}
	}

	logger.Debug("Encoded with ffmpeg", logging.Fields{
		"samples": w.Len(),
		"codec":   opts.Codec,
	})
	return nil
}

func (e *Encoder) runFFmpeg(ctx context.Context, w *audio.Waveform, outPath string, codec []string) error {
	args := []string{
		"-y",
		"-v", "error",
		"-f", "f64le",
		"-ar", strconv.Itoa(w.SampleRate()),
		"-ac", strconv.Itoa(w.NumChannels()),
		"-i", "pipe:0",
		"-vn",
	}
	args = append(args, codec...)
	args = append(args, outPath)

	if ctx == nil {
		ctx = context.Background()
	}
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.config.FFmpegPath, args...)
	cmd.Stdin = bytes.NewReader(float64ToBytes(w.Interleaved()))
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg encode failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// codecArgs picks encoder flags from the output extension, falling back to
// the source codec for extensions that do not imply one.
func codecArgs(path string, opts EncodeOptions) []string {
	bitrate := defaultBitrate
	if opts.Bitrate > 0 {
		bitrate = fmt.Sprintf("%dk", opts.Bitrate/1000)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return []string{"-c:a", "libmp3lame", "-b:a", bitrate}
	case ".m4a", ".aac":
		return []string{"-c:a", "aac", "-b:a", bitrate}
	case ".flac":
		return []string{"-c:a", "flac"}
	case ".ogg", ".oga":
		return []string{"-c:a", "libvorbis", "-b:a", bitrate}
	case ".opus":
		return []string{"-c:a", "libopus", "-b:a", bitrate}
	}

	switch opts.Codec {
	case "mp3":
		return []string{"-c:a", "libmp3lame", "-b:a", bitrate}
	case "aac":
		return []string{"-c:a", "aac", "-b:a", bitrate}
	case "flac":
		return []string{"-c:a", "flac"}
	case "vorbis":
		return []string{"-c:a", "libvorbis", "-b:a", bitrate}
	case "opus":
		return []string{"-c:a", "libopus", "-b:a", bitrate}
	case "":
		return []string{"-c:a", "pcm_s16le"}
	}
	return []string{"-c:a", opts.Codec}
}

func float64ToBytes(samples []float64) []byte {
	data := make([]byte, len(samples)*8)
	for i, v := range samples {
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(v))
	}
	return data
}
