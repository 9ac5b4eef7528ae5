package transcode

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-timemap/audio"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAVBitDepth is the sample width of every WAV file this package writes.
const WAVBitDepth = 16

var errUnsupportedWAV = errors.New("unsupported WAV encoding")

// ReadWAV decodes an integer PCM WAV stream. It returns the waveform and the
// bit depth of the source samples.
func ReadWAV(r io.ReadSeeker, source string) (*audio.Waveform, int, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: not a valid WAV file", errUnsupportedWAV)
	}
	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		return nil, 0, fmt.Errorf("%w: format tag %d", errUnsupportedWAV, decoder.WavAudioFormat)
	}

	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, 0, fmt.Errorf("%w: %d-bit samples", errUnsupportedWAV, bitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read PCM data: %w", err)
	}

	numChannels := int(decoder.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		numChannels = buf.Format.NumChannels
	}

	scale := math.Pow(2, float64(bitDepth-1))
	pcm := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		if bitDepth == 8 {
			// 8-bit WAV samples are unsigned
			v -= 128
		}
		pcm[i] = float64(v) / scale
	}

	waveform, err := audio.FromInterleaved(pcm, numChannels, int(decoder.SampleRate), source)
	if err != nil {
		return nil, 0, err
	}
	return waveform, bitDepth, nil
}

// WriteWAV encodes w as 16-bit PCM. Samples outside [-1, 1] are clipped.
func WriteWAV(out io.WriteSeeker, w *audio.Waveform) error {
	numChannels := w.NumChannels()
	encoder := wav.NewEncoder(out, w.SampleRate(), WAVBitDepth, numChannels, wavFormatPCM)

	interleaved := w.Interleaved()
	if len(interleaved) > 0 {
		data := make([]int, len(interleaved))
		for i, v := range interleaved {
			data[i] = floatToPCM16(v)
		}
		buf := &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: numChannels,
				SampleRate:  w.SampleRate(),
			},
			Data:           data,
			SourceBitDepth: WAVBitDepth,
		}
		if err := encoder.Write(buf); err != nil {
			_ = encoder.Close()
			return fmt.Errorf("write PCM data: %w", err)
		}
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize WAV header: %w", err)
	}
	return nil
}

func floatToPCM16(v float64) int {
	s := math.Round(v * 32767)
	switch {
	case s > 32767:
		return 32767
	case s < -32768:
		return -32768
	}
	return int(s)
}

func wavStreamInfo(filename string) (*AudioMetadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", errUnsupportedWAV)
	}
	duration, err := decoder.Duration()
	if err != nil {
		return nil, err
	}
	return &AudioMetadata{
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		Codec:      fmt.Sprintf("pcm_s%dle", decoder.BitDepth),
		Duration:   duration.Seconds(),
		Format:     "wav",
	}, nil
}
