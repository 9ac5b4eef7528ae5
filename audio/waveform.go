// Package audio holds the in-memory waveform shared by every pipeline stage.
package audio

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-timemap/algorithms/common"
	"github.com/RyanBlaney/sonido-timemap/algorithms/filters"
)

// Waveform is decoded audio: one sample slice per channel, all the same
// length, with samples nominally in [-1, 1]. A Waveform is never modified
// after construction; derived waveforms are copies.
type Waveform struct {
	channels   [][]float64
	sampleRate int
	source     string
}

// New validates and copies channel data into a Waveform.
func New(channels [][]float64, sampleRate int, source string) (*Waveform, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}
	if len(channels) == 0 {
		return nil, errors.New("waveform needs at least one channel")
	}
	n := len(channels[0])
	copied := make([][]float64, len(channels))
	for c, ch := range channels {
		if len(ch) != n {
			return nil, fmt.Errorf("channel %d has %d samples, channel 0 has %d", c, len(ch), n)
		}
		copied[c] = append([]float64(nil), ch...)
	}
	return &Waveform{channels: copied, sampleRate: sampleRate, source: source}, nil
}

// FromInterleaved splits interleaved PCM into channels. Trailing samples that
// do not form a whole frame are dropped.
func FromInterleaved(pcm []float64, numChannels, sampleRate int, source string) (*Waveform, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("channel count must be positive: %d", numChannels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}
	frames := len(pcm) / numChannels
	channels := make([][]float64, numChannels)
	for c := range channels {
		channels[c] = make([]float64, frames)
	}
	for i := range frames {
		for c := range numChannels {
			channels[c][i] = pcm[i*numChannels+c]
		}
	}
	return &Waveform{channels: channels, sampleRate: sampleRate, source: source}, nil
}

// SampleRate returns samples per second.
func (w *Waveform) SampleRate() int { return w.sampleRate }

// NumChannels returns the channel count.
func (w *Waveform) NumChannels() int { return len(w.channels) }

// Len returns the number of samples per channel.
func (w *Waveform) Len() int {
	if len(w.channels) == 0 {
		return 0
	}
	return len(w.channels[0])
}

// Source names where the waveform was loaded from.
func (w *Waveform) Source() string { return w.source }

// Duration returns the length in seconds.
func (w *Waveform) Duration() float64 {
	return float64(w.Len()) / float64(w.sampleRate)
}

// Channel returns a copy of one channel's samples.
func (w *Waveform) Channel(c int) []float64 {
	return append([]float64(nil), w.channels[c]...)
}

// Mono averages all channels into a single new slice.
func (w *Waveform) Mono() []float64 {
	n := w.Len()
	mono := make([]float64, n)
	if len(w.channels) == 1 {
		copy(mono, w.channels[0])
		return mono
	}
	scale := 1.0 / float64(len(w.channels))
	for _, ch := range w.channels {
		for i, v := range ch {
			mono[i] += v * scale
		}
	}
	return mono
}

// MonoWaveform returns a single-channel copy of w.
func (w *Waveform) MonoWaveform() *Waveform {
	return &Waveform{channels: [][]float64{w.Mono()}, sampleRate: w.sampleRate, source: w.source}
}

// Interleaved returns frame-interleaved samples.
func (w *Waveform) Interleaved() []float64 {
	numCh := len(w.channels)
	n := w.Len()
	out := make([]float64, n*numCh)
	for c, ch := range w.channels {
		for i, v := range ch {
			out[i*numCh+c] = v
		}
	}
	return out
}

// Slice copies samples [start, end) of every channel. Bounds are clamped to
// the waveform the same way slice expressions clamp in array languages, so an
// end past the last sample yields a shorter waveform instead of an error.
func (w *Waveform) Slice(start, end int) *Waveform {
	n := w.Len()
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	channels := make([][]float64, len(w.channels))
	for c, ch := range w.channels {
		channels[c] = append([]float64(nil), ch[start:end]...)
	}
	return &Waveform{channels: channels, sampleRate: w.sampleRate, source: w.source}
}

// Resample returns a copy at targetRate using cubic interpolation. It is used
// for natively decoded WAV input; compressed input is resampled by ffmpeg.
// When downsampling, each channel is low-passed below the target Nyquist
// frequency first so content above it is removed rather than folded back.
func (w *Waveform) Resample(targetRate int) (*Waveform, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("target sample rate must be positive: %d", targetRate)
	}
	if targetRate == w.sampleRate {
		return w.Slice(0, w.Len()), nil
	}

	var antiAlias *filters.LowpassFilter
	if targetRate < w.sampleRate {
		lf, err := filters.AntiAliasFilter(w.sampleRate, targetRate)
		if err != nil {
			return nil, fmt.Errorf("failed to design anti-alias filter: %w", err)
		}
		antiAlias = lf
	}

	interp := common.NewInterpolator(common.Cubic)
	channels := make([][]float64, len(w.channels))
	for c, ch := range w.channels {
		if antiAlias != nil {
			ch = antiAlias.ProcessBuffer(ch)
		}
		channels[c] = interp.ResampleSignal(ch, w.sampleRate, targetRate)
	}
	return &Waveform{channels: channels, sampleRate: targetRate, source: w.source}, nil
}
