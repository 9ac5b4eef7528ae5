// Package sample cuts a leading excerpt out of a recording, optionally
// skipping near-silence at the start.
package sample

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-timemap/algorithms/temporal"
	"github.com/RyanBlaney/sonido-timemap/audio"
)

// Options controls Extract.
type Options struct {
	Duration        float64 // seconds to keep
	TrimSilence     bool
	SilenceOffsetDB float64 // chunks this far below the overall level count as silent
	ChunkMs         int
}

// DefaultOptions returns the standard trim settings for a sample of the
// given length.
func DefaultOptions(duration float64) Options {
	return Options{
		Duration:        duration,
		SilenceOffsetDB: 16,
		ChunkMs:         10,
	}
}

// Result is an extracted excerpt and where it started in the source.
type Result struct {
	Audio       *audio.Waveform
	TrimSamples int
}

// Extract returns up to opts.Duration seconds of w, starting after any
// leading silence when opts.TrimSilence is set. Input shorter than the
// requested duration is returned whole.
func Extract(w *audio.Waveform, opts Options) (*Result, error) {
	if opts.Duration <= 0 || math.IsNaN(opts.Duration) || math.IsInf(opts.Duration, 0) {
		return nil, fmt.Errorf("sample duration must be positive: %v", opts.Duration)
	}

	trim := 0
	if opts.TrimSilence {
		channels := make([][]float64, w.NumChannels())
		for c := range channels {
			channels[c] = w.Channel(c)
		}
		trim = temporal.NewSilenceDetection(opts.ChunkMs).TrimPoint(channels, w.SampleRate(), opts.SilenceOffsetDB)
	}

	length := int(opts.Duration * float64(w.SampleRate()))
	return &Result{
		Audio:       w.Slice(trim, trim+length),
		TrimSamples: trim,
	}, nil
}
