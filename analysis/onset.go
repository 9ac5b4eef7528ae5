package analysis

import (
	"fmt"
	"slices"

	"github.com/RyanBlaney/sonido-timemap/audio"
	"github.com/RyanBlaney/sonido-timemap/logging"
)

// OnsetResult is the output of OnsetAnalyzer.Analyze. Frame and time slices
// are index-aligned and never nil.
type OnsetResult struct {
	Envelope    []float64
	OnsetFrames []int
	OnsetTimes  []float64
	Tempo       float64
	BeatFrames  []int
	BeatTimes   []float64
}

// OnsetAnalyzer detects onsets, tempo and beats on the mono mix of a
// waveform.
type OnsetAnalyzer struct {
	capability SignalAnalysisCapability
	logger     logging.Logger
}

// NewOnsetAnalyzer creates an analyzer on top of capability.
func NewOnsetAnalyzer(capability SignalAnalysisCapability) *OnsetAnalyzer {
	return &OnsetAnalyzer{
		capability: capability,
		logger: logging.WithFields(logging.Fields{
			"component": "onset_analyzer",
		}),
	}
}

// Analyze runs onset detection and beat tracking over one shared envelope.
func (a *OnsetAnalyzer) Analyze(w *audio.Waveform) (*OnsetResult, error) {
	mono := w.Mono()
	if err := checkLength(len(mono), a.capability.FrameSize()); err != nil {
		return nil, err
	}
	return a.analyzeMono(mono, w.SampleRate())
}

func (a *OnsetAnalyzer) analyzeMono(mono []float64, sampleRate int) (*OnsetResult, error) {
	envelope, err := a.capability.OnsetEnvelope(mono, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("onset envelope: %w", err)
	}

	onsetFrames, err := a.capability.OnsetFrames(envelope, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("onset detection: %w", err)
	}
	onsetFrames = sortedFrames(onsetFrames)

	tempo, beatFrames, err := a.capability.BeatTrack(envelope, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("beat tracking: %w", err)
	}
	beatFrames = sortedFrames(beatFrames)

	hop := a.capability.HopSize()
	result := &OnsetResult{
		Envelope:    envelope,
		OnsetFrames: onsetFrames,
		OnsetTimes:  FramesToTimes(onsetFrames, hop, sampleRate),
		Tempo:       tempo,
		BeatFrames:  beatFrames,
		BeatTimes:   FramesToTimes(beatFrames, hop, sampleRate),
	}

	a.logger.Info("Detected onsets", logging.Fields{
		"onsets": len(onsetFrames),
	})
	a.logger.Info("Estimated tempo", logging.Fields{
		"tempo": fmt.Sprintf("%.2f", tempo),
		"beats": len(beatFrames),
	})

	return result, nil
}

func checkLength(samples, frameSize int) error {
	if samples < frameSize {
		return &InsufficientAudioError{Samples: samples, Required: frameSize}
	}
	return nil
}

func sortedFrames(frames []int) []int {
	out := append(make([]int, 0, len(frames)), frames...)
	slices.Sort(out)
	return out
}

// FramesToTimes converts frame indices to seconds: frame * hop / sampleRate.
func FramesToTimes(frames []int, hopSize, sampleRate int) []float64 {
	times := make([]float64, len(frames))
	for i, f := range frames {
		times[i] = float64(f) * float64(hopSize) / float64(sampleRate)
	}
	return times
}
