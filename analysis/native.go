package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-timemap/algorithms/chroma"
	"github.com/RyanBlaney/sonido-timemap/algorithms/temporal"
)

// Params configures Native.
type Params struct {
	FrameSize  int
	HopSize    int
	TuningHz   float64
	ChromaNorm chroma.Norm
	StartBPM   float64
	Tightness  float64
}

// DefaultParams returns the standard analysis framing and tempo prior.
func DefaultParams() Params {
	return Params{
		FrameSize:  2048,
		HopSize:    512,
		TuningHz:   440,
		ChromaNorm: chroma.NormMax,
		StartBPM:   120,
		Tightness:  100,
	}
}

// Validate checks that the parameters describe a usable framing.
func (p Params) Validate() error {
	if p.FrameSize <= 0 {
		return fmt.Errorf("frame size must be positive: %d", p.FrameSize)
	}
	if p.HopSize <= 0 || p.HopSize > p.FrameSize {
		return fmt.Errorf("hop size must be in (0, frame size]: %d", p.HopSize)
	}
	if p.TuningHz <= 0 {
		return fmt.Errorf("tuning frequency must be positive: %v", p.TuningHz)
	}
	if p.StartBPM <= 0 {
		return fmt.Errorf("start bpm must be positive: %v", p.StartBPM)
	}
	if p.Tightness <= 0 {
		return fmt.Errorf("tightness must be positive: %v", p.Tightness)
	}
	if _, err := chroma.ParseNorm(string(p.ChromaNorm)); err != nil {
		return err
	}
	return nil
}

// Native implements SignalAnalysisCapability with the in-process algorithms.
type Native struct {
	params Params
	onsets *temporal.OnsetDetection
	tempo  *temporal.TempoEstimation
	beats  *temporal.BeatTracker
}

// NewNative builds the native capability.
func NewNative(params Params) (*Native, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Native{
		params: params,
		onsets: temporal.NewOnsetDetection(params.FrameSize, params.HopSize),
		tempo:  temporal.NewTempoEstimation(params.HopSize, params.StartBPM),
		beats:  temporal.NewBeatTracker(params.HopSize, params.Tightness),
	}, nil
}

func (n *Native) FrameSize() int { return n.params.FrameSize }

func (n *Native) HopSize() int { return n.params.HopSize }

func (n *Native) OnsetEnvelope(samples []float64, sampleRate int) ([]float64, error) {
	return n.onsets.Strength(samples, sampleRate)
}

func (n *Native) OnsetFrames(envelope []float64, sampleRate int) ([]int, error) {
	return n.onsets.Detect(envelope, sampleRate), nil
}

func (n *Native) BeatTrack(envelope []float64, sampleRate int) (float64, []int, error) {
	bpm := n.tempo.Estimate(envelope, sampleRate)
	if bpm == 0 {
		return 0, []int{}, nil
	}
	return bpm, n.beats.Track(envelope, sampleRate, bpm), nil
}

func (n *Native) Chroma(samples []float64, sampleRate int) (*mat.Dense, error) {
	cs := chroma.NewChromaSTFT(sampleRate, n.params.TuningHz, n.params.ChromaNorm)
	return cs.Compute(samples, n.params.FrameSize, n.params.HopSize)
}
