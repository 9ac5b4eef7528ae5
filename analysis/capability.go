// Package analysis turns a waveform into onset, beat and pitch information.
//
// The numeric work is delegated to a SignalAnalysisCapability so the
// orchestration can be exercised with a scripted fake; Native is the
// implementation backed by the algorithms packages.
package analysis

import (
	"gonum.org/v1/gonum/mat"
)

// SignalAnalysisCapability provides the numeric primitives of the pipeline.
// All frame indices refer to the same framing: frame t starts at sample
// t*HopSize().
type SignalAnalysisCapability interface {
	// FrameSize is the analysis window length; shorter input cannot be
	// analyzed.
	FrameSize() int
	// HopSize is the distance between frames in samples.
	HopSize() int
	// OnsetEnvelope returns one onset-strength value per frame.
	OnsetEnvelope(samples []float64, sampleRate int) ([]float64, error)
	// OnsetFrames picks onset frames from an envelope, in ascending order.
	OnsetFrames(envelope []float64, sampleRate int) ([]int, error)
	// BeatTrack estimates the tempo in BPM and beat frames from an envelope.
	BeatTrack(envelope []float64, sampleRate int) (float64, []int, error)
	// Chroma returns a 12 x frames pitch-class matrix.
	Chroma(samples []float64, sampleRate int) (*mat.Dense, error)
}
