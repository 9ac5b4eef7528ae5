package temporal

import (
	"math"
)

// Envelope provides amplitude envelope extraction
type Envelope struct{}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// ComputePeak computes the peak envelope (maximum absolute value per frame).
// A trailing partial frame is included so the envelope covers the whole
// signal.
func (e *Envelope) ComputePeak(signal []float64, frameSize, hopSize int) []float64 {
	if len(signal) == 0 || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-1)/hopSize + 1
	envelope := make([]float64, numFrames)

	for i := range numFrames {
		startIdx := i * hopSize
		endIdx := min(startIdx+frameSize, len(signal))

		peak := 0.0
		for j := startIdx; j < endIdx; j++ {
			peak = math.Max(peak, math.Abs(signal[j]))
		}
		envelope[i] = peak
	}

	return envelope
}
