package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-timemap/algorithms/common"
)

// TempoEstimation estimates a global tempo from an onset-strength envelope.
type TempoEstimation struct {
	hopSize      int
	startBPM     float64
	stdBPM       float64 // prior width in octaves
	maxTempo     float64
	minTempo     float64
	maxLagSecond float64
}

// NewTempoEstimation creates a tempo estimator whose prior is centered on
// startBPM.
func NewTempoEstimation(hopSize int, startBPM float64) *TempoEstimation {
	return &TempoEstimation{
		hopSize:      hopSize,
		startBPM:     startBPM,
		stdBPM:       1.0,
		maxTempo:     320,
		minTempo:     30,
		maxLagSecond: 8.0,
	}
}

// Estimate returns the tempo in BPM, or 0 when the envelope carries no
// periodicity at all (silence).
func (te *TempoEstimation) Estimate(envelope []float64, sampleRate int) float64 {
	if !common.AnyNonZero(envelope) || te.hopSize <= 0 || sampleRate <= 0 {
		return 0
	}

	framesPerSecond := float64(sampleRate) / float64(te.hopSize)
	maxLag := min(len(envelope), int(math.Round(te.maxLagSecond*framesPerSecond)))
	autocorr := te.calculateAutocorrelation(envelope, maxLag)

	bestLag := 0
	bestScore := math.Inf(-1)
	for lag := 1; lag < len(autocorr); lag++ {
		bpm := 60.0 * framesPerSecond / float64(lag)
		if bpm > te.maxTempo || bpm <= te.minTempo {
			continue
		}
		score := math.Log1p(1e6*math.Max(autocorr[lag], 0)) + te.logPrior(bpm)
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return 0
	}
	return 60.0 * framesPerSecond / float64(bestLag)
}

// logPrior is a log-normal weight centered on startBPM.
func (te *TempoEstimation) logPrior(bpm float64) float64 {
	z := (math.Log2(bpm) - math.Log2(te.startBPM)) / te.stdBPM
	return -0.5 * z * z
}

// calculateAutocorrelation calculates autocorrelation function
func (te *TempoEstimation) calculateAutocorrelation(signal []float64, maxLag int) []float64 {
	if maxLag > len(signal) {
		maxLag = len(signal)
	}

	autocorr := make([]float64, maxLag)

	for lag := 0; lag < maxLag; lag++ {
		sum := 0.0
		count := 0

		for i := 0; i < len(signal)-lag; i++ {
			sum += signal[i] * signal[i+lag]
			count++
		}

		if count > 0 {
			autocorr[lag] = sum / float64(count)
		}
	}

	// Normalize
	if len(autocorr) > 0 && autocorr[0] > 0 {
		for i := range autocorr {
			autocorr[i] /= autocorr[0]
		}
	}

	return autocorr
}
