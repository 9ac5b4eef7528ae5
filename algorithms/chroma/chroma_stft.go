package chroma

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-timemap/algorithms/common"
	"github.com/RyanBlaney/sonido-timemap/algorithms/spectral"
)

// NumPitchClasses is the number of rows of every chromagram.
const NumPitchClasses = 12

// PitchClassNames labels chroma rows, starting at C.
var PitchClassNames = [NumPitchClasses]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Norm selects per-frame chroma normalization.
type Norm string

const (
	NormMax Norm = "max" // strongest pitch class becomes 1
	NormSum Norm = "sum" // pitch classes sum to 1
)

const normFloor = 1e-10

// ChromaSTFT computes chromagram using Short-Time Fourier Transform
//
// FFT bins between minFreq and maxFreq are assigned to the nearest
// equal-tempered semitone relative to the tuning frequency and folded into
// one octave, so every C lands in row 0.
type ChromaSTFT struct {
	sampleRate int
	stft       *spectral.STFT
	tuningFreq float64 // A4 frequency (default 440 Hz)
	minFreq    float64 // Minimum frequency to consider
	maxFreq    float64 // Maximum frequency to consider
	norm       Norm
}

// NewChromaSTFT creates a new STFT-based chromagram calculator
func NewChromaSTFT(sampleRate int, tuningFreq float64, norm Norm) *ChromaSTFT {
	if tuningFreq <= 0 {
		tuningFreq = 440.0
	}
	if norm == "" {
		norm = NormMax
	}
	return &ChromaSTFT{
		sampleRate: sampleRate,
		stft:       spectral.NewSTFT(),
		tuningFreq: tuningFreq,
		minFreq:    80.0,   // Approximate E2
		maxFreq:    8000.0, // High enough for harmonics
		norm:       norm,
	}
}

// Compute returns a NumPitchClasses x frames chromagram over centered,
// Hann-windowed frames, so column t lines up with onset envelope frame t
// for the same hop size.
func (cs *ChromaSTFT) Compute(signal []float64, windowSize, hopSize int) (*mat.Dense, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	stftResult, err := cs.stft.ComputeCentered(signal, windowSize, hopSize, cs.sampleRate, spectral.NewHannWindow(windowSize))
	if err != nil {
		return nil, err
	}

	return cs.convertSTFTToChroma(stftResult), nil
}

// convertSTFTToChroma folds the power spectrogram into pitch classes.
func (cs *ChromaSTFT) convertSTFTToChroma(stftResult *spectral.STFTResult) *mat.Dense {
	chromagram := mat.NewDense(NumPitchClasses, stftResult.TimeFrames, nil)

	chromaMapping := cs.calculateChromaMapping(stftResult.FreqBins, stftResult.FreqResolution)

	frame := make([]float64, NumPitchClasses)
	for t := range stftResult.TimeFrames {
		clear(frame)
		for f, power := range stftResult.Power[t] {
			if bin := chromaMapping[f]; bin >= 0 {
				frame[bin] += power
			}
		}

		cs.normalizeChromaFrame(frame)
		chromagram.SetCol(t, frame)
	}

	return chromagram
}

// calculateChromaMapping maps FFT bins to chroma bins
func (cs *ChromaSTFT) calculateChromaMapping(freqBins int, freqResolution float64) []int {
	mapping := make([]int, freqBins)

	for f := range freqBins {
		frequency := float64(f) * freqResolution

		if frequency < cs.minFreq || frequency > cs.maxFreq {
			mapping[f] = -1 // Outside valid range
			continue
		}

		midiNote := cs.frequencyToMIDI(frequency)
		mapping[f] = int(math.Round(midiNote)) % NumPitchClasses
	}

	return mapping
}

// frequencyToMIDI converts frequency to MIDI note number
func (cs *ChromaSTFT) frequencyToMIDI(frequency float64) float64 {
	if frequency <= 0 {
		return 0
	}

	// A4 = MIDI note 69
	return 69.0 + 12.0*math.Log2(frequency/cs.tuningFreq)
}

// normalizeChromaFrame scales a frame in place. Frames with no energy are
// left untouched.
func (cs *ChromaSTFT) normalizeChromaFrame(chromaFrame []float64) {
	var scale float64
	switch cs.norm {
	case NormSum:
		for _, energy := range chromaFrame {
			scale += energy
		}
	default:
		for _, energy := range chromaFrame {
			scale = math.Max(scale, energy)
		}
	}

	if scale > normFloor {
		for i := range chromaFrame {
			chromaFrame[i] /= scale
		}
	}
}

// Dominant returns the strongest pitch class in column frame and its value.
// Ties resolve to the lowest pitch class.
func Dominant(chromagram mat.Matrix, frame int) (int, float64) {
	column := mat.Col(nil, frame, chromagram)
	best := common.ArgMax(column)
	return best, column[best]
}

// ParseNorm validates a normalization name.
func ParseNorm(s string) (Norm, error) {
	switch Norm(s) {
	case NormMax, NormSum:
		return Norm(s), nil
	}
	return "", fmt.Errorf("unknown chroma normalization %q (want %q or %q)", s, NormMax, NormSum)
}
