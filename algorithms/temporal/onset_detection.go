package temporal

import (
	"fmt"

	"github.com/RyanBlaney/sonido-timemap/algorithms/common"
	"github.com/RyanBlaney/sonido-timemap/algorithms/spectral"
)

const (
	defaultMelBands = 128
	defaultAmin     = 1e-10
	defaultTopDB    = 80.0
)

// OnsetDetection computes spectral-flux onset strength and picks onset
// frames from it.
type OnsetDetection struct {
	stft      *spectral.STFT
	window    *spectral.HannWindow
	frameSize int
	hopSize   int
	melBands  int
	lag       int
}

// NewOnsetDetection creates an onset detector for the given STFT framing.
func NewOnsetDetection(frameSize, hopSize int) *OnsetDetection {
	return &OnsetDetection{
		stft:      spectral.NewSTFT(),
		window:    spectral.NewHannWindow(frameSize),
		frameSize: frameSize,
		hopSize:   hopSize,
		melBands:  defaultMelBands,
		lag:       1,
	}
}

// HopSize returns the hop between envelope frames in samples.
func (od *OnsetDetection) HopSize() int { return od.hopSize }

// Strength returns one onset-strength value per centered STFT frame: the mean
// positive difference of the log-power mel spectrogram between consecutive
// frames. The curve is delayed by lag + frameSize/(2*hopSize) frames and
// zero-filled at the front so that peaks line up with the frame in which the
// energy rise is centered.
func (od *OnsetDetection) Strength(signal []float64, sampleRate int) ([]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if od.hopSize <= 0 || od.frameSize <= 0 {
		return nil, fmt.Errorf("invalid framing: frame %d hop %d", od.frameSize, od.hopSize)
	}

	stftResult, err := od.stft.ComputeCentered(signal, od.frameSize, od.hopSize, sampleRate, od.window)
	if err != nil {
		return nil, err
	}

	melBank := spectral.NewMelFilterBank(od.melBands, od.frameSize, sampleRate, 0, float64(sampleRate)/2)
	logMel := spectral.PowerToDB(melBank.ApplyFrames(stftResult.Power), defaultAmin, defaultTopDB)

	numFrames := len(logMel)
	envelope := make([]float64, numFrames)
	shift := od.lag + od.frameSize/(2*od.hopSize)

	for t := od.lag; t < numFrames; t++ {
		dst := t - od.lag + shift
		if dst >= numFrames {
			break
		}
		cur, prev := logMel[t], logMel[t-od.lag]
		sum := 0.0
		for f := range cur {
			if d := cur[f] - prev[f]; d > 0 {
				sum += d
			}
		}
		envelope[dst] = sum / float64(len(cur))
	}

	return envelope, nil
}

// PeakPickParams configures PeakPick. Window sizes are in frames; PostMax
// and PostAvg are exclusive upper bounds.
type PeakPickParams struct {
	PreMax  int
	PostMax int
	PreAvg  int
	PostAvg int
	Delta   float64
	Wait    int
}

// DefaultPeakPickParams converts the standard onset picking windows (30 ms
// local max, 100 ms local mean, 30 ms refractory period) to frames.
func DefaultPeakPickParams(sampleRate, hopSize int) PeakPickParams {
	frames := func(seconds float64) int {
		return int(seconds * float64(sampleRate) / float64(hopSize))
	}
	return PeakPickParams{
		PreMax:  frames(0.03),
		PostMax: frames(0.00) + 1,
		PreAvg:  frames(0.10),
		PostAvg: frames(0.10) + 1,
		Delta:   0.07,
		Wait:    frames(0.03),
	}
}

// PeakPick returns the frames n where x[n] is the maximum of
// x[n-PreMax:n+PostMax], exceeds the mean of x[n-PreAvg:n+PostAvg] by at
// least Delta, and lies more than Wait frames after the previous peak.
func PeakPick(x []float64, p PeakPickParams) []int {
	peaks := []int{}
	n := 0
	for n < len(x) {
		if isPeak(x, n, p) {
			peaks = append(peaks, n)
			n += p.Wait + 1
			continue
		}
		n++
	}
	return peaks
}

func isPeak(x []float64, n int, p PeakPickParams) bool {
	lo, hi := max(0, n-p.PreMax), min(len(x), n+p.PostMax)
	for i := lo; i < hi; i++ {
		if x[i] > x[n] {
			return false
		}
	}

	lo, hi = max(0, n-p.PreAvg), min(len(x), n+p.PostAvg)
	if hi <= lo {
		return false
	}
	return x[n] >= common.Mean(x[lo:hi])+p.Delta
}

// Backtrack moves each event to the nearest preceding local minimum of
// energy. Frame 0 always counts as a minimum.
func Backtrack(events []int, energy []float64) []int {
	minima := []int{0}
	for i := 1; i+1 < len(energy); i++ {
		if energy[i] <= energy[i-1] && energy[i] < energy[i+1] {
			minima = append(minima, i)
		}
	}

	out := make([]int, len(events))
	for i, ev := range events {
		best := 0
		for _, m := range minima {
			if m > ev {
				break
			}
			best = m
		}
		out[i] = best
	}
	return out
}

// Detect picks onset frames from an onset-strength envelope and backtracks
// them. A silent (all-zero) envelope has no onsets.
func (od *OnsetDetection) Detect(envelope []float64, sampleRate int) []int {
	if !common.AnyNonZero(envelope) {
		return []int{}
	}
	normalized := common.MinMaxNormalize(envelope)
	peaks := PeakPick(normalized, DefaultPeakPickParams(sampleRate, od.hopSize))
	return Backtrack(peaks, normalized)
}
