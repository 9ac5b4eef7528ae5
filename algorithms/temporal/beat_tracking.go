package temporal

import (
	"math"

	"github.com/mjibson/go-dsp/window"

	"github.com/RyanBlaney/sonido-timemap/algorithms/common"
)

// BeatTracker places beats on an onset-strength envelope by dynamic
// programming: each beat maximizes local onset strength plus the best
// cumulative score of a predecessor roughly one beat period earlier.
type BeatTracker struct {
	hopSize   int
	tightness float64
	trim      bool
}

// NewBeatTracker creates a beat tracker. Larger tightness keeps beat spacing
// closer to the tempo period.
func NewBeatTracker(hopSize int, tightness float64) *BeatTracker {
	return &BeatTracker{hopSize: hopSize, tightness: tightness, trim: true}
}

// Track returns beat frames for the envelope at the given tempo. Silence or a
// non-positive tempo yields no beats.
func (bt *BeatTracker) Track(envelope []float64, sampleRate int, bpm float64) []int {
	if !common.AnyNonZero(envelope) || bpm <= 0 || bt.hopSize <= 0 {
		return []int{}
	}

	period := int(math.Round(60.0 * float64(sampleRate) / float64(bt.hopSize) / bpm))
	if period < 1 {
		return []int{}
	}

	onsets := normalizeOnsets(envelope)
	localscore := beatLocalScore(onsets, period)
	backlink, cumscore := bt.dynamicProgram(localscore, period)

	beats := make([]bool, len(localscore))
	for n := lastBeat(cumscore); n >= 0; n = backlink[n] {
		beats[n] = true
	}

	beats = bt.trimBeats(localscore, beats)

	frames := []int{}
	for i, b := range beats {
		if b {
			frames = append(frames, i)
		}
	}
	return frames
}

func normalizeOnsets(envelope []float64) []float64 {
	std := common.StandardDeviation(envelope)
	out := make([]float64, len(envelope))
	for i, v := range envelope {
		out[i] = v / (std + math.SmallestNonzeroFloat64)
	}
	return out
}

// beatLocalScore smooths the envelope with a Gaussian spanning one period
// either side, keeping the input length.
func beatLocalScore(onsets []float64, period int) []float64 {
	kernel := make([]float64, 2*period+1)
	for k := range kernel {
		x := float64(k-period) * 32.0 / float64(period)
		kernel[k] = math.Exp(-0.5 * x * x)
	}

	n := len(onsets)
	score := make([]float64, n)
	for i := range n {
		sum := 0.0
		for k, w := range kernel {
			j := i + period - k
			if j >= 0 && j < n {
				sum += onsets[j] * w
			}
		}
		score[i] = sum
	}
	return score
}

func (bt *BeatTracker) dynamicProgram(localscore []float64, period int) ([]int, []float64) {
	n := len(localscore)
	backlink := make([]int, n)
	cumscore := make([]float64, n)

	maxScore := localscore[0]
	for _, v := range localscore {
		maxScore = math.Max(maxScore, v)
	}
	scoreThresh := 0.01 * maxScore

	nearest := int(math.RoundToEven(float64(period) / 2))
	logPeriod := math.Log(float64(period))
	firstBeat := true

	for i, scoreI := range localscore {
		bestScore := math.Inf(-1)
		beatLocation := -1
		for loc := i - nearest; loc >= i-2*period; loc-- {
			if loc < 0 {
				break
			}
			d := math.Log(float64(i-loc)) - logPeriod
			score := cumscore[loc] - bt.tightness*d*d
			if score > bestScore {
				bestScore = score
				beatLocation = loc
			}
		}

		if beatLocation >= 0 {
			cumscore[i] = scoreI + bestScore
		} else {
			cumscore[i] = scoreI
		}

		if firstBeat && scoreI < scoreThresh {
			backlink[i] = -1
		} else {
			backlink[i] = beatLocation
			firstBeat = false
		}
	}

	return backlink, cumscore
}

// lastBeat picks the final local maximum of the cumulative score that is
// above half the median of all local maxima.
func lastBeat(cumscore []float64) int {
	n := len(cumscore)
	var peaks []float64
	var peakIdx []int
	for i := 1; i < n; i++ {
		right := cumscore[i]
		if i+1 < n {
			right = cumscore[i+1]
		}
		if cumscore[i] > cumscore[i-1] && cumscore[i] >= right {
			peaks = append(peaks, cumscore[i])
			peakIdx = append(peakIdx, i)
		}
	}
	if len(peaks) == 0 {
		return n - 1
	}

	half := 0.5 * common.Median(peaks)
	for j := len(peakIdx) - 1; j >= 0; j-- {
		if peaks[j] > half {
			return peakIdx[j]
		}
	}
	return n - 1
}

// trimBeats drops beats from the leading and trailing stretches whose local
// score stays at or below half the RMS of the Hann-smoothed beat strengths.
func (bt *BeatTracker) trimBeats(localscore []float64, beats []bool) []bool {
	trimmed := append([]bool(nil), beats...)

	threshold := 0.0
	if bt.trim {
		var strengths []float64
		for i, b := range beats {
			if b {
				strengths = append(strengths, localscore[i])
			}
		}
		smooth := smoothBeatStrengths(strengths)
		if len(smooth) > 0 {
			threshold = 0.5 * common.RMS(smooth)
		}
	}

	for n := 0; n < len(localscore) && localscore[n] <= threshold; n++ {
		trimmed[n] = false
	}
	for n := len(localscore) - 1; n >= 0 && localscore[n] <= threshold; n-- {
		trimmed[n] = false
	}
	return trimmed
}

// smoothBeatStrengths convolves with a symmetric 5-point Hann window and
// drops the first two outputs.
func smoothBeatStrengths(x []float64) []float64 {
	w := window.Hann(5)
	full := make([]float64, len(x)+len(w)-1)
	for i, v := range x {
		for k, c := range w {
			full[i+k] += v * c
		}
	}
	if len(full) <= 2 {
		return nil
	}
	return full[2:]
}
