package temporal

import (
	"math"
)

// SilenceDetection finds near-silent audio at the start of a recording.
type SilenceDetection struct {
	chunkMs int
}

// NewSilenceDetection creates a detector that scans in chunkMs steps.
func NewSilenceDetection(chunkMs int) *SilenceDetection {
	if chunkMs <= 0 {
		chunkMs = 10
	}
	return &SilenceDetection{chunkMs: chunkMs}
}

// DBFS returns the RMS level of samples [start, end) across all channels in
// dB relative to full scale 1.0. Digital silence and empty ranges are -Inf.
func DBFS(channels [][]float64, start, end int) float64 {
	sumSquares := 0.0
	count := 0
	for _, ch := range channels {
		lo, hi := max(0, start), min(end, len(ch))
		for i := lo; i < hi; i++ {
			sumSquares += ch[i] * ch[i]
			count++
		}
	}
	if count == 0 || sumSquares == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(math.Sqrt(sumSquares/float64(count)))
}

// LeadingSilence returns the number of samples at the start of channels that
// stay below thresholdDB, measured chunk by chunk. The result is a chunk
// boundary, clamped to the signal length.
func (sd *SilenceDetection) LeadingSilence(channels [][]float64, sampleRate int, thresholdDB float64) int {
	n := 0
	if len(channels) > 0 {
		n = len(channels[0])
	}
	if n == 0 || sampleRate <= 0 {
		return 0
	}

	toSample := func(ms int) int {
		return int(float64(ms) * float64(sampleRate) / 1000.0)
	}

	trimMs := 0
	for toSample(trimMs) < n {
		start, end := toSample(trimMs), toSample(trimMs+sd.chunkMs)
		if DBFS(channels, start, end) >= thresholdDB {
			break
		}
		trimMs += sd.chunkMs
	}

	return min(toSample(trimMs), n)
}

// TrimPoint applies the relative threshold rule: chunks quieter than the
// whole recording's level minus offsetDB count as silence. A silent recording
// is never trimmed.
func (sd *SilenceDetection) TrimPoint(channels [][]float64, sampleRate int, offsetDB float64) int {
	n := 0
	if len(channels) > 0 {
		n = len(channels[0])
	}
	overall := DBFS(channels, 0, n)
	if math.IsInf(overall, -1) {
		return 0
	}
	return sd.LeadingSilence(channels, sampleRate, overall-offsetDB)
}
