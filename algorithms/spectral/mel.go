package spectral

import (
	"math"
)

// MelFilterBank maps linear-frequency power spectra onto triangular mel bands.
type MelFilterBank struct {
	filters [][]float64
}

// HzToMel converts frequency in Hz to the HTK mel scale.
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts an HTK mel value back to Hz.
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// NewMelFilterBank creates numFilters triangular filters spanning
// [lowFreq, highFreq] for spectra of an fftSize-point transform.
func NewMelFilterBank(numFilters, fftSize, sampleRate int, lowFreq, highFreq float64) *MelFilterBank {
	if numFilters <= 0 || fftSize <= 0 || sampleRate <= 0 {
		return &MelFilterBank{}
	}
	bins := fftSize/2 + 1

	lowMel := HzToMel(lowFreq)
	highMel := HzToMel(highFreq)
	melStep := (highMel - lowMel) / float64(numFilters+1)

	// Band edges in fractional FFT bins.
	edges := make([]float64, numFilters+2)
	for i := range edges {
		hz := MelToHz(lowMel + float64(i)*melStep)
		edges[i] = hz * float64(fftSize) / float64(sampleRate)
	}

	filters := make([][]float64, numFilters)
	for m := range numFilters {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		filter := make([]float64, bins)
		for k := range bins {
			f := float64(k)
			switch {
			case f > left && f <= center && center > left:
				filter[k] = (f - left) / (center - left)
			case f > center && f < right && right > center:
				filter[k] = (right - f) / (right - center)
			}
		}
		filters[m] = filter
	}

	return &MelFilterBank{filters: filters}
}

// NumFilters returns the number of mel bands.
func (mb *MelFilterBank) NumFilters() int { return len(mb.filters) }

// Apply projects a power spectrum onto the mel bands.
func (mb *MelFilterBank) Apply(power []float64) []float64 {
	mel := make([]float64, len(mb.filters))
	for i, filter := range mb.filters {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(power); j++ {
			sum += power[j] * filter[j]
		}
		mel[i] = sum
	}
	return mel
}

// ApplyFrames projects every frame of a time x frequency power spectrogram.
func (mb *MelFilterBank) ApplyFrames(power [][]float64) [][]float64 {
	out := make([][]float64, len(power))
	for t, frame := range power {
		out[t] = mb.Apply(frame)
	}
	return out
}

// PowerToDB converts power values to decibels relative to 1.0, flooring at
// amin and clipping everything more than topDB below the peak. topDB <= 0
// disables clipping.
func PowerToDB(power [][]float64, amin, topDB float64) [][]float64 {
	db := make([][]float64, len(power))
	peak := math.Inf(-1)
	for t, frame := range power {
		db[t] = make([]float64, len(frame))
		for f, p := range frame {
			v := 10 * math.Log10(math.Max(p, amin))
			db[t][f] = v
			peak = math.Max(peak, v)
		}
	}
	if topDB > 0 {
		floor := peak - topDB
		for _, frame := range db {
			for f, v := range frame {
				if v < floor {
					frame[f] = floor
				}
			}
		}
	}
	return db
}
