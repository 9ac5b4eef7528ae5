package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the go-dsp real FFT.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the DFT of a real signal. Any length is accepted.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// PowerSpectrum returns |X[k]|^2 for the non-negative frequency bins of x.
func (f *FFT) PowerSpectrum(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}
	spectrum := f.Compute(x)
	bins := len(x)/2 + 1
	power := make([]float64, bins)
	for i := range bins {
		re, im := real(spectrum[i]), imag(spectrum[i])
		power[i] = re*re + im*im
	}
	return power
}
