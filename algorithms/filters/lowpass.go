package filters

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// minBlockSize is the smallest FFT block used by overlap-add filtering.
const minBlockSize = 4096

// LowpassFilter is a linear-phase FIR low-pass filter: a Blackman-windowed
// sinc kernel applied by FFT overlap-add. Output is aligned with the input
// (the kernel's group delay is removed) and has the input's length.
type LowpassFilter struct {
	kernel []float64
}

// NewLowpassFilter designs a filter passing frequencies below cutoffHz with a
// transition band roughly transitionHz wide. The Blackman window gives about
// 74 dB of stopband attenuation.
func NewLowpassFilter(sampleRate int, cutoffHz, transitionHz float64) (*LowpassFilter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}
	nyquist := float64(sampleRate) / 2
	if cutoffHz <= 0 || cutoffHz >= nyquist {
		return nil, fmt.Errorf("cutoff must be in (0, %.1f) Hz: %v", nyquist, cutoffHz)
	}
	if transitionHz <= 0 {
		return nil, fmt.Errorf("transition width must be positive: %v", transitionHz)
	}

	taps := int(math.Ceil(5.5 * float64(sampleRate) / transitionHz))
	if taps%2 == 0 {
		taps++
	}

	fc := cutoffHz / float64(sampleRate)
	center := float64(taps-1) / 2
	kernel := window.Blackman(taps)
	sum := 0.0
	for n := range kernel {
		x := float64(n) - center
		sinc := 2 * fc
		if x != 0 {
			sinc = math.Sin(2*math.Pi*fc*x) / (math.Pi * x)
		}
		kernel[n] *= sinc
		sum += kernel[n]
	}
	for n := range kernel {
		kernel[n] /= sum
	}

	return &LowpassFilter{kernel: kernel}, nil
}

// Taps returns the kernel length.
func (lf *LowpassFilter) Taps() int { return len(lf.kernel) }

// ProcessBuffer filters signal and returns a new slice of the same length.
func (lf *LowpassFilter) ProcessBuffer(signal []float64) []float64 {
	n, m := len(signal), len(lf.kernel)
	if n == 0 {
		return []float64{}
	}

	block := nextPowerOfTwo(max(minBlockSize, 4*m))
	step := block - m + 1

	padded := make([]float64, block)
	copy(padded, lf.kernel)
	response := fft.FFTReal(padded)

	full := make([]float64, n+m-1)
	buf := make([]float64, block)
	for start := 0; start < n; start += step {
		end := min(start+step, n)
		clear(buf)
		copy(buf, signal[start:end])

		spectrum := fft.FFTReal(buf)
		for k := range spectrum {
			spectrum[k] *= response[k]
		}
		out := fft.IFFT(spectrum)
		for i := 0; i < end-start+m-1; i++ {
			full[start+i] += real(out[i])
		}
	}

	delay := (m - 1) / 2
	return append([]float64(nil), full[delay:delay+n]...)
}

// AntiAliasFilter returns a low-pass filter suitable before decimating from
// sampleRate to targetRate: passband up to 0.4*targetRate, stopband from
// the target Nyquist frequency.
func AntiAliasFilter(sampleRate, targetRate int) (*LowpassFilter, error) {
	if targetRate <= 0 || targetRate >= sampleRate {
		return nil, fmt.Errorf("anti-alias target %d must be below source rate %d", targetRate, sampleRate)
	}
	return NewLowpassFilter(sampleRate, 0.45*float64(targetRate), 0.1*float64(targetRate))
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
