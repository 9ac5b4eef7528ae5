package spectral

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"
)

// Window is applied to each frame before its FFT.
type Window interface {
	ApplyInPlace(frame []float64) error
	Size() int
}

// HannWindow is a periodic Hann window, the DFT-even variant used for
// spectral analysis.
type HannWindow struct {
	coefficients []float64
}

// NewHannWindow builds a periodic Hann window of the given size.
func NewHannWindow(size int) *HannWindow {
	if size <= 0 {
		return &HannWindow{}
	}
	// go-dsp produces the symmetric form; the periodic window of length N is
	// the symmetric window of length N+1 without its last point.
	return &HannWindow{coefficients: window.Hann(size + 1)[:size]}
}

// ApplyInPlace multiplies frame by the window coefficients.
func (h *HannWindow) ApplyInPlace(frame []float64) error {
	if len(frame) != len(h.coefficients) {
		return fmt.Errorf("frame length (%d) doesn't match window size (%d)", len(frame), len(h.coefficients))
	}
	for i, c := range h.coefficients {
		frame[i] *= c
	}
	return nil
}

// Size returns the window length.
func (h *HannWindow) Size() int { return len(h.coefficients) }

// Coefficients returns a copy of the window.
func (h *HannWindow) Coefficients() []float64 {
	return append([]float64(nil), h.coefficients...)
}
