// SPDX-License-Identifier: MIT
package fft

import (
	"fmt"
	"math"

	"beanal/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Transformer runs a forward complex FFT over a filled window and derives
// the linear magnitude of the N/2 usable bins. The coefficients themselves
// are unnormalized, matching a textbook radix-2 Cooley-Tukey implementation;
// magnitudes are divided by N and scaled by the window's amplitude
// correction, so a full-scale sine reads about 0.5 (-6 dBFS).
type Transformer struct {
	size       int
	correction float64
	scale      float64 // correction / N
	fftObj     *fourier.CmplxFFT
	magnitude  []float64
}

// NewTransformer creates a Transformer for size-point windows. correction
// multiplies every magnitude (2.0 for Hann, see AmplitudeCorrection).
func NewTransformer(size int, correction float64) (*Transformer, error) {
	if size < MinSize || !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("transformer: %w (got %d)", ErrInvalidSize, size)
	}
	if correction <= 0 || math.IsNaN(correction) || math.IsInf(correction, 0) {
		correction = 1.0
	}
	return &Transformer{
		size:       size,
		correction: correction,
		scale:      correction / float64(size),
		fftObj:     fourier.NewCmplxFFT(size),
		magnitude:  make([]float64, size/2),
	}, nil
}

// Transform computes the FFT of window in place and returns the normalized,
// corrected magnitude spectrum. The returned slice is reused on the next call.
// Transform panics if len(window) is not the configured size.
func (t *Transformer) Transform(window []complex128) []float64 {
	if len(window) != t.size {
		panic(fmt.Sprintf("fft: window length %d does not match transform size %d", len(window), t.size))
	}
	t.fftObj.Coefficients(window, window)

	for i := range t.magnitude {
		re, im := real(window[i]), imag(window[i])
		t.magnitude[i] = math.Sqrt(re*re+im*im) * t.scale
	}
	return t.magnitude
}

// Size is the transform length N.
func (t *Transformer) Size() int { return t.size }

// Bins is the number of usable magnitude bins (N/2).
func (t *Transformer) Bins() int { return len(t.magnitude) }

// Correction is the amplitude correction factor applied to magnitudes.
func (t *Transformer) Correction() float64 { return t.correction }

// BinFrequency returns the frequency in Hz at the lower edge of bin i.
// Out-of-range bins return 0.
func (t *Transformer) BinFrequency(i int, sampleRate float64) float64 {
	if i < 0 || i >= len(t.magnitude) {
		return 0
	}
	return float64(i) * sampleRate / float64(t.size)
}
