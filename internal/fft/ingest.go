// SPDX-License-Identifier: MIT
package fft

import (
	"fmt"

	"beanal/pkg/bitint"
)

// Ingestor accumulates mono samples into a fixed-size complex window,
// applying the window coefficient to each sample as it arrives. The
// imaginary part of every slot is zero.
//
// Once the window is full further samples are ignored until Reset is
// called, which the pipeline does after the transform has consumed the
// window. Nothing on the per-sample path allocates.
type Ingestor struct {
	coeffs []float64
	buf    []complex128
	idx    int
	window WindowFunc
}

// NewIngestor creates an Ingestor for size samples windowed by w.
func NewIngestor(size int, w WindowFunc) (*Ingestor, error) {
	if size < MinSize || !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("ingestor: %w (got %d)", ErrInvalidSize, size)
	}
	return &Ingestor{
		coeffs: Coefficients(size, w),
		buf:    make([]complex128, size),
		window: w,
	}, nil
}

// Push stores one windowed sample and reports whether the window is now
// full. Pushing into a full window drops the sample.
func (in *Ingestor) Push(sample float32) bool {
	if in.idx >= len(in.buf) {
		return true
	}
	in.buf[in.idx] = complex(float64(sample)*in.coeffs[in.idx], 0)
	in.idx++
	return in.idx >= len(in.buf)
}

// Write consumes samples up to the remaining capacity and returns how many
// were taken. Samples beyond the capacity are not buffered; the caller
// decides whether to drop them.
func (in *Ingestor) Write(samples []float32) int {
	n := min(len(samples), len(in.buf)-in.idx)
	for i := range n {
		in.buf[in.idx] = complex(float64(samples[i])*in.coeffs[in.idx], 0)
		in.idx++
	}
	return n
}

// Full reports whether the window is ready for the transform.
func (in *Ingestor) Full() bool { return in.idx >= len(in.buf) }

// Remaining is the number of samples still needed to fill the window.
func (in *Ingestor) Remaining() int { return len(in.buf) - in.idx }

// Len is the number of samples currently held.
func (in *Ingestor) Len() int { return in.idx }

// Size is the window length N.
func (in *Ingestor) Size() int { return len(in.buf) }

// WindowFunc returns the window applied on ingestion.
func (in *Ingestor) WindowFunc() WindowFunc { return in.window }

// Coefficients exposes the precomputed window table (read-only).
func (in *Ingestor) Coefficients() []float64 { return in.coeffs }

// Window returns the backing window. The slice is overwritten in place on
// the next cycle and must not be retained.
func (in *Ingestor) Window() []complex128 { return in.buf }

// Reset rewinds the write index so the next Push starts a new window.
func (in *Ingestor) Reset() { in.idx = 0 }
