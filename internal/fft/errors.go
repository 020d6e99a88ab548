// SPDX-License-Identifier: MIT
package fft

import "errors"

// MinSize is the smallest transform size accepted.
const MinSize = 2

var (
	// ErrInvalidSize is returned when the FFT size is not a power of two or
	// is smaller than MinSize.
	ErrInvalidSize = errors.New("fft size must be a power of two >= 2")
)
