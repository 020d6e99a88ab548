// SPDX-License-Identifier: MIT
package fft

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the window applied to samples as they are ingested.
type WindowFunc int

// Available window functions. Hann is the default and the only one with a
// fixed amplitude correction; the others are corrected by their measured
// coherent gain.
const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Nuttall
	Lanczos
	Rectangular
)

// hannCorrection compensates the Hann window's average attenuation of 0.5.
const hannCorrection = 2.0

var windowNames = map[WindowFunc]string{
	Hann:            "hann",
	Hamming:         "hamming",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	BartlettHann:    "bartletthann",
	Nuttall:         "nuttall",
	Lanczos:         "lanczos",
	Rectangular:     "rectangular",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("window(%d)", int(w))
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc. Unknown
// names return Hann together with an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "nuttall":
		return Nuttall, nil
	case "lanczos":
		return Lanczos, nil
	case "rectangular", "rect", "none":
		return Rectangular, nil
	default:
		return Hann, fmt.Errorf("unknown window function %q", name)
	}
}

// Coefficients returns the size window coefficients for w. For Hann this is
// w(i) = 0.5 - 0.5*cos(2*pi*i/(size-1)).
func Coefficients(size int, w WindowFunc) []float64 {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	if size < 2 {
		return coeffs
	}
	switch w {
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Rectangular:
	default:
		window.Hann(coeffs)
	}
	return coeffs
}

// AmplitudeCorrection returns the factor that undoes the window's average
// attenuation: exactly 2.0 for Hann, the inverse coherent gain otherwise.
func AmplitudeCorrection(w WindowFunc, coeffs []float64) float64 {
	if w == Hann {
		return hannCorrection
	}
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	if sum <= 0 {
		return 1.0
	}
	return float64(len(coeffs)) / sum
}
