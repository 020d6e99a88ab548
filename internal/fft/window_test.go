// SPDX-License-Identifier: MIT
package fft

import (
	"math"
	"testing"
)

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"", Hann, false},
		{"Hann", Hann, false},
		{"hanning", Hann, false},
		{"HAMMING", Hamming, false},
		{"blackman", Blackman, false},
		{"rect", Rectangular, false},
		{"kaiser", Hann, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.name)
			if got != tt.want || (err != nil) != tt.wantErr {
				t.Errorf("ParseWindowFunc(%q) = (%v, %v), want (%v, err=%v)", tt.name, got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestAmplitudeCorrection(t *testing.T) {
	const n = 1024

	if got := AmplitudeCorrection(Hann, Coefficients(n, Hann)); got != 2.0 {
		t.Errorf("Hann correction = %v, want exactly 2.0", got)
	}
	if got := AmplitudeCorrection(Rectangular, Coefficients(n, Rectangular)); got != 1.0 {
		t.Errorf("Rectangular correction = %v, want 1.0", got)
	}
	// Hamming coherent gain is 0.54.
	if got := AmplitudeCorrection(Hamming, Coefficients(n, Hamming)); math.Abs(got-1/0.54) > 0.01 {
		t.Errorf("Hamming correction = %v, want ≈ %v", got, 1/0.54)
	}
}

func TestCoefficientsEndpoints(t *testing.T) {
	c := Coefficients(9, Hann)
	if c[0] > 1e-12 || c[8] > 1e-12 {
		t.Errorf("Hann endpoints should be zero: %v, %v", c[0], c[8])
	}
	if math.Abs(c[4]-1) > 1e-12 {
		t.Errorf("Hann centre = %v, want 1", c[4])
	}
	if s := Hann.String(); s != "hann" {
		t.Errorf("String() = %q", s)
	}
}
