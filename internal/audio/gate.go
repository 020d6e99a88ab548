// SPDX-License-Identifier: MIT
package audio

import "sync/atomic"

// Gate is a noise gate: chunks whose peak absolute amplitude is below the
// threshold are replaced by silence. Threshold and enable state may be
// changed from any goroutine while Process runs on the capture thread.
type Gate struct {
	enabled   atomic.Bool
	threshold atomicFloat
}

// NewGate returns a disabled gate with the given threshold.
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	return g
}

func (g *Gate) Enable()       { g.enabled.Store(true) }
func (g *Gate) Disable()      { g.enabled.Store(false) }
func (g *Gate) Enabled() bool { return g.enabled.Load() }

// SetThreshold adjusts the noise gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	if !(threshold > 0) {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	g.threshold.Store(threshold)
}

// Threshold returns the current noise gate threshold.
func (g *Gate) Threshold() float64 {
	return g.threshold.Load()
}

// Open reports whether a chunk with this peak amplitude passes the gate.
func (g *Gate) Open(peak float32) bool {
	return !g.enabled.Load() || float64(peak) >= g.threshold.Load()
}

// Process zeroes samples in place when the gate is closed for them.
// Performance Critical (Hot Path):
// - No allocations
func (g *Gate) Process(samples []float32) {
	if !g.enabled.Load() {
		return
	}
	if !g.Open(PeakAmplitude(samples)) {
		clear(samples)
	}
}

// PeakAmplitude returns the largest absolute sample value.
func PeakAmplitude(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}
