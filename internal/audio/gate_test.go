// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"testing"
)

func TestGateEnable(t *testing.T) {
	g := NewGate(0.1)
	if g.Enabled() {
		t.Error("Gate should be disabled initially")
	}

	g.Enable()
	g.Enable() // Multiple calls should be idempotent
	if !g.Enabled() {
		t.Error("Gate should be enabled after Enable()")
	}

	g.Disable()
	g.Disable()
	if g.Enabled() {
		t.Error("Gate should be disabled after Disable()")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.5, 1.0},  // Above max
	}

	g := NewGate(0)
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2f", tt.input), func(t *testing.T) {
			g.SetThreshold(tt.input)
			if got := g.Threshold(); got != tt.expected {
				t.Errorf("Threshold() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGateProcess(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		threshold  float64
		samples    []float32
		wantSilent bool
	}{
		{"disabled passes quiet", false, 0.5, []float32{0.01, -0.02}, false},
		{"quiet chunk closed", true, 0.1, []float32{0.01, -0.05, 0.02}, true},
		{"loud chunk open", true, 0.1, []float32{0.01, -0.5, 0.02}, false},
		{"negative peak counts", true, 0.1, []float32{-0.2}, false},
		{"zero threshold always open", true, 0, []float32{0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.threshold)
			if tt.enabled {
				g.Enable()
			}
			buf := append([]float32(nil), tt.samples...)
			g.Process(buf)

			silent := true
			for i, s := range buf {
				if s != 0 {
					silent = false
				}
				if !tt.wantSilent && s != tt.samples[i] {
					t.Fatalf("open gate modified sample %d: %v -> %v", i, tt.samples[i], s)
				}
			}
			if tt.wantSilent && !silent {
				t.Errorf("closed gate left signal: %v", buf)
			}
		})
	}
}

func TestPeakAmplitude(t *testing.T) {
	if got := PeakAmplitude([]float32{0.1, -0.7, 0.3}); got != 0.7 {
		t.Errorf("PeakAmplitude = %v, want 0.7", got)
	}
	if got := PeakAmplitude(nil); got != 0 {
		t.Errorf("PeakAmplitude(nil) = %v", got)
	}
}

// TestNoiseGateHotPath tests the gate for zero allocations.
func TestNoiseGateHotPath(t *testing.T) {
	buffer := make([]float32, 1024)
	for i := range buffer {
		buffer[i] = float32(i%100) / 1000
	}
	g := NewGate(0.5)
	g.Enable()

	allocs := testing.AllocsPerRun(100, func() {
		g.Process(buffer)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in noise gate hot path, got %.1f", allocs)
	}
}

func BenchmarkGate(b *testing.B) {
	buffer := make([]float32, 1024)
	for i := range buffer {
		buffer[i] = float32(i%100) / 100
	}
	g := NewGate(0.5)
	g.Enable()

	for b.Loop() {
		g.Process(buffer)
	}
}
