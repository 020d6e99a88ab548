// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"strings"
)

// ReductionMode selects how the scaled bins of one bar collapse to a single
// value.
type ReductionMode int

const (
	// ReducePeak takes the loudest bin in the range.
	ReducePeak ReductionMode = iota
	// ReduceAverage takes the mean of the range.
	ReduceAverage
)

func (r ReductionMode) String() string {
	switch r {
	case ReducePeak:
		return "peak"
	case ReduceAverage:
		return "average"
	default:
		return fmt.Sprintf("reduction(%d)", int(r))
	}
}

// ParseReductionMode converts "peak"/"max" or "average"/"mean".
func ParseReductionMode(s string) (ReductionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "peak", "max":
		return ReducePeak, nil
	case "average", "avg", "mean":
		return ReduceAverage, nil
	default:
		return ReducePeak, fmt.Errorf("unknown reduction mode %q", s)
	}
}

const (
	// DefaultNoiseFloorDB maps to bar height 0; 0 dB maps to MaxLevel.
	DefaultNoiseFloorDB = -60.0

	MaxLevel = 100.0
)

// ScaleMagnitude converts a linear magnitude to a level in [0, 100]:
// 20*log10(magnitude*sensitivity) mapped linearly from [floorDB, 0] dB.
// Non-positive or NaN inputs give 0. A floorDB that is not negative falls
// back to DefaultNoiseFloorDB.
func ScaleMagnitude(magnitude, sensitivity, floorDB float64) float64 {
	v := magnitude * sensitivity
	if !(magnitude > 0) || !(v > 0) {
		return 0
	}
	if !(floorDB < 0) || math.IsInf(floorDB, 0) {
		floorDB = DefaultNoiseFloorDB
	}
	db := 20 * math.Log10(v)
	return clampLevel((db - floorDB) / -floorDB * MaxLevel)
}

// SmoothingFactor returns the fraction of the remaining distance covered in
// dt seconds for a time constant of timeMs milliseconds, clamped to [0, 1].
// A time constant <= 0 is instant.
func SmoothingFactor(dt, timeMs float64) float64 {
	if !(timeMs > 0) {
		return 1
	}
	if !(dt > 0) {
		return 0
	}
	return math.Min(dt/(timeMs/1000), 1)
}

func clampLevel(v float64) float64 {
	switch {
	case !(v > 0):
		return 0
	case v > MaxLevel:
		return MaxLevel
	default:
		return v
	}
}

// BarState is the smoothing state carried between frames for one bar.
type BarState struct {
	Height        float64 // last smoothed height, 0-100
	Peak          float64 // peak-hold marker, 0-100
	HoldRemaining float64 // seconds before the peak starts to fall
}

// ResizeState returns a state slice of length bars. Existing entries are
// kept, new ones start at zero. The input slice is never modified in place
// when it has to grow.
func ResizeState(state []BarState, bars int) []BarState {
	if bars <= len(state) {
		return state[:bars:bars]
	}
	next := make([]BarState, bars)
	copy(next, state)
	return next
}

// LevelProcessor turns a magnitude spectrum into bar heights and peak
// markers. It keeps a scratch buffer between calls and is not safe for
// concurrent use.
type LevelProcessor struct {
	scaled []float64
}

// Process scales every bin, reduces each bar's bin range, and advances
// state by dt seconds of attack/release smoothing and peak hold. state must
// have at least len(binMap) entries. Bin ranges reaching past the spectrum
// are cut short.
func (p *LevelProcessor) Process(spectrum []float64, binMap BarBinMap, state []BarState, s Snapshot, dt float64) VisualizerFrame {
	if !(dt >= 0) || math.IsInf(dt, 0) {
		dt = 0
	}
	if cap(p.scaled) < len(spectrum) {
		p.scaled = make([]float64, len(spectrum))
	}
	scaled := p.scaled[:len(spectrum)]
	for i, mag := range spectrum {
		scaled[i] = ScaleMagnitude(mag, s.Sensitivity, s.NoiseFloorDB)
	}

	attack := SmoothingFactor(dt, s.AttackMs)
	release := SmoothingFactor(dt, s.ReleaseMs)
	peakRelease := SmoothingFactor(dt, s.PeakReleaseMs)
	hold := math.Max(s.PeakHoldMs/1000, 0)

	frame := VisualizerFrame{
		BarHeights: make([]float64, len(binMap)),
		PeakLevels: make([]float64, len(binMap)),
	}

	for i, r := range binMap {
		target := reduce(scaled, r, s.Reduction)
		st := &state[i]

		factor := release
		if target > st.Height {
			factor = attack
		}
		st.Height = clampLevel(st.Height + (target-st.Height)*factor)

		switch {
		case st.Height >= st.Peak:
			st.Peak = st.Height
			st.HoldRemaining = hold
		case st.HoldRemaining > 0:
			st.HoldRemaining = math.Max(st.HoldRemaining-dt, 0)
		default:
			st.Peak = clampLevel(st.Peak - st.Peak*peakRelease)
		}

		frame.BarHeights[i] = st.Height
		frame.PeakLevels[i] = st.Peak
	}
	return frame
}

func reduce(scaled []float64, r BinRange, mode ReductionMode) float64 {
	start, end := max(r.Start, 0), min(r.End, len(scaled))
	if end <= start {
		return 0
	}
	if mode == ReduceAverage {
		var sum float64
		for _, v := range scaled[start:end] {
			sum += v
		}
		return sum / float64(end-start)
	}
	peak := scaled[start]
	for _, v := range scaled[start+1 : end] {
		if v > peak {
			peak = v
		}
	}
	return peak
}
