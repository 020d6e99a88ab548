// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"strings"

	"beanal/internal/fft"
	"beanal/pkg/bitint"
)

// MappingMode selects how bars are spread across the spectrum.
type MappingMode int

const (
	// MappingHybrid gives the lowest 40% of bars one FFT bin each and spaces
	// the rest geometrically up to 20 kHz.
	MappingHybrid MappingMode = iota
	// MappingLogarithmic spaces every bar geometrically from 20 Hz to 20 kHz.
	MappingLogarithmic
)

func (m MappingMode) String() string {
	switch m {
	case MappingHybrid:
		return "hybrid"
	case MappingLogarithmic:
		return "log"
	default:
		return fmt.Sprintf("mapping(%d)", int(m))
	}
}

// ParseMappingMode converts "hybrid" or "log"/"logarithmic" to a MappingMode.
func ParseMappingMode(s string) (MappingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hybrid":
		return MappingHybrid, nil
	case "log", "logarithmic":
		return MappingLogarithmic, nil
	default:
		return MappingHybrid, fmt.Errorf("unknown mapping mode %q", s)
	}
}

const (
	linearShare  = 0.4
	minFrequency = 20.0
	maxFrequency = 20000.0

	// binEpsilon absorbs rounding in freq/resolution so an exact bin
	// boundary does not truncate to the bin below.
	binEpsilon = 1e-9

	// MinMapFFTSize is the smallest FFT size a bin map can be built for:
	// two usable bins are needed for a non-empty [start, end) range.
	MinMapFFTSize = 4
)

// BinRange is the half-open FFT bin range [Start, End) feeding one bar.
type BinRange struct {
	Start int
	End   int
}

// Width is the number of bins in the range.
func (r BinRange) Width() int { return r.End - r.Start }

// BarBinMap holds one BinRange per bar, lowest frequency first.
type BarBinMap []BinRange

// Equal reports whether two maps have identical ranges.
func (m BarBinMap) Equal(other BarBinMap) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// BuildBinMap computes the bar-to-bin map for bars bars over an fftSize-point
// transform at sampleRate.
//
// Every returned range satisfies 0 <= Start < End <= fftSize/2-1 and starts
// are non-decreasing, whatever the bar count.
func BuildBinMap(bars, fftSize int, sampleRate float64, mode MappingMode) (BarBinMap, error) {
	if bars < 1 {
		return nil, fmt.Errorf("bin map: %w (got %d)", ErrInvalidBarCount, bars)
	}
	if fftSize < MinMapFFTSize || !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("bin map: %w (got %d)", fft.ErrInvalidSize, fftSize)
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("bin map: %w (got %v)", ErrInvalidSampleRate, sampleRate)
	}

	maxBin := fftSize/2 - 1
	resolution := sampleRate / float64(fftSize)
	m := make(BarBinMap, bars)

	linearBars := 0
	minLogFreq := minFrequency
	if mode != MappingLogarithmic {
		linearBars = int(math.Floor(float64(bars) * linearShare))
		for i := range linearBars {
			m[i] = clampRange(i+1, i+2, maxBin)
		}
		minLogFreq = float64(linearBars+1) * resolution
	}

	logBars := bars - linearBars
	ratio := math.Max(maxFrequency/minLogFreq, 1)
	for j := range logBars {
		lo := minLogFreq * math.Pow(ratio, float64(j)/float64(logBars))
		hi := minLogFreq * math.Pow(ratio, float64(j+1)/float64(logBars))
		m[linearBars+j] = clampRange(freqToBin(lo, resolution), freqToBin(hi, resolution), maxBin)
	}
	return m, nil
}

func freqToBin(freq, resolution float64) int {
	return int(freq/resolution + binEpsilon)
}

// clampRange keeps a range inside [0, maxBin] with at least one bin. Start
// is held below maxBin so widening never pushes End out of bounds.
func clampRange(start, end, maxBin int) BinRange {
	start = min(max(start, 0), maxBin-1)
	end = min(max(end, 0), maxBin)
	if end <= start {
		end = start + 1
	}
	if end > maxBin {
		end = maxBin
	}
	return BinRange{Start: start, End: end}
}

// BinMapper caches the bin map for one FFT size and rebuilds it only when the
// bar count, sample rate or mapping mode changes.
type BinMapper struct {
	fftSize    int
	bars       int
	sampleRate float64
	mode       MappingMode
	current    BarBinMap
	rebuilds   int
}

// NewBinMapper creates a mapper for fftSize-point spectra.
func NewBinMapper(fftSize int) (*BinMapper, error) {
	if fftSize < MinMapFFTSize || !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("bin mapper: %w (got %d)", fft.ErrInvalidSize, fftSize)
	}
	return &BinMapper{fftSize: fftSize}, nil
}

// Map returns the bin map for the given geometry, reporting whether it had to
// be rebuilt. The returned map must not be modified.
func (m *BinMapper) Map(bars int, sampleRate float64, mode MappingMode) (BarBinMap, bool, error) {
	if m.current != nil && bars == m.bars && sampleRate == m.sampleRate && mode == m.mode {
		return m.current, false, nil
	}
	next, err := BuildBinMap(bars, m.fftSize, sampleRate, mode)
	if err != nil {
		return m.current, false, err
	}
	m.current = next
	m.bars, m.sampleRate, m.mode = bars, sampleRate, mode
	m.rebuilds++
	return next, true, nil
}

// Rebuilds counts how many times the map has been recomputed.
func (m *BinMapper) Rebuilds() int { return m.rebuilds }

// FFTSize is the transform size the mapper was built for.
func (m *BinMapper) FFTSize() int { return m.fftSize }
