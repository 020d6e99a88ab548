// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"sync/atomic"
)

// MaxBars bounds the bar count a snapshot may request.
const MaxBars = 1024

// Snapshot is the analysis configuration read once at the start of every
// frame. It is passed by value; the pipeline never sees a half-applied
// change.
type Snapshot struct {
	Bars          int
	Sensitivity   float64
	AttackMs      float64
	ReleaseMs     float64
	PeakHoldMs    float64
	PeakReleaseMs float64
	NoiseFloorDB  float64
	SampleRate    float64
	Mapping       MappingMode
	Reduction     ReductionMode
}

// DefaultSnapshot returns the stock settings: 64 bars, unity sensitivity,
// 20 ms attack, 200 ms release, 1 s peak hold, 1.5 s peak release, -60 dB
// floor, 48 kHz.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Bars:          64,
		Sensitivity:   1.0,
		AttackMs:      20,
		ReleaseMs:     200,
		PeakHoldMs:    1000,
		PeakReleaseMs: 1500,
		NoiseFloorDB:  DefaultNoiseFloorDB,
		SampleRate:    48000,
		Mapping:       MappingHybrid,
		Reduction:     ReducePeak,
	}
}

// Validate checks the structural fields. Time constants may be zero or
// negative; those are treated as instant by the level processor.
func (s Snapshot) Validate() error {
	if s.Bars < 1 || s.Bars > MaxBars {
		return fmt.Errorf("%w: %w (bars=%d, max %d)", ErrInvalidSettings, ErrInvalidBarCount, s.Bars, MaxBars)
	}
	if !(s.SampleRate > 0) || math.IsInf(s.SampleRate, 0) {
		return fmt.Errorf("%w: %w (sample rate=%v)", ErrInvalidSettings, ErrInvalidSampleRate, s.SampleRate)
	}
	if !(s.Sensitivity > 0) || math.IsInf(s.Sensitivity, 0) {
		return fmt.Errorf("%w: sensitivity must be positive (got %v)", ErrInvalidSettings, s.Sensitivity)
	}
	if !(s.NoiseFloorDB < 0) || math.IsInf(s.NoiseFloorDB, 0) {
		return fmt.Errorf("%w: noise floor must be below 0 dB (got %v)", ErrInvalidSettings, s.NoiseFloorDB)
	}
	for name, v := range map[string]float64{
		"attack": s.AttackMs, "release": s.ReleaseMs,
		"peak hold": s.PeakHoldMs, "peak release": s.PeakReleaseMs,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s time is not finite", ErrInvalidSettings, name)
		}
	}
	return nil
}

// Settings publishes Snapshots from the control side to the capture thread.
// Writers replace the whole snapshot; the capture thread loads it with a
// single atomic read per frame.
type Settings struct {
	current atomic.Pointer[Snapshot]
}

// NewSettings creates a store holding initial, which must be valid.
func NewSettings(initial Snapshot) (*Settings, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	s := &Settings{}
	s.current.Store(&initial)
	return s, nil
}

// Load returns the current snapshot.
func (s *Settings) Load() Snapshot {
	return *s.current.Load()
}

// Store replaces the snapshot. Invalid snapshots are rejected and the
// previous one stays in effect.
func (s *Settings) Store(next Snapshot) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.current.Store(&next)
	return nil
}

// Update applies fn to a copy of the current snapshot and publishes the
// result, retrying if another writer got there first. If the edited copy
// is invalid nothing is published and the current snapshot is returned
// with the error.
func (s *Settings) Update(fn func(*Snapshot)) (Snapshot, error) {
	for {
		old := s.current.Load()
		next := *old
		fn(&next)
		if err := next.Validate(); err != nil {
			return *old, err
		}
		if s.current.CompareAndSwap(old, &next) {
			return next, nil
		}
	}
}
