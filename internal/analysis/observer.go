// SPDX-License-Identifier: MIT
package analysis

import (
	"sync"
	"time"

	"beanal/internal/log"
)

// FrameStats describes one emitted frame.
type FrameStats struct {
	Sequence       uint64
	Bars           int
	DeltaTime      time.Duration
	Duration       time.Duration // transform + level processing
	DroppedSamples uint64        // samples discarded since the previous frame
	DroppedFrames  uint64        // total frames discarded because the queue was full
}

// MapStats describes a bin map rebuild.
type MapStats struct {
	Bars       int
	FFTSize    int
	SampleRate float64
	Mode       MappingMode
	Duration   time.Duration
}

// Observer receives pipeline events. Methods run on the capture thread and
// must return quickly.
type Observer interface {
	FrameProcessed(FrameStats)
	BinMapRebuilt(MapStats)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) FrameProcessed(FrameStats) {}
func (NopObserver) BinMapRebuilt(MapStats)    {}

// MultiObserver forwards events to each observer in order.
type MultiObserver []Observer

func (m MultiObserver) FrameProcessed(s FrameStats) {
	for _, o := range m {
		o.FrameProcessed(s)
	}
}

func (m MultiObserver) BinMapRebuilt(s MapStats) {
	for _, o := range m {
		o.BinMapRebuilt(s)
	}
}

// LogObserver writes rebuilds at INFO and frames at DEBUG.
type LogObserver struct {
	Logger *log.Logger
}

// NewLogObserver returns a LogObserver tagged with the "analysis" component.
func NewLogObserver() *LogObserver {
	return &LogObserver{Logger: log.New("analysis")}
}

func (o *LogObserver) FrameProcessed(s FrameStats) {
	if !log.Enabled(log.LevelDebug) {
		return
	}
	o.Logger.With("seq", s.Sequence, "bars", s.Bars, "dt", s.DeltaTime, "took", s.Duration,
		"dropped_samples", s.DroppedSamples, "dropped_frames", s.DroppedFrames).Debugf("frame")
}

func (o *LogObserver) BinMapRebuilt(s MapStats) {
	o.Logger.With("bars", s.Bars, "fft_size", s.FFTSize, "sample_rate", s.SampleRate,
		"mode", s.Mode, "took", s.Duration).Infof("bin map rebuilt")
}

// PerfSnapshot is a point-in-time copy of PerfStats.
type PerfSnapshot struct {
	Frames         uint64
	Rebuilds       uint64
	Min, Avg, Max  time.Duration
	Last           time.Duration
	DroppedSamples uint64
	DroppedFrames  uint64
}

// PerfStats accumulates processing times across frames. It is safe to read
// from the UI while the capture thread records.
type PerfStats struct {
	mu    sync.Mutex
	total time.Duration
	snap  PerfSnapshot
}

func (p *PerfStats) FrameProcessed(s FrameStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.snap.Frames++
	p.total += s.Duration
	p.snap.Last = s.Duration
	if p.snap.Frames == 1 || s.Duration < p.snap.Min {
		p.snap.Min = s.Duration
	}
	if s.Duration > p.snap.Max {
		p.snap.Max = s.Duration
	}
	p.snap.Avg = p.total / time.Duration(p.snap.Frames)
	p.snap.DroppedSamples += s.DroppedSamples
	p.snap.DroppedFrames = s.DroppedFrames
}

func (p *PerfStats) BinMapRebuilt(MapStats) {
	p.mu.Lock()
	p.snap.Rebuilds++
	p.mu.Unlock()
}

// Snapshot returns the accumulated statistics.
func (p *PerfStats) Snapshot() PerfSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Reset clears all counters.
func (p *PerfStats) Reset() {
	p.mu.Lock()
	p.total = 0
	p.snap = PerfSnapshot{}
	p.mu.Unlock()
}
