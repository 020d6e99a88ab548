// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"beanal/internal/analysis"
	"beanal/internal/fft"
	"beanal/internal/log"
)

// Level is the effective log level: Debug forces debug, otherwise
// log_level applies.
func (c *Config) Level() log.LogLevel {
	if c.Debug {
		return log.LevelDebug
	}
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}

// Window returns the parsed FFT window function.
func (c *Config) Window() fft.WindowFunc {
	w, err := fft.ParseWindowFunc(c.Analysis.FFTWindow)
	if err != nil {
		return fft.Hann
	}
	return w
}

// Snapshot converts the analysis section into the settings the pipeline
// starts with.
func (c *Config) Snapshot() (analysis.Snapshot, error) {
	n := c.Analysis
	mapping, err := analysis.ParseMappingMode(n.Mapping)
	if err != nil {
		return analysis.Snapshot{}, err
	}
	reduction, err := analysis.ParseReductionMode(n.Reduction)
	if err != nil {
		return analysis.Snapshot{}, err
	}
	s := analysis.Snapshot{
		Bars:          n.Bars,
		Sensitivity:   n.Sensitivity,
		AttackMs:      n.AttackMs,
		ReleaseMs:     n.ReleaseMs,
		PeakHoldMs:    n.PeakHoldMs,
		PeakReleaseMs: n.PeakReleaseMs,
		NoiseFloorDB:  n.NoiseFloorDB,
		SampleRate:    c.Audio.SampleRate,
		Mapping:       mapping,
		Reduction:     reduction,
	}
	return s, s.Validate()
}

// FrequencyResolution is the width of one FFT bin in Hz.
func (c *Config) FrequencyResolution() float64 {
	return c.Audio.SampleRate / float64(c.Analysis.FFTSize)
}

// LatencyMs is the duration of one FFT window in milliseconds.
func (c *Config) LatencyMs() float64 {
	return float64(c.Analysis.FFTSize) / c.Audio.SampleRate * 1000
}

// FFTInfo summarizes the transform geometry for logs and the version
// command.
func (c *Config) FFTInfo() string {
	return fmt.Sprintf("FFT %d (%s), %.2f Hz/bin, %.1f ms/frame at %.0f Hz",
		c.Analysis.FFTSize, c.Window(), c.FrequencyResolution(), c.LatencyMs(), c.Audio.SampleRate)
}

// RecordPath is the file a recording started at t is written to, or "" if
// recording is disabled.
func (c *Config) RecordPath(t time.Time) string {
	if !c.Recording.Enabled {
		return ""
	}
	return filepath.Join(c.Recording.OutputDir, "beanal-"+t.Format("20060102-150405")+".wav")
}
