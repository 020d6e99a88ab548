// SPDX-License-Identifier: MIT
package main

import (
	"math"
	"testing"

	"beanal/internal/audio"
	"beanal/internal/config"
)

// rateSource reports a fixed rate and never delivers samples.
type rateSource struct{ rate float64 }

func (s rateSource) Start(string, audio.SamplesFunc, audio.StoppedFunc) error { return nil }
func (s rateSource) Stop() error                                             { return nil }
func (s rateSource) SampleRate() float64                                     { return s.rate }
func (s rateSource) Devices() ([]audio.Device, error)                        { return nil, nil }

func TestFrameRateFollowsSource(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.SampleRate = 48000
	cfg.Analysis.FFTSize = 1024

	tests := []struct {
		name string
		src  audio.Source
		want float64
	}{
		{"file at 44.1 kHz", rateSource{44100}, 44100.0 / 1024},
		{"synth at 96 kHz", audio.NewSynthSource(96000, 512), 96000.0 / 1024},
		{"rate not known yet", rateSource{0}, 48000.0 / 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := frameRate(tt.src, &cfg); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("frameRate = %v, want %v", got, tt.want)
			}
		})
	}
}
