// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"math/rand"
	"sync"
)

// Oscillator is one partial of a SynthSource. Amplitude is modulated
// between Amp*(1-AmpMod) and Amp at AmpModFreq Hz, frequency wobbles by
// ±FreqMod Hz at FreqModFreq Hz.
type Oscillator struct {
	Freq        float64
	Amp         float64
	AmpMod      float64
	AmpModFreq  float64
	FreqMod     float64
	FreqModFreq float64
}

// DemoOscillators is a bass-heavy spread of partials that keeps every part
// of the spectrum moving.
var DemoOscillators = []Oscillator{
	{Freq: 55, Amp: 0.8, AmpMod: 0.9, AmpModFreq: 2.1, FreqMod: 10, FreqModFreq: 2.1},
	{Freq: 80, Amp: 0.6, AmpMod: 0.8, AmpModFreq: 1.05},
	{Freq: 150, Amp: 0.4, AmpMod: 0.7, AmpModFreq: 3.3},
	{Freq: 220, Amp: 0.35, AmpMod: 0.6, AmpModFreq: 1.7},
	{Freq: 440, Amp: 0.3, AmpMod: 0.8, AmpModFreq: 0.8},
	{Freq: 660, Amp: 0.25, AmpMod: 0.75, AmpModFreq: 0.6},
	{Freq: 880, Amp: 0.2, AmpMod: 0.6, AmpModFreq: 1.5},
	{Freq: 1800, Amp: 0.1, AmpMod: 0.6, AmpModFreq: 3.0},
	{Freq: 3600, Amp: 0.06, AmpMod: 0.4, AmpModFreq: 2.2},
	{Freq: 8000, Amp: 0.03, AmpMod: 0.4, AmpModFreq: 5.5},
	{Freq: 12000, Amp: 0.02, AmpMod: 0.3, AmpModFreq: 3.5},
}

// SynthSource generates a mix of oscillators plus a little noise, paced
// like a live device. It needs no audio hardware.
type SynthSource struct {
	rate   float64
	frames int
	oscs   []Oscillator
	noise  float64
	gain   float64

	mu    sync.Mutex
	pacer *pacer
	sub   subscription

	// Generator state, owned by the pacer goroutine.
	rng    *rand.Rand
	t      float64
	phases []float64
	buf    []float32
}

// NewSynthSource creates a synthetic source. With no oscillators it plays
// DemoOscillators at a gain of 0.3 with light noise; otherwise the given
// oscillators are summed as-is.
func NewSynthSource(sampleRate float64, framesPerChunk int, oscs ...Oscillator) *SynthSource {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if framesPerChunk <= 0 {
		framesPerChunk = 512
	}
	s := &SynthSource{rate: sampleRate, frames: framesPerChunk, oscs: oscs, gain: 1}
	if len(oscs) == 0 {
		s.oscs = DemoOscillators
		s.noise = 0.01
		s.gain = 0.3
	}
	return s
}

// Start begins generation. deviceID is ignored.
func (s *SynthSource) Start(_ string, onSamples SamplesFunc, onStopped StoppedFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pacer != nil {
		return ErrAlreadyRunning
	}
	s.rng = rand.New(rand.NewSource(1))
	s.t = 0
	s.phases = make([]float64, len(s.oscs))
	s.buf = make([]float32, s.frames)

	s.sub.set(onSamples, onStopped)
	s.pacer = startPacer(chunkInterval(s.frames, s.rate), s.buf, s.Generate, &s.sub)
	return nil
}

// Generate fills dst with the next len(dst) samples. It is exported so the
// generator can be driven without a clock; it must not be called while the
// source is running.
func (s *SynthSource) Generate(dst []float32) (int, error) {
	if s.phases == nil {
		s.phases = make([]float64, len(s.oscs))
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(1))
	}
	dt := 1 / s.rate
	for i := range dst {
		t := s.t + float64(i)*dt
		var sample float64
		for j := range s.oscs {
			o := &s.oscs[j]
			amp := o.Amp * (1 - o.AmpMod + o.AmpMod*math.Abs(math.Sin(2*math.Pi*o.AmpModFreq*t)))
			freq := o.Freq + o.FreqMod*math.Sin(2*math.Pi*o.FreqModFreq*t)
			s.phases[j] += 2 * math.Pi * freq * dt
			sample += amp * math.Sin(s.phases[j])
		}
		if s.noise > 0 {
			sample += (s.rng.Float64()*2 - 1) * s.noise
		}
		dst[i] = float32(sample * s.gain)
	}
	s.t += float64(len(dst)) * dt
	for j := range s.phases {
		s.phases[j] = math.Mod(s.phases[j], 2*math.Pi)
	}
	return len(dst), nil
}

// Stop unsubscribes and waits for the generator goroutine.
func (s *SynthSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pacer == nil {
		return ErrNotRunning
	}
	s.sub.clear()
	s.pacer.stop()
	s.pacer = nil
	return nil
}

func (s *SynthSource) SampleRate() float64 { return s.rate }

func (s *SynthSource) Devices() ([]Device, error) {
	return []Device{{ID: "", Name: "Synthetic demo", MaxInputChannels: 1, DefaultSampleRate: s.rate, Default: true}}, nil
}
