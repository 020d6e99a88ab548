// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"beanal/internal/log"

	"github.com/gordonklaus/portaudio"
)

// PortAudioConfig controls how capture streams are opened.
type PortAudioConfig struct {
	SampleRate      float64 // 0 uses the device default
	FramesPerBuffer int
	Channels        int // requested; capped at the device maximum
	LowLatency      bool
}

// PortAudioSource captures from a PortAudio input device. For system
// output capture select a loopback or monitor input (for example a
// PulseAudio "Monitor of ..." device). Interleaved input is averaged to
// mono before delivery.
type PortAudioSource struct {
	cfg    PortAudioConfig
	logger *log.Logger

	mu       sync.Mutex
	stream   *portaudio.Stream
	channels int

	sub        subscription
	sampleRate atomicFloat
	mono       []float32 // downmix buffer, owned by the callback

	watchdog *watchdog
	ticker   *time.Ticker
}

// NewPortAudioSource creates a source; nothing is opened until Start.
func NewPortAudioSource(cfg PortAudioConfig) *PortAudioSource {
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = 512
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}
	s := &PortAudioSource{cfg: cfg, logger: log.New("capture")}
	s.sampleRate.Store(cfg.SampleRate)
	return s
}

// Start initializes PortAudio, opens deviceID and starts the stream.
func (s *PortAudioSource) Start(deviceID string, onSamples SamplesFunc, onStopped StoppedFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return ErrAlreadyRunning
	}

	if err := Initialize(); err != nil {
		return err
	}
	stream, err := s.open(deviceID)
	if err != nil {
		Terminate()
		return err
	}

	timeout := stallTimeout(s.cfg.FramesPerBuffer, s.SampleRate())
	s.watchdog = newWatchdog(timeout, time.Now)
	s.sub.set(onSamples, onStopped)
	if err := stream.Start(); err != nil {
		s.sub.clear()
		stream.Close()
		Terminate()
		s.watchdog = nil
		return fmt.Errorf("starting stream: %w", err)
	}
	s.stream = stream
	s.watchdog.beat()
	s.ticker = time.NewTicker(timeout / 4)
	s.watchdog.watch(s.ticker.C, &s.sub)
	return nil
}

func (s *PortAudioSource) open(deviceID string) (*portaudio.Stream, error) {
	device, err := InputDevice(deviceID)
	if err != nil {
		return nil, err
	}

	channels := min(s.cfg.Channels, device.MaxInputChannels)
	if channels < 1 {
		return nil, fmt.Errorf("%w: %q has no input channels", ErrDeviceNotFound, device.Name)
	}
	rate := s.cfg.SampleRate
	if rate <= 0 {
		rate = device.DefaultSampleRate
	}
	latency := device.DefaultHighInputLatency
	if s.cfg.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: channels,
			Device:   device,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: s.cfg.FramesPerBuffer,
		SampleRate:      rate,
	}

	s.channels = channels
	s.mono = make([]float32, s.cfg.FramesPerBuffer)
	s.sampleRate.Store(rate)

	stream, err := portaudio.OpenStream(params, s.process)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", device.Name, err)
	}
	s.logger.With("device", device.Name, "channels", channels, "rate", rate,
		"latency", latency.Round(time.Microsecond)).Infof("stream opened")
	return stream, nil
}

// process is the PortAudio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (s *PortAudioSource) process(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if len(s.mono) < len(in)/s.channels {
		// Host delivered more frames than requested; only the first
		// FramesPerBuffer are used.
		in = in[:len(s.mono)*s.channels]
	}
	s.watchdog.beat()
	n := Downmix(s.mono, in, s.channels)
	s.sub.deliver(s.mono[:n])
}

// Stop unsubscribes the callbacks first, then stops and closes the stream.
// Stopping a source that is not running returns ErrNotRunning. A stream the
// watchdog gave up on is still open and is released here.
func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return ErrNotRunning
	}

	s.sub.clear()
	s.ticker.Stop()
	s.watchdog.stop()

	stream := s.stream
	s.stream = nil
	var firstErr error
	if err := stream.Stop(); err != nil {
		firstErr = fmt.Errorf("stopping stream: %w", err)
	}
	if err := stream.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing stream: %w", err)
	}
	if err := Terminate(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.watchdog = nil
	s.logger.Infof("stream closed")
	return firstErr
}

// SampleRate is the rate of the open stream, or the configured rate before
// the first Start.
func (s *PortAudioSource) SampleRate() float64 { return s.sampleRate.Load() }

// Devices lists capture devices. PortAudio is initialized for the duration
// of the call.
func (s *PortAudioSource) Devices() ([]Device, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	defer Terminate()
	return HostDevices()
}
