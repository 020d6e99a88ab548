// SPDX-License-Identifier: MIT
/*
Package audio connects capture sources to the analysis pipeline:
- Capture sources delivering mono float samples (PortAudio, file replay, synth)
- Noise gate and WAV recording on the capture thread
- Engine lifecycle with an explicit stopped signal

Thread Safety:
- Source callbacks are held in atomic pointers and cleared before native release
- Pre-allocates buffers to avoid GC in hot path
- Sample rate changes are published to the analysis settings between chunks
*/
package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"beanal/internal/analysis"
	"beanal/internal/log"
)

// EngineConfig holds the capture-side processing options.
type EngineConfig struct {
	GateEnabled   bool
	GateThreshold float64 // 0-1 peak amplitude
	RecordPath    string  // record from Start when set
}

// Engine owns a Source and the analyzer it feeds. Samples flow
// source -> gate -> recorder -> analyzer inline on the capture thread;
// frames leave through Frames.
type Engine struct {
	cfg      EngineConfig
	source   Source
	analyzer *analysis.Analyzer
	settings *analysis.Settings
	gate     *Gate
	recorder *Recorder
	chain    analysis.Chain
	logger   *log.Logger

	mu       sync.Mutex
	running  atomic.Bool
	closed   bool
	deviceID string
	stopped  chan error

	publishedRate atomicFloat
}

// NewEngine wires source to analyzer. The analyzer's Settings receive the
// source's sample rate once samples flow.
func NewEngine(cfg EngineConfig, source Source, analyzer *analysis.Analyzer) (*Engine, error) {
	if source == nil || analyzer == nil {
		return nil, errors.New("engine: source and analyzer are required")
	}
	e := &Engine{
		cfg:      cfg,
		source:   source,
		analyzer: analyzer,
		settings: analyzer.Settings(),
		gate:     NewGate(cfg.GateThreshold),
		recorder: NewRecorder(),
		logger:   log.New("engine"),
		stopped:  make(chan error, 1),
	}
	if cfg.GateEnabled {
		e.gate.Enable()
	}
	e.chain = analysis.Chain{e.gate, e.recorder, analyzer}
	return e, nil
}

// Start begins capture from deviceID ("" follows the default device). A
// source that stopped on its own is released before restarting.
func (e *Engine) Start(deviceID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrNotRunning
	}
	if e.running.Load() {
		return ErrAlreadyRunning
	}
	if err := e.source.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		e.logger.Warnf("releasing stopped source: %v", err)
	}

	// No producer is running, so the analyzer can be reset from here.
	e.analyzer.Reset()
	e.publishedRate.Store(0)
	e.drainStopped()

	e.running.Store(true)
	if err := e.source.Start(deviceID, e.onSamples, e.onStopped); err != nil {
		e.running.Store(false)
		return fmt.Errorf("engine: %w", err)
	}
	e.deviceID = deviceID
	e.publishRate(e.source.SampleRate())

	if e.cfg.RecordPath != "" && !e.recorder.Recording() {
		if err := e.startRecordingLocked(e.cfg.RecordPath); err != nil {
			e.logger.Errorf("could not start recording: %v", err)
		}
	}
	e.logger.With("device", deviceLabel(deviceID), "rate", e.source.SampleRate()).Infof("capture started")
	return nil
}

// Switch restarts capture on another device.
func (e *Engine) Switch(deviceID string) error {
	if err := e.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	return e.Start(deviceID)
}

// Stop halts capture. The source unsubscribes before its native stream is
// released; frames already queued stay readable.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running.Swap(false) {
		return ErrNotRunning
	}
	if err := e.source.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return fmt.Errorf("engine: %w", err)
	}
	e.logger.Infof("capture stopped")
	return nil
}

// Close stops capture, finalizes any recording and closes the frame
// channel. It is safe to call more than once.
func (e *Engine) Close() error {
	err := e.Stop()
	if errors.Is(err, ErrNotRunning) {
		err = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return err
	}
	e.closed = true
	// Release a source that stopped on its own.
	if serr := e.source.Stop(); serr != nil && !errors.Is(serr, ErrNotRunning) && err == nil {
		err = serr
	}
	if cerr := e.chain.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Frames delivers analysis results.
func (e *Engine) Frames() <-chan analysis.VisualizerFrame { return e.analyzer.Frames() }

// Stopped receives the error of a source that stopped on its own. Retrying,
// for example on the default device, is up to the caller.
func (e *Engine) Stopped() <-chan error { return e.stopped }

// Running reports whether capture is active.
func (e *Engine) Running() bool { return e.running.Load() }

// DeviceID is the device passed to the last successful Start.
func (e *Engine) DeviceID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deviceID
}

// Source returns the capture source.
func (e *Engine) Source() Source { return e.source }

// Gate exposes the noise gate for runtime control.
func (e *Engine) Gate() *Gate { return e.gate }

// StartRecording records the analyzed mono stream to filename.
func (e *Engine) StartRecording(filename string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startRecordingLocked(filename)
}

func (e *Engine) startRecordingLocked(filename string) error {
	return e.recorder.Start(filename, int(e.source.SampleRate()))
}

// StopRecording finalizes the current recording.
func (e *Engine) StopRecording() error { return e.recorder.Stop() }

// Recording reports whether a recording is in progress.
func (e *Engine) Recording() bool { return e.recorder.Recording() }

// onSamples runs on the capture thread.
func (e *Engine) onSamples(samples []float32) {
	if rate := e.source.SampleRate(); rate != e.publishedRate.Load() {
		e.publishRate(rate)
	}
	e.chain.Process(samples)
}

func (e *Engine) onStopped(err error) {
	e.running.Store(false)
	e.logger.Warnf("capture stopped: %v", err)
	select {
	case e.stopped <- err:
	default:
	}
}

func (e *Engine) publishRate(rate float64) {
	if rate <= 0 {
		return
	}
	if _, err := e.settings.Update(func(s *analysis.Snapshot) { s.SampleRate = rate }); err != nil {
		e.logger.Warnf("sample rate %v rejected: %v", rate, err)
		return
	}
	e.publishedRate.Store(rate)

	if name, err := e.recorder.Rollover(int(rate)); err != nil {
		e.logger.Errorf("recording stopped on rate change: %v", err)
	} else if name != "" {
		e.logger.With("file", name, "rate", rate).Infof("recording continues in new file")
	}
}

func (e *Engine) drainStopped() {
	select {
	case <-e.stopped:
	default:
	}
}

func deviceLabel(id string) string {
	if id == "" {
		return FollowDefaultName
	}
	return id
}
