// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"beanal/internal/fft"
	"beanal/internal/log"
)

// DefaultQueueDepth is the number of frames buffered for the consumer.
const DefaultQueueDepth = 4

// Analyzer runs the whole pipeline inline on the capture thread: samples are
// windowed into the ingestor, and every full window is transformed, mapped
// onto bars and smoothed into a VisualizerFrame. Frames are delivered on a
// buffered channel; when the consumer falls behind the oldest queued frame
// is discarded so Push never blocks.
//
// Push, Process and Reset must be called from a single goroutine.
type Analyzer struct {
	settings    *Settings
	ingestor    *fft.Ingestor
	transformer *fft.Transformer
	mapper      *BinMapper
	levels      LevelProcessor
	observer    Observer
	now         func() time.Time
	logger      *log.Logger

	// Geometry currently applied; changes are picked up between frames.
	binMap     BarBinMap
	state      []BarState
	sampleRate float64

	lastFrame      time.Time
	seq            uint64
	droppedSamples uint64

	mu            sync.Mutex // guards frames against Close during emit
	frames        chan VisualizerFrame
	closed        bool
	droppedFrames atomic.Uint64
	queueDepth    int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithObserver installs an observability hook. The default is NopObserver.
func WithObserver(o Observer) Option {
	return func(a *Analyzer) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithClock replaces time.Now as the source of frame timestamps and deltas.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithQueueDepth sets the frame channel capacity (minimum 1).
func WithQueueDepth(n int) Option {
	return func(a *Analyzer) {
		a.queueDepth = max(n, 1)
	}
}

// NewAnalyzer creates a pipeline for fftSize-point windows shaped by window,
// reading its configuration from settings each frame. An fftSize that is not
// a power of two of at least MinMapFFTSize fails with fft.ErrInvalidSize.
func NewAnalyzer(fftSize int, window fft.WindowFunc, settings *Settings, opts ...Option) (*Analyzer, error) {
	if settings == nil {
		return nil, errors.New("analyzer: settings is nil")
	}
	mapper, err := NewBinMapper(fftSize)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	ingestor, err := fft.NewIngestor(fftSize, window)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	transformer, err := fft.NewTransformer(fftSize, fft.AmplitudeCorrection(window, ingestor.Coefficients()))
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}

	a := &Analyzer{
		settings:    settings,
		ingestor:    ingestor,
		transformer: transformer,
		mapper:      mapper,
		observer:    NopObserver{},
		now:         time.Now,
		logger:      log.New("analysis"),
		queueDepth:  DefaultQueueDepth,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.frames = make(chan VisualizerFrame, a.queueDepth)

	// Build the initial geometry so a bad snapshot fails here, not mid-stream.
	if err := a.applyGeometry(settings.Load()); err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	return a, nil
}

// Frames returns the channel frames are delivered on. It is closed by Close.
func (a *Analyzer) Frames() <-chan VisualizerFrame { return a.frames }

// Settings is the store the analyzer reads each frame.
func (a *Analyzer) Settings() *Settings { return a.settings }

// FFTSize is the window length.
func (a *Analyzer) FFTSize() int { return a.ingestor.Size() }

// DroppedFrames counts frames discarded because the consumer fell behind.
func (a *Analyzer) DroppedFrames() uint64 { return a.droppedFrames.Load() }

// Process implements SampleProcessor.
func (a *Analyzer) Process(samples []float32) { a.Push(samples) }

// Push feeds one chunk of mono samples. Only the part of the chunk that fits
// in the current window is consumed; the rest is discarded and its length
// returned. A frame is emitted when the window fills.
func (a *Analyzer) Push(samples []float32) int {
	taken := a.ingestor.Write(samples)
	dropped := len(samples) - taken
	a.droppedSamples += uint64(dropped)
	if a.ingestor.Full() {
		a.processWindow()
	}
	return dropped
}

// Reset discards the partial window, all bar state and the frame clock.
// Call it between streams, for example after switching devices.
func (a *Analyzer) Reset() {
	a.ingestor.Reset()
	for i := range a.state {
		a.state[i] = BarState{}
	}
	a.lastFrame = time.Time{}
	a.droppedSamples = 0
}

// Close closes the frame channel. Pushing after Close still runs the
// pipeline but frames are no longer delivered. Close is idempotent.
func (a *Analyzer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		a.closed = true
		close(a.frames)
	}
	return nil
}

func (a *Analyzer) processWindow() {
	defer a.ingestor.Reset()

	snap := a.settings.Load()
	if err := a.applyGeometry(snap); err != nil {
		// Settings validates on publish, so this only trips on a
		// geometry the bin mapper rejects; keep the previous one.
		a.logger.Warnf("keeping previous bin map: %v", err)
	}

	now := a.now()
	dt := float64(a.ingestor.Size()) / a.sampleRate
	if !a.lastFrame.IsZero() {
		dt = now.Sub(a.lastFrame).Seconds()
	}
	a.lastFrame = now

	start := time.Now()
	spectrum := a.transformer.Transform(a.ingestor.Window())
	frame := a.levels.Process(spectrum, a.binMap, a.state, snap, dt)
	took := time.Since(start)

	a.seq++
	frame.Sequence = a.seq
	frame.Timestamp = now
	a.emit(frame)

	a.observer.FrameProcessed(FrameStats{
		Sequence:       a.seq,
		Bars:           len(a.binMap),
		DeltaTime:      time.Duration(dt * float64(time.Second)),
		Duration:       took,
		DroppedSamples: a.droppedSamples,
		DroppedFrames:  a.droppedFrames.Load(),
	})
	a.droppedSamples = 0
}

// applyGeometry swaps in a new bin map and bar state when the bar count,
// sample rate or mapping mode changed. It runs between frames only.
func (a *Analyzer) applyGeometry(s Snapshot) error {
	start := time.Now()
	m, rebuilt, err := a.mapper.Map(s.Bars, s.SampleRate, s.Mapping)
	if err != nil {
		return err
	}
	if !rebuilt {
		return nil
	}
	a.binMap = m
	a.state = ResizeState(a.state, len(m))
	a.sampleRate = s.SampleRate
	a.observer.BinMapRebuilt(MapStats{
		Bars:       len(m),
		FFTSize:    a.mapper.FFTSize(),
		SampleRate: s.SampleRate,
		Mode:       s.Mapping,
		Duration:   time.Since(start),
	})
	return nil
}

// emit hands frame to the consumer without blocking. When the queue is full
// the oldest frame is dropped to make room.
func (a *Analyzer) emit(frame VisualizerFrame) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	select {
	case a.frames <- frame:
		return
	default:
	}
	select {
	case <-a.frames:
		a.droppedFrames.Add(1)
	default:
	}
	select {
	case a.frames <- frame:
	default:
		a.droppedFrames.Add(1)
	}
}
