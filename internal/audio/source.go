// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

// SamplesFunc receives mono samples on the capture thread. The slice is
// reused after the call returns.
type SamplesFunc func(samples []float32)

// StoppedFunc is called once when a running source stops on its own: device
// loss, a stream error, or the end of a replayed file. It is not called for
// an explicit Stop. It must not call Stop.
type StoppedFunc func(err error)

// Source is a capture collaborator delivering mono float samples.
type Source interface {
	// Start opens deviceID ("" is the default device) and begins delivering
	// samples to onSamples.
	Start(deviceID string, onSamples SamplesFunc, onStopped StoppedFunc) error
	// Stop unsubscribes the callbacks, then releases the native stream.
	Stop() error
	// SampleRate of the delivered samples; valid once Start has returned.
	SampleRate() float64
	// Devices lists what Start accepts, "Follow Default Device" first.
	Devices() ([]Device, error)
}

type callbacks struct {
	samples SamplesFunc
	stopped StoppedFunc
}

// subscription holds a source's callbacks. Clearing it is what unsubscribes
// the consumer; a callback racing with Stop sees nil and returns.
type subscription struct {
	cb atomic.Pointer[callbacks]
}

func (s *subscription) set(onSamples SamplesFunc, onStopped StoppedFunc) {
	s.cb.Store(&callbacks{samples: onSamples, stopped: onStopped})
}

// clear unsubscribes and reports whether anything was subscribed.
func (s *subscription) clear() bool {
	return s.cb.Swap(nil) != nil
}

func (s *subscription) active() bool {
	return s.cb.Load() != nil
}

func (s *subscription) deliver(samples []float32) bool {
	cb := s.cb.Load()
	if cb == nil {
		return false
	}
	if cb.samples != nil {
		cb.samples(samples)
	}
	return true
}

// fail unsubscribes and reports err to the stopped callback, at most once.
func (s *subscription) fail(err error) {
	cb := s.cb.Swap(nil)
	if cb != nil && cb.stopped != nil {
		cb.stopped(err)
	}
}

// atomicFloat is a float64 readable from the capture thread.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64   { return math.Float64frombits(f.bits.Load()) }
func (f *atomicFloat) Store(v float64) { f.bits.Store(math.Float64bits(v)) }
