// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	"beanal/internal/analysis"
	"beanal/internal/log"
)

// LoggingTransport writes a one-line summary of every Nth frame at DEBUG.
type LoggingTransport struct {
	every  uint64
	count  atomic.Uint64
	logger *log.Logger
}

// NewLoggingTransport logs one frame in every. every <= 0 logs all frames.
func NewLoggingTransport(every int) *LoggingTransport {
	if every <= 0 {
		every = 1
	}
	logger := log.New("transport")
	logger.Infof("Using LoggingTransport (every %d frames)", every)
	return &LoggingTransport{every: uint64(every), logger: logger}
}

// Send logs the frame's loudest bar.
func (lt *LoggingTransport) Send(frame analysis.VisualizerFrame) error {
	n := lt.count.Add(1)
	if (n-1)%lt.every != 0 || !log.Enabled(log.LevelDebug) {
		return nil
	}
	loudest, level := -1, 0.0
	for i, h := range frame.BarHeights {
		if h > level {
			loudest, level = i, h
		}
	}
	lt.logger.With("seq", frame.Sequence, "bars", frame.Bars()).
		Debugf("frame: loudest bar %d at %.1f", loudest, level)
	return nil
}

// Frames is the number of frames received.
func (lt *LoggingTransport) Frames() uint64 { return lt.count.Load() }

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	lt.logger.Debugf("Close called after %d frames", lt.Frames())
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
