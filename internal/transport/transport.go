// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"errors"

	"beanal/internal/analysis"
	"beanal/internal/log"
)

// Transport receives every frame the analyzer produces. Implementations
// must be safe for use from the dispatcher goroutine while Close runs on
// another.
type Transport interface {
	Send(frame analysis.VisualizerFrame) error
	Close() error
}

// SendFunc adapts a function to a Transport with a no-op Close.
type SendFunc func(frame analysis.VisualizerFrame) error

func (f SendFunc) Send(frame analysis.VisualizerFrame) error { return f(frame) }
func (f SendFunc) Close() error                              { return nil }

// ErrClosed is returned by Send on a closed transport.
var ErrClosed = errors.New("transport closed")

// Dispatch forwards frames to every sink until the channel closes or ctx
// is done. A failing sink is logged and keeps receiving frames. Dispatch
// does not close the sinks.
func Dispatch(ctx context.Context, frames <-chan analysis.VisualizerFrame, sinks ...Transport) error {
	logger := log.New("dispatch")
	failing := make([]bool, len(sinks))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			for i, sink := range sinks {
				err := sink.Send(frame)
				switch {
				case err != nil && !failing[i]:
					logger.With("sink", i, "seq", frame.Sequence).Warnf("send failed: %v", err)
					failing[i] = true
				case err == nil && failing[i]:
					logger.With("sink", i).Infof("sink recovered")
					failing[i] = false
				}
			}
		}
	}
}
