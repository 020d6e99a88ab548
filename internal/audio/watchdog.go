// SPDX-License-Identifier: MIT
package audio

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	stallBuffers    = 8 // buffer durations without a callback before giving up
	minStallTimeout = time.Second
)

// stallTimeout is how long a stream may go without a callback.
func stallTimeout(frames int, sampleRate float64) time.Duration {
	return max(stallBuffers*chunkInterval(frames, sampleRate), minStallTimeout)
}

// watchdog fails a subscription once the capture callback stops arriving.
// Not every host reports a removed device or an aborted stream; the
// callback just stops.
type watchdog struct {
	timeout time.Duration
	now     func() time.Time
	last    atomic.Int64 // UnixNano of the last beat

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newWatchdog(timeout time.Duration, now func() time.Time) *watchdog {
	w := &watchdog{timeout: timeout, now: now, done: make(chan struct{})}
	w.beat()
	return w
}

// beat records a callback. Safe on the capture thread.
func (w *watchdog) beat() { w.last.Store(w.now().UnixNano()) }

func (w *watchdog) stalled() bool {
	return w.now().Sub(time.Unix(0, w.last.Load())) > w.timeout
}

// watch checks for a stall on every tick. It returns when the subscription
// is cleared, or after failing it with ErrDeviceLost.
func (w *watchdog) watch(ticks <-chan time.Time, sub *subscription) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.done:
				return
			case <-ticks:
				if !sub.active() {
					return
				}
				if w.stalled() {
					sub.fail(ErrDeviceLost)
					return
				}
			}
		}
	}()
}

func (w *watchdog) stop() {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
}
