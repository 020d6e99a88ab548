// SPDX-License-Identifier: MIT
package audio

import (
	"sync"
	"time"
)

// pacer calls fill on a ticker so that chunks arrive at the rate a live
// device would deliver them, and hands each chunk to the subscription.
type pacer struct {
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// chunkInterval is the wall-clock duration of frames samples at sampleRate.
func chunkInterval(frames int, sampleRate float64) time.Duration {
	if sampleRate <= 0 || frames <= 0 {
		return 10 * time.Millisecond
	}
	return time.Duration(float64(frames) / sampleRate * float64(time.Second))
}

// startPacer runs fill into buf every interval. A fill error stops the
// loop and is reported through sub.
func startPacer(interval time.Duration, buf []float32, fill func([]float32) (int, error), sub *subscription) *pacer {
	p := &pacer{done: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				n, err := fill(buf)
				if n > 0 && !sub.deliver(buf[:n]) {
					return
				}
				if err != nil {
					sub.fail(err)
					return
				}
			}
		}
	}()
	return p
}

// stop ends the loop and waits for an in-flight chunk to finish.
func (p *pacer) stop() {
	p.stopOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}
