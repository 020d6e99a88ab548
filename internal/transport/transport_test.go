// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"beanal/internal/analysis"
)

func testFrame(seq uint64, bars int) analysis.VisualizerFrame {
	f := analysis.VisualizerFrame{
		BarHeights: make([]float64, bars),
		PeakLevels: make([]float64, bars),
		Sequence:   seq,
	}
	for i := range bars {
		f.BarHeights[i] = float64(i)
		f.PeakLevels[i] = float64(i) + 0.5
	}
	return f
}

func TestDispatchFansOutUntilChannelCloses(t *testing.T) {
	frames := make(chan analysis.VisualizerFrame, 3)
	var a, b []uint64
	broken := 0
	sinks := []Transport{
		SendFunc(func(f analysis.VisualizerFrame) error { a = append(a, f.Sequence); return nil }),
		SendFunc(func(f analysis.VisualizerFrame) error { broken++; return errors.New("unplugged") }),
		SendFunc(func(f analysis.VisualizerFrame) error { b = append(b, f.Sequence); return nil }),
	}

	for i := range 3 {
		frames <- testFrame(uint64(i+1), 4)
	}
	close(frames)

	if err := Dispatch(context.Background(), frames, sinks...); err != nil {
		t.Fatalf("Dispatch returned %v on closed channel", err)
	}
	if len(a) != 3 || len(b) != 3 || broken != 3 {
		t.Errorf("deliveries: a=%v b=%v broken=%d", a, b, broken)
	}
	if a[2] != 3 {
		t.Errorf("frames out of order: %v", a)
	}
}

func TestDispatchStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan analysis.VisualizerFrame)
	done := make(chan error, 1)
	go func() { done <- Dispatch(ctx, frames) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Dispatch returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Dispatch did not return after cancel")
	}
}

func TestLoggingTransportCountsFrames(t *testing.T) {
	lt := NewLoggingTransport(10)
	for i := range 25 {
		if err := lt.Send(testFrame(uint64(i), 8)); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if lt.Frames() != 25 {
		t.Errorf("Frames = %d, want 25", lt.Frames())
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
