// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"beanal/cmd"
	"beanal/internal/analysis"
	"beanal/internal/audio"
	"beanal/internal/config"
	"beanal/internal/log"
	"beanal/internal/transport"
	"beanal/internal/transport/udp"
	"beanal/internal/tui"
	"beanal/pkg/build"
)

// main is the entry point for the visualizer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Initialize PortAudio when capturing from a device
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start capture; the analyzer runs on the capture thread
//   - Dispatch frames to the TUI and network transports
//   - Fall back to the default device when capture stops
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop capture and finalize any recording
//   - Close transports
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	buildErr := build.Initialize()

	opts, err := cmd.ParseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		return err
	}
	if opts.Command == cmd.CommandNone {
		return nil
	}
	cfg := opts.Config
	log.SetLevel(cfg.Level())
	if buildErr != nil {
		log.Debugf("%v", buildErr)
	}

	if opts.Command == cmd.CommandVersion {
		fmt.Println(build.GetBuildFlags())
		fmt.Println(cfg.FFTInfo())
		return nil
	}

	// One thread for the capture callback, one for UI and I/O.
	runtime.GOMAXPROCS(max(2, runtime.GOMAXPROCS(0)))

	if cfg.Audio.Source == config.SourcePortAudio {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
	}

	source, err := newSource(cfg)
	if err != nil {
		return err
	}

	if opts.Command == cmd.CommandList {
		return listDevices(os.Stdout, source)
	}

	deviceID := cfg.Audio.Device
	if opts.Pick {
		sel, ok, err := tui.PickDevice(source.Devices)
		if err != nil || !ok {
			return err
		}
		deviceID = sel.Device.ID
		if sel.SampleRate > 0 && sel.SampleRate != cfg.Audio.SampleRate {
			cfg.Audio.SampleRate = sel.SampleRate
			if source, err = newSource(cfg); err != nil {
				return err
			}
		}
	}

	return visualize(cfg, source, deviceID)
}

func visualize(cfg *config.Config, source audio.Source, deviceID string) error {
	snap, err := cfg.Snapshot()
	if err != nil {
		return err
	}
	settings, err := analysis.NewSettings(snap)
	if err != nil {
		return err
	}

	perf := &analysis.PerfStats{}
	analyzer, err := analysis.NewAnalyzer(cfg.Analysis.FFTSize, cfg.Window(), settings,
		analysis.WithObserver(analysis.MultiObserver{perf, analysis.NewLogObserver()}),
		analysis.WithQueueDepth(cfg.Analysis.QueueDepth),
	)
	if err != nil {
		return err
	}

	recordPath := cfg.RecordPath(time.Now())
	if recordPath != "" {
		if err := os.MkdirAll(filepath.Dir(recordPath), 0o755); err != nil {
			return fmt.Errorf("creating recording directory: %w", err)
		}
	}
	engine, err := audio.NewEngine(audio.EngineConfig{
		GateEnabled:   cfg.Audio.GateEnabled,
		GateThreshold: cfg.Audio.GateThreshold,
		RecordPath:    recordPath,
	}, source, analyzer)
	if err != nil {
		return err
	}

	sinks, err := openSinks(cfg)
	if err != nil {
		engine.Close()
		return err
	}
	defer closeSinks(sinks)

	if cfg.UI.TUI && cfg.UI.LogFile != "" {
		f, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		log.SetOutput(f)
		defer func() {
			log.SetOutput(os.Stderr)
			f.Close()
		}()
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(deviceID); err != nil {
		engine.Close()
		return err
	}
	log.Infof("%s", cfg.FFTInfo())
	if recordPath != "" {
		log.Infof("Recording to %s", recordPath)
	}

	restart := func() error { return engine.Start("") }
	if cfg.UI.TUI {
		err = tui.Run(ctx, tui.Options{
			Settings:  settings,
			Perf:      perf,
			Device:    deviceLabel(source, deviceID),
			FPS:       frameRate(source, cfg),
			ShowPeaks: cfg.UI.ShowPeaks,
			ShowStats: cfg.UI.ShowStats,
			Stopped:   engine.Stopped(),
			Restart:   restart,
		}, engine.Frames(), sinks...)
	} else {
		err = runHeadless(ctx, cfg, engine, sinks, restart)
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if cerr := engine.Close(); cerr != nil {
		log.Errorf("Error closing audio engine: %v", cerr)
	}
	if recordPath != "" {
		fmt.Printf("\nRecording saved to: %s\n", recordPath)
	}
	return err
}

// runHeadless dispatches frames until interrupted. A replayed file ends
// the run; any other stop falls back to the default device.
func runHeadless(ctx context.Context, cfg *config.Config, engine *audio.Engine, sinks []transport.Transport, restart func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		transport.Dispatch(ctx, engine.Frames(), sinks...)
	}()
	defer func() {
		cancel()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-engine.Stopped():
			if errors.Is(err, io.EOF) && cfg.Audio.Source == config.SourceFile {
				log.Infof("Replay finished")
				return nil
			}
			log.Warnf("Capture stopped (%v); following default device", err)
			if err := restart(); err != nil {
				return fmt.Errorf("restarting capture: %w", err)
			}
		}
	}
}

func newSource(cfg *config.Config) (audio.Source, error) {
	a := cfg.Audio
	switch a.Source {
	case config.SourceFile:
		return audio.NewFileSource(a.File, a.FramesPerBuffer, a.Loop)
	case config.SourceSynth:
		return audio.NewSynthSource(a.SampleRate, a.FramesPerBuffer), nil
	default:
		return audio.NewPortAudioSource(audio.PortAudioConfig{
			SampleRate:      a.SampleRate,
			FramesPerBuffer: a.FramesPerBuffer,
			Channels:        a.InputChannels,
			LowLatency:      a.LowLatency,
		}), nil
	}
}

func openSinks(cfg *config.Config) ([]transport.Transport, error) {
	var sinks []transport.Transport
	t := cfg.Transport

	if t.UDPEnabled {
		sender, err := udp.NewUDPSender(t.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		pub, err := udp.NewUDPPublisher(t.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			return nil, err
		}
		pub.Start()
		sinks = append(sinks, pub)
	}

	if t.WSEnabled {
		ws, err := transport.NewWebSocketTransport(t.WSAddress, transport.WithMinSendInterval(t.WSMinInterval))
		if err != nil {
			closeSinks(sinks)
			return nil, fmt.Errorf("websocket: %w", err)
		}
		sinks = append(sinks, ws)
	}

	every := t.LogFrames
	if every <= 0 && !cfg.UI.TUI && len(sinks) == 0 {
		// Headless without transports: about one line per second.
		every = int(cfg.Audio.SampleRate) / cfg.Analysis.FFTSize
	}
	if every > 0 {
		sinks = append(sinks, transport.NewLoggingTransport(every))
	}
	return sinks, nil
}

func closeSinks(sinks []transport.Transport) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Warnf("Error closing transport: %v", err)
		}
	}
}

func listDevices(w io.Writer, source audio.Source) error {
	devices, err := source.Devices()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nCapture Devices\n\n")
	for _, d := range devices {
		if d.IsFollowDefault() {
			fmt.Fprintf(w, "[\"\"] %s\n\n", d.Label())
			continue
		}
		fmt.Fprintf(w, "[%s] %s\n", d.ID, d.Label())
		fmt.Fprintf(w, "    Input channels: %d\n", d.MaxInputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n\n", d.DefaultSampleRate)
	}
	return nil
}

// frameRate is how many frames per second the analyzer emits at the rate
// the source actually runs at, which for files and devices can differ from
// the configured one.
func frameRate(source audio.Source, cfg *config.Config) float64 {
	rate := source.SampleRate()
	if rate <= 0 {
		rate = cfg.Audio.SampleRate
	}
	return rate / float64(cfg.Analysis.FFTSize)
}

func deviceLabel(source audio.Source, id string) string {
	devices, err := source.Devices()
	if err != nil {
		return id
	}
	for _, d := range devices {
		if d.ID == id {
			return d.Label()
		}
	}
	return id
}
