// SPDX-License-Identifier: MIT
package config

import "time"

// Source kinds accepted in audio.source.
const (
	SourcePortAudio = "portaudio"
	SourceFile      = "file"
	SourceSynth     = "synth"
)

// Core configuration constants that define the boundaries and defaults
// for the analyzer.
const (
	// Audio defaults
	DefaultSource          = SourcePortAudio
	DefaultDevice          = ""    // Follow the system default device
	DefaultSampleRate      = 48000 // Used until the device reports its own
	DefaultFramesPerBuffer = 512   // Balanced latency/performance
	DefaultInputChannels   = 2     // Loopback devices are stereo; downmixed to mono
	DefaultGateThreshold   = 0.01

	// Analysis defaults
	DefaultFFTSize    = 1024
	DefaultFFTWindow  = "Hann"
	DefaultQueueDepth = 4

	// Transport defaults
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 16 * time.Millisecond // ~60Hz
	DefaultWSAddress        = "127.0.0.1:8080"

	// Hardware and processing limits
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxFFTSize      = 32768
	MaxChannels     = 32
)

// Default returns the built-in configuration used when no file is found.
func Default() Config {
	return Config{
		LogLevel: "info",
		Audio: AudioConfig{
			Source:          DefaultSource,
			Device:          DefaultDevice,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultInputChannels,
			GateThreshold:   DefaultGateThreshold,
		},
		Analysis: AnalysisConfig{
			FFTSize:       DefaultFFTSize,
			FFTWindow:     DefaultFFTWindow,
			Bars:          64,
			Sensitivity:   1.0,
			AttackMs:      20,
			ReleaseMs:     200,
			PeakHoldMs:    1000,
			PeakReleaseMs: 1500,
			NoiseFloorDB:  -60,
			Mapping:       "hybrid",
			Reduction:     "peak",
			QueueDepth:    DefaultQueueDepth,
		},
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			Format:    "wav",
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
			WSAddress:        DefaultWSAddress,
		},
		UI: UIConfig{
			TUI:       true,
			ShowPeaks: true,
			LogFile:   "beanal.log",
		},
	}
}
