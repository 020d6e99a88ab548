// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"beanal/internal/analysis"
	"beanal/internal/fft"
	"beanal/internal/log"
	"beanal/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Shorthand for log_level: debug.
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
	UI        UIConfig        `yaml:"ui"`
}

// AudioConfig selects and configures the capture source.
type AudioConfig struct {
	Source          string  `yaml:"source"`            // portaudio, file or synth.
	Device          string  `yaml:"device"`            // Device index or name; empty follows the default device.
	File            string  `yaml:"file"`              // Audio file replayed when source is "file".
	Loop            bool    `yaml:"loop"`              // Restart the file when it ends.
	SampleRate      float64 `yaml:"sample_rate"`       // Requested rate; the device's own rate wins when it differs.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per capture callback.
	InputChannels   int     `yaml:"input_channels"`    // Channels opened on the device before downmixing.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio.
	GateEnabled     bool    `yaml:"gate_enabled"`      // Zero chunks quieter than gate_threshold.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Peak amplitude 0-1.
}

// AnalysisConfig holds the spectrum and bar settings.
type AnalysisConfig struct {
	FFTSize       int     `yaml:"fft_size"`
	FFTWindow     string  `yaml:"fft_window"` // Name of the window function (e.g., "Hann", "Hamming").
	Bars          int     `yaml:"bars"`
	Sensitivity   float64 `yaml:"sensitivity"`
	AttackMs      float64 `yaml:"attack_ms"`
	ReleaseMs     float64 `yaml:"release_ms"`
	PeakHoldMs    float64 `yaml:"peak_hold_ms"`
	PeakReleaseMs float64 `yaml:"peak_release_ms"`
	NoiseFloorDB  float64 `yaml:"noise_floor_db"`
	Mapping       string  `yaml:"mapping"`     // hybrid or log.
	Reduction     string  `yaml:"reduction"`   // peak or average.
	QueueDepth    int     `yaml:"queue_depth"` // Frames buffered for the consumer.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the analyzed mono stream.
	OutputDir string `yaml:"output_dir"` // Directory to save recorded audio files.
	Format    string `yaml:"format"`     // Only "wav" is supported.
}

// TransportConfig holds settings related to sending frames over the network.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"` // e.g., "127.0.0.1:9090".
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	WSEnabled        bool          `yaml:"ws_enabled"`
	WSAddress        string        `yaml:"ws_address"`      // Listen address for the WebSocket server.
	WSMinInterval    time.Duration `yaml:"ws_min_interval"` // Zero sends every frame.
	LogFrames        int           `yaml:"log_frames"`      // Log every Nth frame at debug; zero disables.
}

// UIConfig controls the terminal visualizer.
type UIConfig struct {
	TUI       bool   `yaml:"tui"`
	ShowPeaks bool   `yaml:"show_peaks"`
	ShowStats bool   `yaml:"show_stats"`
	LogFile   string `yaml:"log_file"` // Log destination while the TUI owns the terminal.
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{"config.yaml", "beanal.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment overrides apply after the file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return invalid("log_level %q is not a known level", c.LogLevel)
	}

	a := c.Audio
	switch a.Source {
	case SourcePortAudio, SourceSynth:
	case SourceFile:
		if a.File == "" {
			return invalid("audio.file must be set when audio.source is %q", SourceFile)
		}
	default:
		return invalid("audio.source %q must be one of portaudio, file, synth", a.Source)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return invalid("audio.sample_rate %v outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.FramesPerBuffer <= 0 || a.FramesPerBuffer > MaxBufferFrames {
		return invalid("audio.frames_per_buffer %d outside [1, %d]", a.FramesPerBuffer, MaxBufferFrames)
	}
	if a.InputChannels < 1 || a.InputChannels > MaxChannels {
		return invalid("audio.input_channels %d outside [1, %d]", a.InputChannels, MaxChannels)
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		return invalid("audio.gate_threshold %v outside [0, 1]", a.GateThreshold)
	}

	n := c.Analysis
	if !bitint.IsPowerOfTwo(n.FFTSize) || n.FFTSize < analysis.MinMapFFTSize || n.FFTSize > MaxFFTSize {
		return invalid("analysis.fft_size %d must be a power of two in [%d, %d]", n.FFTSize, analysis.MinMapFFTSize, MaxFFTSize)
	}
	if _, err := fft.ParseWindowFunc(n.FFTWindow); err != nil {
		return invalid("analysis.fft_window: %v", err)
	}
	if n.QueueDepth < 1 {
		return invalid("analysis.queue_depth %d must be positive", n.QueueDepth)
	}
	if _, err := c.Snapshot(); err != nil {
		return fmt.Errorf("%w: analysis: %w", ErrInvalidConfig, err)
	}

	if c.Recording.Enabled && !strings.EqualFold(c.Recording.Format, "wav") {
		return invalid("recording.format %q is not supported (wav only)", c.Recording.Format)
	}

	t := c.Transport
	if t.UDPEnabled {
		if _, _, err := net.SplitHostPort(t.UDPTargetAddress); err != nil {
			return invalid("transport.udp_target_address %q: %v", t.UDPTargetAddress, err)
		}
		if t.UDPSendInterval <= 0 {
			return invalid("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if t.WSEnabled {
		if _, _, err := net.SplitHostPort(t.WSAddress); err != nil {
			return invalid("transport.ws_address %q: %v", t.WSAddress, err)
		}
	}
	if t.WSMinInterval < 0 {
		return invalid("transport.ws_min_interval must not be negative")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// applyEnvOverrides reads the ENV_* variables. Values that fail to parse
// are ignored with a warning.
func (cfg *Config) applyEnvOverrides() {
	logger := log.New("configuration")

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			logger.Infof("Overriding debug from env: %v", bVal)
		} else {
			logger.Warnf("Ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		logger.Infof("Overriding log_level from env: %s", val)
	}

	// ENV_DEVICE
	if val, ok := os.LookupEnv("ENV_DEVICE"); ok {
		cfg.Audio.Device = val
		logger.Infof("Overriding audio.device from env: %q", val)
	}
	// ENV_BARS
	if val, ok := os.LookupEnv("ENV_BARS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Analysis.Bars = n
			logger.Infof("Overriding analysis.bars from env: %d", n)
		} else {
			logger.Warnf("Ignoring ENV_BARS=%q: %v", val, err)
		}
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			logger.Infof("Overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		logger.Infof("Overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			logger.Infof("Overriding transport.udp_send_interval from env: %s", dur)
		}
	}
	// ENV_WS_ENABLED
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WSEnabled = bVal
			logger.Infof("Overriding transport.ws_enabled from env: %v", bVal)
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		cfg.Transport.WSAddress = val
		logger.Infof("Overriding transport.ws_address from env: %s", val)
	}
}
