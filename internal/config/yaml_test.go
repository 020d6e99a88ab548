// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"beanal/internal/analysis"
	"beanal/internal/fft"
	"beanal/internal/log"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: warn
audio:
  source: synth
  sample_rate: 44100
analysis:
  fft_size: 2048
  fft_window: hamming
  bars: 32
  mapping: log
  reduction: average
  noise_floor_db: -80
transport:
  udp_enabled: true
  udp_send_interval: 20ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Audio.Source != SourceSynth || cfg.Audio.SampleRate != 44100 {
		t.Errorf("audio section: %+v", cfg.Audio)
	}
	// Untouched keys keep their defaults.
	if cfg.Audio.FramesPerBuffer != DefaultFramesPerBuffer || cfg.Analysis.AttackMs != 20 {
		t.Errorf("defaults lost: frames=%d attack=%v", cfg.Audio.FramesPerBuffer, cfg.Analysis.AttackMs)
	}
	if cfg.Transport.UDPSendInterval != 20*time.Millisecond {
		t.Errorf("udp_send_interval = %v", cfg.Transport.UDPSendInterval)
	}
	if cfg.Level() != log.LevelWarn {
		t.Errorf("Level = %v", cfg.Level())
	}
	if cfg.Window() != fft.Hamming {
		t.Errorf("Window = %v", cfg.Window())
	}

	snap, err := cfg.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	want := analysis.Snapshot{
		Bars: 32, Sensitivity: 1, AttackMs: 20, ReleaseMs: 200, PeakHoldMs: 1000,
		PeakReleaseMs: 1500, NoiseFloorDB: -80, SampleRate: 44100,
		Mapping: analysis.MappingLogarithmic, Reduction: analysis.ReduceAverage,
	}
	if snap != want {
		t.Errorf("Snapshot = %+v, want %+v", snap, want)
	}
}

func TestDefaultMatchesAnalysisDefaults(t *testing.T) {
	cfg := Default()
	snap, err := cfg.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap != analysis.DefaultSnapshot() {
		t.Errorf("default config snapshot %+v differs from %+v", snap, analysis.DefaultSnapshot())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"source", func(c *Config) { c.Audio.Source = "microphone" }},
		{"file without path", func(c *Config) { c.Audio.Source = SourceFile }},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 4000 }},
		{"frames per buffer", func(c *Config) { c.Audio.FramesPerBuffer = 0 }},
		{"channels", func(c *Config) { c.Audio.InputChannels = 0 }},
		{"gate threshold", func(c *Config) { c.Audio.GateThreshold = 1.5 }},
		{"fft size not pow2", func(c *Config) { c.Analysis.FFTSize = 1000 }},
		{"fft size too small", func(c *Config) { c.Analysis.FFTSize = 2 }},
		{"window", func(c *Config) { c.Analysis.FFTWindow = "triangle" }},
		{"bars", func(c *Config) { c.Analysis.Bars = 0 }},
		{"too many bars", func(c *Config) { c.Analysis.Bars = analysis.MaxBars + 1 }},
		{"noise floor", func(c *Config) { c.Analysis.NoiseFloorDB = 0 }},
		{"sensitivity", func(c *Config) { c.Analysis.Sensitivity = math.NaN() }},
		{"mapping", func(c *Config) { c.Analysis.Mapping = "linear" }},
		{"reduction", func(c *Config) { c.Analysis.Reduction = "median" }},
		{"queue depth", func(c *Config) { c.Analysis.QueueDepth = 0 }},
		{"record format", func(c *Config) { c.Recording.Enabled = true; c.Recording.Format = "mp3" }},
		{"udp address", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPTargetAddress = "localhost" }},
		{"udp interval", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPSendInterval = 0 }},
		{"ws address", func(c *Config) { c.Transport.WSEnabled = true; c.Transport.WSAddress = "8080" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_DEVICE", "Monitor of Speakers")
	t.Setenv("ENV_BARS", "128")
	t.Setenv("ENV_UDP_ENABLED", "1")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "10.0.0.2:7000")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "5ms")
	t.Setenv("ENV_WS_ENABLED", "true")
	t.Setenv("ENV_WS_ADDRESS", ":9999")

	path := writeTempConfig(t, "analysis:\n  bars: 16\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Debug || cfg.Level() != log.LevelDebug {
		t.Error("ENV_DEBUG not applied")
	}
	if cfg.Audio.Device != "Monitor of Speakers" {
		t.Errorf("device = %q", cfg.Audio.Device)
	}
	if cfg.Analysis.Bars != 128 {
		t.Errorf("env must win over file: bars = %d", cfg.Analysis.Bars)
	}
	tr := cfg.Transport
	if !tr.UDPEnabled || tr.UDPTargetAddress != "10.0.0.2:7000" || tr.UDPSendInterval != 5*time.Millisecond {
		t.Errorf("udp overrides: %+v", tr)
	}
	if !tr.WSEnabled || tr.WSAddress != ":9999" {
		t.Errorf("ws overrides: %+v", tr)
	}
}

func TestEnvOverrideIgnoresBadValues(t *testing.T) {
	t.Setenv("ENV_BARS", "lots")
	t.Setenv("ENV_DEBUG", "maybe")
	cfg, err := LoadConfig(writeTempConfig(t, "{}"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Analysis.Bars != 64 || cfg.Debug {
		t.Errorf("bad env values applied: bars=%d debug=%v", cfg.Analysis.Bars, cfg.Debug)
	}
}

func TestEnvOverrideCanInvalidate(t *testing.T) {
	t.Setenv("ENV_BARS", "0")
	if _, err := LoadConfig(writeTempConfig(t, "{}")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadConfig = %v, want ErrInvalidConfig", err)
	}
}
