// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"
	"time"

	"beanal/internal/config"
	"beanal/pkg/build"

	"github.com/spf13/cobra"
)

// Commands selected on the command line.
const (
	CommandNone    = ""        // help was printed; nothing to run
	CommandRun     = "run"     // start the visualizer
	CommandList    = "list"    // list capture devices
	CommandVersion = "version" // print build information
)

// Options is the parsed command line.
type Options struct {
	Config  *config.Config
	Command string
	// Pick shows the device picker before starting.
	Pick bool
}

// flagValues holds raw flag values; only flags the user set are copied into
// the loaded configuration.
type flagValues struct {
	configPath      string
	source          string
	device          string
	file            string
	loop            bool
	sampleRate      float64
	framesPerBuffer int
	channels        int
	lowLatency      bool
	gate            float64
	fftSize         int
	window          string
	bars            int
	sensitivity     float64
	mapping         string
	reduction       string
	record          bool
	outputDir       string
	udp             bool
	udpTarget       string
	udpInterval     time.Duration
	ws              bool
	wsAddr          string
	noTUI           bool
	stats           bool
	verbose         bool
	logFile         string
}

// ParseArgs parses args (without the program name), loads the configuration
// file and applies explicitly set flags on top of it.
func ParseArgs(args []string, out io.Writer) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	opts := &Options{Command: CommandNone}
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(fv.configPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &fv, cfg); err != nil {
				return err
			}
			opts.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = CommandRun
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = CommandList
			return nil
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Command = CommandVersion
			return nil
		},
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&fv.configPath, "config", "f", "", "Configuration file (default: ./config.yaml if present)")

	// Capture
	pf.StringVar(&fv.source, "source", config.DefaultSource, "Capture source: portaudio, file or synth")
	pf.StringVarP(&fv.device, "device", "d", config.DefaultDevice,
		"Capture device index or name. Empty follows the default device. Use 'list' to see devices.")
	pf.StringVar(&fv.file, "file", "", "Audio file to replay (implies --source file)")
	pf.BoolVar(&fv.loop, "loop", false, "Loop the replayed file")
	pf.Float64VarP(&fv.sampleRate, "sample-rate", "s", config.DefaultSampleRate, "Requested sample rate in Hz")
	pf.IntVarP(&fv.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.IntVarP(&fv.channels, "channels", "c", config.DefaultInputChannels, "Channels to open before downmixing to mono")
	pf.BoolVarP(&fv.lowLatency, "low-latency", "l", false, "Use low latency mode for real-time processing")
	pf.Float64Var(&fv.gate, "gate", 0, "Enable the noise gate at this peak threshold (0-1)")

	// Analysis
	pf.IntVar(&fv.fftSize, "fft-size", config.DefaultFFTSize, "FFT size (power of two)")
	pf.StringVar(&fv.window, "window", config.DefaultFFTWindow, "FFT window function")
	pf.IntVarP(&fv.bars, "bars", "n", 64, "Number of bars")
	pf.Float64Var(&fv.sensitivity, "sensitivity", 1.0, "Level multiplier")
	pf.StringVar(&fv.mapping, "mapping", "hybrid", "Bin mapping: hybrid or log")
	pf.StringVar(&fv.reduction, "reduction", "peak", "Bin reduction: peak or average")

	// Recording
	pf.BoolVarP(&fv.record, "record", "r", false, "Record the analyzed stream to a WAV file")
	pf.StringVarP(&fv.outputDir, "output-dir", "o", "./recordings", "Directory for recordings")

	// Transport
	pf.BoolVar(&fv.udp, "udp", false, "Publish frames over UDP")
	pf.StringVar(&fv.udpTarget, "udp-target", config.DefaultUDPTargetAddress, "UDP target host:port")
	pf.DurationVar(&fv.udpInterval, "udp-interval", config.DefaultUDPSendInterval, "UDP send interval")
	pf.BoolVar(&fv.ws, "ws", false, "Serve frames over WebSocket")
	pf.StringVar(&fv.wsAddr, "ws-addr", config.DefaultWSAddress, "WebSocket listen address")

	// UI and debug
	pf.BoolVar(&fv.noTUI, "no-tui", false, "Run headless; frames go to the transports only")
	pf.BoolVar(&fv.stats, "stats", false, "Show processing statistics")
	pf.StringVar(&fv.logFile, "log-file", "", "Log file used while the TUI is active")
	pf.BoolVarP(&fv.verbose, "verbose", "v", false, "Show verbose output")
	rootCmd.Flags().BoolVarP(&opts.Pick, "pick", "p", false, "Choose the capture device interactively")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return opts, nil
}

// applyFlags copies every flag the user set into cfg and revalidates.
func applyFlags(cmd *cobra.Command, fv *flagValues, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("source") {
		cfg.Audio.Source = fv.source
	}
	if changed("device") {
		cfg.Audio.Device = fv.device
	}
	if changed("file") {
		cfg.Audio.File = fv.file
		if !changed("source") {
			cfg.Audio.Source = config.SourceFile
		}
	}
	if changed("loop") {
		cfg.Audio.Loop = fv.loop
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = fv.sampleRate
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = fv.framesPerBuffer
	}
	if changed("channels") {
		cfg.Audio.InputChannels = fv.channels
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = fv.lowLatency
	}
	if changed("gate") {
		cfg.Audio.GateEnabled = fv.gate > 0
		cfg.Audio.GateThreshold = fv.gate
	}

	if changed("fft-size") {
		cfg.Analysis.FFTSize = fv.fftSize
	}
	if changed("window") {
		cfg.Analysis.FFTWindow = fv.window
	}
	if changed("bars") {
		cfg.Analysis.Bars = fv.bars
	}
	if changed("sensitivity") {
		cfg.Analysis.Sensitivity = fv.sensitivity
	}
	if changed("mapping") {
		cfg.Analysis.Mapping = fv.mapping
	}
	if changed("reduction") {
		cfg.Analysis.Reduction = fv.reduction
	}

	if changed("record") {
		cfg.Recording.Enabled = fv.record
	}
	if changed("output-dir") {
		cfg.Recording.OutputDir = fv.outputDir
	}

	if changed("udp") {
		cfg.Transport.UDPEnabled = fv.udp
	}
	if changed("udp-target") {
		cfg.Transport.UDPTargetAddress = fv.udpTarget
	}
	if changed("udp-interval") {
		cfg.Transport.UDPSendInterval = fv.udpInterval
	}
	if changed("ws") {
		cfg.Transport.WSEnabled = fv.ws
	}
	if changed("ws-addr") {
		cfg.Transport.WSAddress = fv.wsAddr
	}

	if changed("no-tui") {
		cfg.UI.TUI = !fv.noTUI
	}
	if changed("stats") {
		cfg.UI.ShowStats = fv.stats
	}
	if changed("log-file") {
		cfg.UI.LogFile = fv.logFile
	}
	if changed("verbose") && fv.verbose {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("command line: %w", err)
	}
	return nil
}
