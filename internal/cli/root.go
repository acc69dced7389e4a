// Package cli wires the recording pipeline to the command line: flag
// parsing, device listing, signal handling and exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chunkrec/chunkrec/internal/audio"
	"github.com/chunkrec/chunkrec/internal/capture"
	"github.com/chunkrec/chunkrec/internal/config"
	"github.com/chunkrec/chunkrec/internal/logging"
)

// errConfig marks failures that are configuration mistakes rather than
// runtime faults; they map to a distinct exit code.
var errConfig = errors.New("configuration error")

var (
	argChunkSeconds float64
	argTotalSeconds float64
	argSampleRate   int
	argChannels     int
	argDevice       int
	argListDevices  bool
	argPrefix       string
	argUseUTC       bool
	argOutputDir    string
	argLogLevel     string

	rootCmd = &cobra.Command{
		Use:           "chunkrec",
		Short:         "Record audio from an input device into timestamped WAV chunks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRecord,
	}
)

func init() {
	defaults := config.Default()

	rootCmd.Flags().Float64VarP(&argChunkSeconds, "duration", "d", defaults.ChunkDuration.Seconds(), "Duration of each recording chunk in seconds")
	rootCmd.Flags().Float64VarP(&argTotalSeconds, "total-duration", "t", 0, "Total recording duration in seconds (default: run until cancelled)")
	rootCmd.Flags().IntVarP(&argSampleRate, "samplerate", "r", defaults.SampleRate, "Sampling rate in Hz")
	rootCmd.Flags().IntVarP(&argChannels, "channels", "c", defaults.Channels, "Number of audio channels")
	rootCmd.Flags().IntVar(&argDevice, "device", config.DefaultDevice, "Input device index (default: system default input)")
	rootCmd.Flags().BoolVar(&argListDevices, "list-devices", false, "Print the list of audio devices and exit")
	rootCmd.Flags().StringVar(&argPrefix, "prefix", defaults.Prefix, "Filename prefix for recorded chunks")
	rootCmd.Flags().BoolVar(&argUseUTC, "use-utc", false, "Use UTC time for filename timestamps (default: local time)")
	rootCmd.Flags().StringVar(&argOutputDir, "output-dir", defaults.OutputDir, "Output directory for the recording files")
	rootCmd.Flags().StringVar(&argLogLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
}

// Execute runs the root command and returns the process exit code: 0 on
// success or cancellation, 2 for configuration errors, 1 otherwise.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, errConfig) {
			return 2
		}
		return 1
	}
	return 0
}

// sessionFromFlags translates the flag surface into an immutable Session.
func sessionFromFlags() config.Session {
	cfg := config.Default()
	cfg.SampleRate = argSampleRate
	cfg.Channels = argChannels
	cfg.Device = argDevice
	cfg.ChunkDuration = time.Duration(argChunkSeconds * float64(time.Second))
	cfg.TotalDuration = time.Duration(argTotalSeconds * float64(time.Second))
	cfg.Prefix = argPrefix
	cfg.OutputDir = argOutputDir
	cfg.UTC = argUseUTC
	return cfg
}

func runRecord(cmd *cobra.Command, _ []string) error {
	log := logging.NewWithLevel(argLogLevel)

	src, err := audio.New()
	if err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}
	defer src.Close()

	if argListDevices {
		return printDevices(cmd, src)
	}

	cfg := sessionFromFlags()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	if err := checkDevice(src, cfg); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := capture.New(cfg, src, log)

	log.Info().Msg("Recording... press Ctrl+C to stop")
	if err := pipeline.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Recording failed")
		return err
	}
	return nil
}

// checkDevice rejects an invalid device selection before any file is
// created. The default device is validated by the driver at stream open.
func checkDevice(src audio.Source, cfg config.Session) error {
	if cfg.Device == config.DefaultDevice {
		return nil
	}

	devices, err := src.Devices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		if d.Index != cfg.Device {
			continue
		}
		if d.MaxInputChannels < cfg.Channels {
			return fmt.Errorf("device %d (%s) has %d input channels, %d requested",
				d.Index, d.Name, d.MaxInputChannels, cfg.Channels)
		}
		return nil
	}
	return fmt.Errorf("no input device with index %d", cfg.Device)
}

func printDevices(cmd *cobra.Command, src audio.Source) error {
	devices, err := src.Devices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Available audio devices:")
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %3d  %-40s  %d in @ %.0f Hz\n",
			marker, d.Index, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
	return nil
}
