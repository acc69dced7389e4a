package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/chunkrec/chunkrec/internal/audio"
	"github.com/chunkrec/chunkrec/internal/config"
	"github.com/spf13/cobra"
)

type listOnlySource struct {
	devices []audio.Device
}

func (s *listOnlySource) Devices() ([]audio.Device, error) {
	return s.devices, nil
}

func (s *listOnlySource) Start(_, _, _ int, _ audio.FrameFunc) error { return nil }
func (s *listOnlySource) Stop() error                                { return nil }
func (s *listOnlySource) Close() error                               { return nil }

func TestSessionFromFlags(t *testing.T) {
	argChunkSeconds = 2.5
	argTotalSeconds = 10
	argSampleRate = 16000
	argChannels = 1
	argDevice = 3
	argPrefix = "meeting"
	argUseUTC = true
	argOutputDir = "/tmp/recordings"
	defer func() {
		argChunkSeconds = 60
		argTotalSeconds = 0
		argSampleRate = 44100
		argChannels = 2
		argDevice = config.DefaultDevice
		argPrefix = "audio_recording"
		argUseUTC = false
		argOutputDir = "."
	}()

	cfg := sessionFromFlags()

	if cfg.ChunkDuration != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s chunk duration, got %v", cfg.ChunkDuration)
	}
	if cfg.TotalDuration != 10*time.Second {
		t.Fatalf("expected 10s total duration, got %v", cfg.TotalDuration)
	}
	if cfg.SampleRate != 16000 || cfg.Channels != 1 || cfg.Device != 3 {
		t.Fatalf("unexpected audio settings: %+v", cfg)
	}
	if cfg.Prefix != "meeting" || cfg.OutputDir != "/tmp/recordings" || !cfg.UTC {
		t.Fatalf("unexpected output settings: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("flag-built session should validate: %v", err)
	}
}

func TestCheckDevice(t *testing.T) {
	src := &listOnlySource{devices: []audio.Device{
		{Index: 0, Name: "Built-in Microphone", MaxInputChannels: 1, Default: true},
		{Index: 2, Name: "USB Interface", MaxInputChannels: 8},
	}}

	cfg := config.Default()

	cfg.Device = config.DefaultDevice
	if err := checkDevice(src, cfg); err != nil {
		t.Fatalf("default device must not be pre-validated: %v", err)
	}

	cfg.Device = 2
	cfg.Channels = 2
	if err := checkDevice(src, cfg); err != nil {
		t.Fatalf("valid selection rejected: %v", err)
	}

	cfg.Device = 0
	cfg.Channels = 2
	if err := checkDevice(src, cfg); err == nil {
		t.Fatal("expected an error for a mono device with stereo requested")
	}

	cfg.Device = 7
	if err := checkDevice(src, cfg); err == nil {
		t.Fatal("expected an error for an unknown device index")
	}
}

func TestPrintDevices(t *testing.T) {
	src := &listOnlySource{devices: []audio.Device{
		{Index: 0, Name: "Built-in Microphone", MaxInputChannels: 1, DefaultSampleRate: 44100, Default: true},
		{Index: 2, Name: "USB Interface", MaxInputChannels: 8, DefaultSampleRate: 48000},
	}}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	if err := printDevices(cmd, src); err != nil {
		t.Fatalf("printDevices: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Built-in Microphone") || !strings.Contains(out, "USB Interface") {
		t.Fatalf("device names missing from listing:\n%s", out)
	}
	if !strings.Contains(out, "*   0") {
		t.Fatalf("default device not marked:\n%s", out)
	}
}
