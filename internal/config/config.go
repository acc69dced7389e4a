// Package config holds the immutable recording session configuration.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultDevice selects the system default input device.
const DefaultDevice = -1

// Session is the configuration for one recording run. It is created once at
// startup and never mutated afterwards.
type Session struct {
	SampleRate int `validate:"gt=0"`
	Channels   int `validate:"gte=1"`

	// Device is the input device index, or DefaultDevice for the system
	// default input.
	Device int `validate:"gte=-1"`

	// ChunkDuration is the length of each output file.
	ChunkDuration time.Duration `validate:"gt=0"`

	// TotalDuration caps the whole session; zero means record until
	// cancelled.
	TotalDuration time.Duration `validate:"gte=0"`

	// QueueDepth bounds the producer/consumer hand-off channel, in hardware
	// buffers. Frames arriving while the queue is full are dropped with a
	// warning.
	QueueDepth int `validate:"gt=0"`

	OutputDir string `validate:"required"`
	Prefix    string `validate:"required"`

	// UTC selects UTC timestamps for chunk filenames; otherwise local time.
	UTC bool
}

// Default returns a Session mirroring the stock recording settings: one
// minute chunks of 44.1kHz stereo into the current directory.
func Default() Session {
	return Session{
		SampleRate:    44100,
		Channels:      2,
		Device:        DefaultDevice,
		ChunkDuration: 60 * time.Second,
		TotalDuration: 0,
		QueueDepth:    256,
		OutputDir:     ".",
		Prefix:        "audio_recording",
	}
}

var validate = validator.New()

// Validate checks the session before any device or file is touched.
func (s Session) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid session config: %w", err)
	}
	return nil
}
