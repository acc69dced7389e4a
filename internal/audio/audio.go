// Package audio abstracts the capture device behind a small Source
// interface so the pipeline can be driven by a real input device or a fake
// in tests.
package audio

import "strings"

// Device represents an audio input device.
type Device struct {
	Index             int
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

// Flags carries per-buffer status reported by the device driver alongside
// the captured samples.
type Flags uint8

const (
	// FlagInputOverflow means the driver discarded input data before the
	// callback could consume it.
	FlagInputOverflow Flags = 1 << iota
	// FlagInputUnderflow means the driver needed input data before it was
	// available.
	FlagInputUnderflow
)

func (f Flags) String() string {
	var parts []string
	if f&FlagInputOverflow != 0 {
		parts = append(parts, "input overflow")
	}
	if f&FlagInputUnderflow != 0 {
		parts = append(parts, "input underflow")
	}
	if len(parts) == 0 {
		return "ok"
	}
	return strings.Join(parts, ", ")
}

// FrameFunc is invoked once per hardware buffer period with interleaved
// 16-bit samples. The slice is owned by the driver and is only valid for
// the duration of the call; the callback must copy what it keeps and must
// return quickly, since it runs in the driver's real-time context.
type FrameFunc func(in []int16, flags Flags)

// Source defines the interface for audio capture devices.
type Source interface {
	// Devices enumerates the available input devices.
	Devices() ([]Device, error)
	// Start opens the input stream and begins delivering buffers to fn.
	// A negative deviceIndex selects the system default input device.
	Start(deviceIndex, sampleRate, channels int, fn FrameFunc) error
	// Stop halts buffer delivery; the stream may be restarted.
	Stop() error
	// Close releases the stream and the underlying audio host.
	Close() error
}
