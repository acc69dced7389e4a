// Package wavfile writes 16-bit PCM WAV chunk files with strict-create
// semantics: a chunk never overwrites or appends to an existing file.
package wavfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 16

// ErrExists reports a chunk filename collision. The file that was already
// at the path is left untouched.
var ErrExists = errors.New("chunk file already exists")

// Writer owns one open chunk file. Exactly one Writer should be open at a
// time in a recording session; Close finalizes the RIFF header.
type Writer struct {
	path     string
	channels int
	file     *os.File
	enc      *wav.Encoder
	frames   int
}

// Create opens path for writing, failing with ErrExists if the path is
// already taken. Samples are interleaved 16-bit signed PCM.
func Create(path string, sampleRate, channels int) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrExists, path)
		}
		return nil, fmt.Errorf("failed to create chunk file %s: %w", path, err)
	}

	return &Writer{
		path:     path,
		channels: channels,
		file:     f,
		enc:      wav.NewEncoder(f, sampleRate, bitDepth, channels, 1),
	}, nil
}

// WriteFrames appends one interleaved buffer in arrival order. The whole
// buffer is written or the writer is left in an errored state; partial
// frames are never emitted.
func (w *Writer) WriteFrames(samples []int16) error {
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: w.channels,
			SampleRate:  w.enc.SampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: bitDepth,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	if err := w.enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write %d samples to %s: %w", len(samples), w.path, err)
	}

	w.frames += len(samples) / w.channels
	return nil
}

// Frames reports the number of sample-frames written so far.
func (w *Writer) Frames() int {
	return w.frames
}

// Path reports the file path the writer was created with.
func (w *Writer) Path() string {
	return w.path
}

// Close finalizes the WAV header and releases the file handle. The file is
// closed even when header finalization fails.
func (w *Writer) Close() error {
	encErr := w.enc.Close()
	closeErr := w.file.Close()

	if encErr != nil {
		return fmt.Errorf("failed to finalize %s: %w", w.path, encErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", w.path, closeErr)
	}
	return nil
}
