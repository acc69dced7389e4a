package wavfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestCreateWriteClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")

	w, err := Create(path, 44100, 2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Two stereo buffers of 4 frames each.
	if err := w.WriteFrames([]int16{0, 1, 2, 3, 4, 5, 6, 7}); err != nil {
		t.Fatalf("WriteFrames: %v", err)
	}
	if err := w.WriteFrames([]int16{8, 9, 10, 11, 12, 13, 14, 15}); err != nil {
		t.Fatalf("WriteFrames: %v", err)
	}

	if got := w.Frames(); got != 8 {
		t.Fatalf("expected 8 frames written, got %d", got)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("expected a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if buf.Format.NumChannels != 2 {
		t.Fatalf("expected 2 channels, got %d", buf.Format.NumChannels)
	}
	if buf.Format.SampleRate != 44100 {
		t.Fatalf("expected 44100 Hz, got %d", buf.Format.SampleRate)
	}
	if len(buf.Data) != 16 {
		t.Fatalf("expected 16 samples, got %d", len(buf.Data))
	}
	for i, want := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15} {
		if buf.Data[i] != want {
			t.Fatalf("sample %d: expected %d, got %d", i, want, buf.Data[i])
		}
	}
}

func TestCreateRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")

	original := []byte("do not touch")
	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	_, err := Create(path, 44100, 1)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(after, original) {
		t.Fatal("existing file was modified by the failed create")
	}
}

func TestCloseWithoutWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")

	w, err := Create(path, 16000, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	if dec := wav.NewDecoder(f); !dec.IsValidFile() {
		t.Fatal("expected an empty chunk to still be a valid WAV file")
	}
}
