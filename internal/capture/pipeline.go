package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chunkrec/chunkrec/internal/audio"
	"github.com/chunkrec/chunkrec/internal/config"
	"github.com/chunkrec/chunkrec/internal/timestamp"
	"github.com/chunkrec/chunkrec/internal/wavfile"
	"github.com/rs/zerolog"
)

// State is the pipeline lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateStreaming
	StateDraining
	StateStopped
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// maxNameAttempts bounds the collision retry loop when two chunks land
// within the timestamp formatter's resolution.
const maxNameAttempts = 10

// Pipeline owns the capture stream subscription, the hand-off queue and the
// chunk rollover loop.
type Pipeline struct {
	cfg   config.Session
	src   audio.Source
	log   zerolog.Logger
	queue *Queue

	// now is swapped out in tests.
	now func() time.Time

	state   atomic.Int32
	dropped atomic.Uint64

	// Clock state and totals below are owned by the consumer loop; the
	// producer callback never reads them.
	sessionStart  time.Time
	framesWritten int
	chunksWritten int
}

// New creates a pipeline for one recording session. cfg must already be
// validated.
func New(cfg config.Session, src audio.Source, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		src:   src,
		log:   log,
		queue: NewQueue(cfg.QueueDepth),
		now:   time.Now,
	}
}

// State reports the current lifecycle phase.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// DroppedFrames reports how many producer buffers were discarded because
// the queue was full.
func (p *Pipeline) DroppedFrames() uint64 {
	return p.dropped.Load()
}

// FramesWritten reports the total sample-frames persisted across all chunks.
func (p *Pipeline) FramesWritten() int {
	return p.framesWritten
}

// ChunksWritten reports how many chunk files were closed.
func (p *Pipeline) ChunksWritten() int {
	return p.chunksWritten
}

// Run records until the configured total duration elapses or ctx is
// cancelled. Cancellation is graceful: queued frames are drained into the
// current chunk and the file is closed before returning. Run returns nil on
// both completion paths and an error only for unrecoverable failures.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		p.state.Store(int32(StateError))
		return fmt.Errorf("failed to create output directory %s: %w", p.cfg.OutputDir, err)
	}

	if err := p.src.Start(p.cfg.Device, p.cfg.SampleRate, p.cfg.Channels, p.onFrames); err != nil {
		p.state.Store(int32(StateError))
		return fmt.Errorf("failed to open capture stream: %w", err)
	}
	// The device is torn down only after the consumer loop has stopped
	// pulling from the queue.
	defer func() {
		if err := p.src.Stop(); err != nil {
			p.log.Warn().Err(err).Msg("Failed to stop capture stream")
		}
		p.queue.Close()
	}()

	p.sessionStart = p.now()
	p.state.Store(int32(StateStreaming))
	p.log.Info().
		Int("sample_rate", p.cfg.SampleRate).
		Int("channels", p.cfg.Channels).
		Dur("chunk", p.cfg.ChunkDuration).
		Str("dir", p.cfg.OutputDir).
		Msg("Recording started")

	if err := p.consume(ctx); err != nil {
		p.state.Store(int32(StateError))
		return err
	}

	p.state.Store(int32(StateStopped))
	p.log.Info().
		Int("chunks", p.chunksWritten).
		Int("frames", p.framesWritten).
		Uint64("dropped", p.dropped.Load()).
		Msg("Recording stopped")
	return nil
}

// onFrames runs in the producer domain. It copies the driver-owned buffer,
// enqueues it and returns; it must never block or touch chunk clock state.
func (p *Pipeline) onFrames(in []int16, flags audio.Flags) {
	if flags != 0 {
		p.log.Warn().Str("status", flags.String()).Msg("Device reported status")
	}

	buf := make(Frame, len(in))
	copy(buf, in)
	if !p.queue.Push(buf) {
		p.dropped.Add(1)
	}
}

func (p *Pipeline) consume(ctx context.Context) error {
	for {
		if p.cfg.TotalDuration > 0 && p.now().Sub(p.sessionStart) >= p.cfg.TotalDuration {
			return nil
		}

		cancelled, err := p.writeChunk(ctx)
		if err != nil {
			return err
		}
		if cancelled {
			return nil
		}
	}
}

// writeChunk records one chunk file: strict-create, write frames in arrival
// order until the chunk deadline, close. The deadline is capped by the
// remaining total duration so the final chunk is truncated at the session
// boundary.
func (p *Pipeline) writeChunk(ctx context.Context) (cancelled bool, err error) {
	w, err := p.createChunk()
	if err != nil {
		return false, err
	}

	chunkStart := p.now()
	deadline := p.cfg.ChunkDuration
	if p.cfg.TotalDuration > 0 {
		if remaining := p.cfg.TotalDuration - chunkStart.Sub(p.sessionStart); remaining < deadline {
			deadline = remaining
		}
	}

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	closeChunk := func() error {
		frames := w.Frames()
		if cerr := w.Close(); cerr != nil {
			return cerr
		}
		p.framesWritten += frames
		p.chunksWritten++
		p.log.Info().
			Str("path", w.Path()).
			Int("frames", frames).
			Dur("elapsed", p.now().Sub(chunkStart)).
			Msg("Chunk closed")
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			p.state.Store(int32(StateDraining))
			if derr := p.drain(w); derr != nil {
				w.Close()
				return true, derr
			}
			return true, closeChunk()

		case <-timer.C:
			return false, closeChunk()

		case f, ok := <-p.queue.frames():
			if !ok {
				return true, closeChunk()
			}
			if werr := w.WriteFrames(f); werr != nil {
				w.Close()
				return false, werr
			}
		}
	}
}

// drain writes out frames the producer enqueued before the stop signal, so
// the final chunk holds everything that was handed off.
func (p *Pipeline) drain(w *wavfile.Writer) error {
	for {
		f, ok := p.queue.TryPop()
		if !ok {
			return nil
		}
		if err := w.WriteFrames(f); err != nil {
			return err
		}
	}
}

// createChunk opens the next chunk file. A filename collision (two chunks
// within the formatter's resolution) is retried with a numeric suffix
// rather than overwriting or skipping.
func (p *Pipeline) createChunk() (*wavfile.Writer, error) {
	now := p.now()
	if p.cfg.UTC {
		now = now.UTC()
	}

	name := timestamp.Filename(p.cfg.Prefix, now)
	base := strings.TrimSuffix(name, ".wav")

	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		path := filepath.Join(p.cfg.OutputDir, name)
		w, err := wavfile.Create(path, p.cfg.SampleRate, p.cfg.Channels)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, wavfile.ErrExists) {
			return nil, err
		}
		name = fmt.Sprintf("%s_%d.wav", base, attempt)
	}

	return nil, fmt.Errorf("no free chunk filename for %s after %d attempts", base, maxNameAttempts)
}
