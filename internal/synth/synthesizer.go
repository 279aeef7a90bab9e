// Package synth turns phonemized text into streamed PCM audio. The
// Synthesizer handles one utterance at a time (tokenize, infer, chunk)
// while the Service orchestrates whole requests sentence by sentence.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/example/go-stream-tts/internal/audio"
	"github.com/example/go-stream-tts/internal/engine"
	"github.com/example/go-stream-tts/internal/result"
	"github.com/example/go-stream-tts/internal/vocab"
)

const (
	// DefaultChunkSamples is the number of samples per emitted PCM chunk,
	// 8192 bytes at 16 bits mono.
	DefaultChunkSamples = 4096

	// inferenceMemoryMB is the free-memory floor required before a forward
	// pass is attempted.
	inferenceMemoryMB = 256
)

// ChunkFunc receives one chunk of little-endian 16-bit PCM. Returning false
// halts emission; the remaining audio is discarded.
type ChunkFunc func(pcm []byte) bool

// Status reports how one utterance's emission ended.
type Status int

const (
	// StatusCompleted means every chunk was delivered.
	StatusCompleted Status = iota

	// StatusNoAudio means the model produced an empty waveform. The
	// utterance has nothing to play; later utterances are unaffected.
	StatusNoAudio

	// StatusHalted means emission ended early because the consumer
	// returned false or Stop was called.
	StatusHalted
)

// Completed reports whether every chunk was delivered.
func (s Status) Completed() bool { return s == StatusCompleted }

// Synthesizer streams one utterance through the engine in fixed-size
// chunks. A single instance serves one request at a time; Stop may be
// called from any goroutine.
type Synthesizer struct {
	engine       engine.Engine
	log          *slog.Logger
	chunkSamples int
	memory       result.MemoryThresholds

	stopped atomic.Bool
}

// SynthOption configures a Synthesizer.
type SynthOption func(*Synthesizer)

// WithChunkSamples overrides the per-chunk sample count.
func WithChunkSamples(n int) SynthOption {
	return func(s *Synthesizer) {
		if n > 0 {
			s.chunkSamples = n
		}
	}
}

// WithMemoryThresholds sets the pressure thresholds the inference memory
// guard is evaluated against.
func WithMemoryThresholds(t result.MemoryThresholds) SynthOption {
	return func(s *Synthesizer) { s.memory = t }
}

// WithSynthLogger sets the synthesizer's logger.
func WithSynthLogger(l *slog.Logger) SynthOption {
	return func(s *Synthesizer) { s.log = l }
}

// NewSynthesizer wraps an engine for chunked streaming synthesis.
func NewSynthesizer(e engine.Engine, opts ...SynthOption) *Synthesizer {
	s := &Synthesizer{
		engine:       e,
		log:          slog.Default(),
		chunkSamples: DefaultChunkSamples,
		memory:       result.DefaultMemoryThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Stop requests that chunk emission halt at the next chunk boundary. An
// in-flight forward pass is not aborted; its output is discarded. Safe to
// call concurrently with Synthesize.
func (s *Synthesizer) Stop() {
	s.stopped.Store(true)
}

// Reset clears a previous Stop so the synthesizer can serve a new request.
func (s *Synthesizer) Reset() {
	s.stopped.Store(false)
}

// Synthesize renders one phoneme string and emits the audio as PCM chunks.
// The returned status distinguishes full delivery, an empty model waveform,
// and an early halt (consumer or Stop); errors cover tokenization and
// inference failures. The speed factor is clamped to the supported range.
// Cancellation surfaces as a context error, which callers must not treat
// as failure.
func (s *Synthesizer) Synthesize(ctx context.Context, phonemes string, style []float32, speed float32, onChunk ChunkFunc) (Status, error) {
	if err := ctx.Err(); err != nil {
		return StatusHalted, err
	}

	if s.stopped.Load() {
		return StatusHalted, nil
	}

	speed = float32(audio.ClampSpeed(float64(speed)))

	tokens := vocab.Tokenize(phonemes)
	// Boundary padding alone means nothing to say.
	if len(tokens) <= 4 {
		return StatusNoAudio, fmt.Errorf("%w: no usable symbols in %q", result.ErrTokenizationFailed, phonemes)
	}

	res := result.WithMemoryCheck(s.memory, inferenceMemoryMB, func() ([]float32, error) {
		return s.engine.Infer(ctx, tokens, style, speed)
	})

	waveform, err := res.Value()
	if err != nil {
		if errors.Is(err, engine.ErrEmptyWaveform) {
			s.log.Warn("model produced no audio", slog.Int("tokens", len(tokens)))
			return StatusNoAudio, nil
		}

		if ctx.Err() != nil {
			return StatusHalted, ctx.Err()
		}

		if res.Kind() == result.KindOutOfMemory {
			return StatusHalted, err
		}

		if errors.Is(err, engine.ErrNotInitialized) {
			return StatusHalted, fmt.Errorf("%w: %w", result.ErrEngineNotInitialized, err)
		}

		return StatusHalted, fmt.Errorf("%w: %w", result.ErrInferenceFailed, err)
	}

	if len(waveform) == 0 {
		s.log.Warn("model produced no audio", slog.Int("tokens", len(tokens)))
		return StatusNoAudio, nil
	}

	return s.emit(ctx, audio.FloatToPCM16(waveform), onChunk)
}

// emit streams the PCM buffer chunk by chunk, checking for cancellation,
// Stop, and consumer backpressure at every boundary.
func (s *Synthesizer) emit(ctx context.Context, pcm []byte, onChunk ChunkFunc) (Status, error) {
	chunkBytes := s.chunkSamples * audio.BitsPerSample / 8

	for off := 0; off < len(pcm); off += chunkBytes {
		if err := ctx.Err(); err != nil {
			return StatusHalted, err
		}

		if s.stopped.Load() {
			s.log.Debug("synthesis stopped",
				slog.Int("emitted_bytes", off),
				slog.Int("total_bytes", len(pcm)),
			)

			return StatusHalted, nil
		}

		end := min(off+chunkBytes, len(pcm))

		if onChunk != nil && !onChunk(pcm[off:end]) {
			s.log.Debug("consumer halted stream",
				slog.Int("emitted_bytes", end),
				slog.Int("total_bytes", len(pcm)),
			)

			return StatusHalted, nil
		}
	}

	return StatusCompleted, nil
}
