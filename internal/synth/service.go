package synth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/example/go-stream-tts/internal/audio"
	"github.com/example/go-stream-tts/internal/g2p"
	"github.com/example/go-stream-tts/internal/result"
	"github.com/example/go-stream-tts/internal/voice"
)

// Request describes one synthesis request.
type Request struct {
	// Text is the raw input; it is normalized and split into sentences.
	Text string

	// Voice is the primary voice id. SecondVoice, when set, is blended in
	// with MixWeight.
	Voice       string
	SecondVoice string
	MixWeight   float64

	// Locale selects pronunciation rules, e.g. "en-us" or "en-gb".
	Locale string

	// Speed is the playback rate; zero means 1.0. Values are clamped to
	// the supported range.
	Speed float64
}

// Outcome records one sentence's fate. Kind is empty on success.
type Outcome struct {
	Index    int
	Sentence string
	Samples  int
	Kind     result.Kind
	Err      error

	// Terminal flags used by the request loop, not part of the outcome's
	// public record.
	skipped bool
	stopped bool
}

// Report summarizes a request: one outcome per attempted sentence, in
// input order. Cancelled and Stopped are terminal conditions, not
// failures; sentences after the terminal point carry no outcome.
type Report struct {
	Outcomes  []Outcome
	Cancelled bool
	Stopped   bool
}

// Succeeded counts sentences whose audio was fully delivered.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == "" {
			n++
		}
	}

	return n
}

// Failed counts sentences that errored. Cancelled outcomes do not count.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind != "" && o.Kind != result.KindCancelled {
			n++
		}
	}

	return n
}

// Err combines every sentence failure into one error, nil when the whole
// request succeeded or was merely cancelled.
func (r *Report) Err() error {
	var err error
	for _, o := range r.Outcomes {
		if o.Err != nil && o.Kind != result.KindCancelled {
			err = multierr.Append(err, fmt.Errorf("sentence %d: %w", o.Index, o.Err))
		}
	}

	return err
}

// Service orchestrates whole requests: normalization, sentence
// segmentation, per-sentence phonemization and synthesis. Sentences are
// processed strictly in order; one sentence failing never aborts the rest.
type Service struct {
	phonemizer *g2p.Phonemizer
	voices     *voice.Store
	synth      *Synthesizer
	log        *slog.Logger
	retry      result.RetryPolicy
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service's logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithRetryPolicy overrides the inference retry policy.
func WithRetryPolicy(p result.RetryPolicy) ServiceOption {
	return func(s *Service) { s.retry = p }
}

// NewService assembles the request pipeline around a synthesizer.
func NewService(phonemizer *g2p.Phonemizer, voices *voice.Store, synth *Synthesizer, opts ...ServiceOption) *Service {
	s := &Service{
		phonemizer: phonemizer,
		voices:     voices,
		synth:      synth,
		log:        slog.Default(),
		retry:      result.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Stop halts chunk emission for the in-flight request at the next chunk
// boundary.
func (s *Service) Stop() {
	s.synth.Stop()
}

// Speak runs one request end to end, streaming PCM chunks to onChunk. The
// returned error covers request-level problems only (empty text, unknown
// voice); per-sentence failures are reported in the Report and do not
// interrupt later sentences. Cancellation ends the request early with
// Report.Cancelled set and a nil error.
func (s *Service) Speak(ctx context.Context, req Request, onChunk ChunkFunc) (*Report, error) {
	start := time.Now()

	normalized := g2p.NormalizeText(req.Text)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty text", result.ErrInvalidText)
	}

	if _, ok := voice.Lookup(req.Voice); !ok {
		return nil, fmt.Errorf("%w: %q", result.ErrVoiceNotFound, req.Voice)
	}

	if req.SecondVoice != "" {
		if _, ok := voice.Lookup(req.SecondVoice); !ok {
			return nil, fmt.Errorf("%w: %q", result.ErrVoiceNotFound, req.SecondVoice)
		}
	}

	speed := float32(audio.ClampSpeed(req.Speed))
	if req.Speed == 0 {
		speed = 1.0
	}

	sentences := g2p.SplitSentences(normalized)
	report := &Report{Outcomes: make([]Outcome, 0, len(sentences))}

	s.synth.Reset()

	s.log.Info("synthesis request",
		slog.String("voice", req.Voice),
		slog.Int("sentences", len(sentences)),
		slog.Float64("speed", float64(speed)),
	)

	for i, sentence := range sentences {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		outcome := s.speakSentence(ctx, i, sentence, req, speed, onChunk)

		switch {
		case outcome.Kind == result.KindCancelled:
			report.Outcomes = append(report.Outcomes, outcome)
			report.Cancelled = true
		case outcome.skipped:
			// Nothing pronounceable, e.g. stray punctuation. Not an
			// outcome worth reporting.
			continue
		default:
			report.Outcomes = append(report.Outcomes, outcome)
		}

		if report.Cancelled {
			break
		}

		if outcome.stopped {
			report.Stopped = true
			break
		}
	}

	s.log.Info("synthesis request done",
		slog.Int("succeeded", report.Succeeded()),
		slog.Int("failed", report.Failed()),
		slog.Bool("cancelled", report.Cancelled),
		slog.Duration("elapsed", time.Since(start)),
	)

	return report, nil
}

// speakSentence phonemizes and renders one sentence, translating every
// exit path into an outcome.
func (s *Service) speakSentence(ctx context.Context, index int, sentence string, req Request, speed float32, onChunk ChunkFunc) Outcome {
	outcome := Outcome{Index: index, Sentence: sentence}

	phonemes := s.phonemizer.Phonemize(sentence, req.Locale, false)
	if strings.TrimSpace(phonemes) == "" {
		s.log.Debug("sentence has no pronounceable content",
			slog.Int("index", index),
			slog.String("sentence", sentence),
		)
		outcome.skipped = true

		return outcome
	}

	// The style table is indexed by utterance length: longer inputs get a
	// frame conditioned on longer contexts.
	frame := utf8.RuneCountInString(phonemes)

	var style []float32
	if req.SecondVoice != "" {
		style = s.voices.Mix(req.Voice, req.SecondVoice, req.MixWeight)
	} else {
		style = s.voices.EmbeddingFor(req.Voice, frame)
	}

	samples := 0
	counting := func(pcm []byte) bool {
		samples += len(pcm) / 2
		if onChunk == nil {
			return true
		}

		return onChunk(pcm)
	}

	res := result.WithRetry(ctx, s.retry, fmt.Sprintf("sentence-%d", index), func(ctx context.Context) (Status, error) {
		return s.synth.Synthesize(ctx, phonemes, style, speed, counting)
	})

	status, err := res.Value()
	outcome.Samples = samples

	switch {
	case err != nil:
		outcome.Kind = result.Classify(err)
		outcome.Err = err

		if outcome.Kind != result.KindCancelled {
			s.log.Error("sentence synthesis failed",
				slog.Int("index", index),
				slog.String("kind", string(outcome.Kind)),
				slog.String("error", err.Error()),
			)
		}
	case status == StatusNoAudio:
		// The model had nothing to say for this sentence. The request
		// moves on; the empty outcome stays in the report.
		s.log.Debug("sentence produced no audio", slog.Int("index", index))
	case status == StatusHalted:
		outcome.stopped = true
	}

	return outcome
}
