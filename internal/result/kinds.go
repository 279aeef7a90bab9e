// Package result carries the typed result/error contract shared across the
// synthesis pipeline: a two-variant result type, a closed set of error
// kinds with a central classifier, transient-failure retry with backoff, and
// memory-pressure guards.
package result

import (
	"context"
	"errors"
	"io/fs"
)

// Kind is the closed set of error categories. Every failure crossing a
// component boundary is classified into exactly one kind.
type Kind string

const (
	// Initialization failures.
	KindEngineNotInitialized Kind = "engine-not-initialized"
	KindModelNotFound        Kind = "model-not-found"
	KindModelLoadFailed      Kind = "model-load-failed"

	// Input failures.
	KindInvalidText   Kind = "invalid-text"
	KindInvalidVoice  Kind = "invalid-voice"
	KindVoiceNotFound Kind = "voice-not-found"

	// Processing failures.
	KindPhonemizationFailed   Kind = "phonemization-failed"
	KindTokenizationFailed    Kind = "tokenization-failed"
	KindInferenceFailed       Kind = "inference-failed"
	KindAudioGenerationFailed Kind = "audio-generation-failed"

	// Resource failures.
	KindOutOfMemory   Kind = "out-of-memory"
	KindFileNotFound  Kind = "file-not-found"
	KindFileReadError Kind = "file-read-error"

	// Runtime conditions.
	KindTimeout   Kind = "timeout"
	KindCancelled Kind = "cancelled"
	KindUnknown   Kind = "unknown"
)

// Sentinel errors raised by pipeline components, mapped 1:1 to kinds by
// Classify. Components wrap these with fmt.Errorf("...: %w", ...).
var (
	ErrEngineNotInitialized = errors.New("inference engine is not initialized")
	ErrModelNotFound        = errors.New("model file not found")
	ErrModelLoadFailed      = errors.New("model load failed")
	ErrInvalidText          = errors.New("invalid input text")
	ErrInvalidVoice         = errors.New("invalid voice")
	ErrVoiceNotFound        = errors.New("voice not found")
	ErrPhonemizationFailed  = errors.New("phonemization failed")
	ErrTokenizationFailed   = errors.New("tokenization failed")
	ErrInferenceFailed      = errors.New("inference failed")
	ErrAudioGeneration      = errors.New("audio generation failed")
	ErrOutOfMemory          = errors.New("not enough free memory")
)

var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{ErrEngineNotInitialized, KindEngineNotInitialized},
	{ErrModelNotFound, KindModelNotFound},
	{ErrModelLoadFailed, KindModelLoadFailed},
	{ErrInvalidText, KindInvalidText},
	{ErrInvalidVoice, KindInvalidVoice},
	{ErrVoiceNotFound, KindVoiceNotFound},
	{ErrPhonemizationFailed, KindPhonemizationFailed},
	{ErrTokenizationFailed, KindTokenizationFailed},
	{ErrInferenceFailed, KindInferenceFailed},
	{ErrAudioGeneration, KindAudioGenerationFailed},
	{ErrOutOfMemory, KindOutOfMemory},
}

// Classify maps an error to its kind. Context cancellation and deadline
// errors take precedence so a timed-out wrapped inference call reads as a
// timeout, not an inference failure.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	}

	for _, s := range sentinelKinds {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}

	if errors.Is(err, fs.ErrNotExist) {
		return KindFileNotFound
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return KindFileReadError
	}

	return KindUnknown
}

// Recoverable reports whether failures of this kind may succeed on retry.
func (k Kind) Recoverable() bool {
	switch k {
	case KindInferenceFailed, KindAudioGenerationFailed, KindOutOfMemory, KindTimeout, KindFileReadError:
		return true
	}

	return false
}
