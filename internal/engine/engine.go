// Package engine runs the neural synthesis graph. The Engine interface
// isolates callers from the ONNX Runtime binding so tests can substitute a
// fake and so the binding can be swapped without touching the synthesis
// pipeline.
package engine

import (
	"context"
	"errors"
)

// ErrNotInitialized is returned when inference is attempted on a closed or
// never-opened engine.
var ErrNotInitialized = errors.New("inference engine is not initialized")

// ErrEmptyWaveform is returned when the model produces no audio samples.
var ErrEmptyWaveform = errors.New("model returned an empty waveform")

// Engine converts a phoneme token sequence plus a voice style vector into a
// float32 waveform at the model's native sample rate.
type Engine interface {
	// Infer runs one forward pass. tokens is the padded id sequence, style
	// the voice embedding row, speed the playback rate handed to the model.
	Infer(ctx context.Context, tokens []int64, style []float32, speed float32) ([]float32, error)

	// Close releases model resources. Infer after Close returns
	// ErrNotInitialized.
	Close() error
}
