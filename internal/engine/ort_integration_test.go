package engine_test

import (
	"os"
	"testing"
	"unicode/utf8"

	"github.com/example/go-stream-tts/internal/audio"
	"github.com/example/go-stream-tts/internal/engine"
	"github.com/example/go-stream-tts/internal/g2p"
	"github.com/example/go-stream-tts/internal/testutil"
	"github.com/example/go-stream-tts/internal/vocab"
	"github.com/example/go-stream-tts/internal/voice"
)

// TestORTRoundTrip runs a real forward pass through the ONNX Runtime and
// checks that the output encodes as valid WAV audio of plausible length.
// It skips unless the runtime library, the model, and a voice table are all
// present on this machine.
func TestORTRoundTrip(t *testing.T) {
	testutil.RequireONNXRuntime(t)
	modelPath := testutil.RequireModelFile(t)

	voicesDir := os.Getenv("STREAMTTS_VOICES_DIR")
	testutil.RequireVoiceTable(t, voicesDir, "af_heart")

	eng, err := engine.NewORTEngine(engine.Config{ModelPath: modelPath})
	if err != nil {
		t.Fatalf("NewORTEngine: %v", err)
	}
	defer func() { _ = eng.Close() }()

	phonemes := g2p.NewPhonemizerWithLexicon(nil).Phonemize("Hello world.", "en-us", false)
	if phonemes == "" {
		t.Fatal("phonemizer produced no symbols")
	}

	style := voice.NewStore(voicesDir).EmbeddingFor("af_heart", utf8.RuneCountInString(phonemes))

	waveform, err := eng.Infer(t.Context(), vocab.Tokenize(phonemes), style, 1.0)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}

	encoded, err := audio.EncodeWAV(waveform)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	testutil.AssertValidWAV(t, encoded)
	// Two words should land well inside this window at normal speed.
	testutil.AssertWAVDurationApprox(t, encoded, 0.2, 10.0)
}
