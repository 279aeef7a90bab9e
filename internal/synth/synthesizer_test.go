package synth

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

// fakeEngine returns a fixed-size waveform. failOn errors specific calls,
// samplesOn overrides the waveform length per call.
type fakeEngine struct {
	samples   int
	calls     atomic.Int32
	failOn    func(call int) error
	samplesOn func(call int) int

	lastSpeed atomic.Uint32
}

func (f *fakeEngine) Infer(ctx context.Context, tokens []int64, style []float32, speed float32) ([]float32, error) {
	call := int(f.calls.Add(1))
	f.lastSpeed.Store(math.Float32bits(speed))

	if f.failOn != nil {
		if err := f.failOn(call); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := f.samples
	if f.samplesOn != nil {
		n = f.samplesOn(call)
	}

	out := make([]float32, n)
	for i := range out {
		out[i] = 0.25
	}

	return out, nil
}

func (f *fakeEngine) Close() error { return nil }

func (f *fakeEngine) speedSeen() float32 {
	return math.Float32frombits(f.lastSpeed.Load())
}

const testPhonemes = "həlˈoʊ wˈɜːld"

func testStyle() []float32 {
	return make([]float32, 256)
}

func TestSynthesizeEmitsAllChunks(t *testing.T) {
	eng := &fakeEngine{samples: 2500}
	s := NewSynthesizer(eng, WithChunkSamples(1000))

	var chunks [][]byte
	status, err := s.Synthesize(t.Context(), testPhonemes, testStyle(), 1.0, func(pcm []byte) bool {
		chunks = append(chunks, pcm)
		return true
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !status.Completed() {
		t.Fatalf("status = %v, want completed", status)
	}

	wantLens := []int{2000, 2000, 1000}
	if len(chunks) != len(wantLens) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(wantLens))
	}

	total := 0
	for i, c := range chunks {
		if len(c) != wantLens[i] {
			t.Errorf("chunk %d length = %d, want %d", i, len(c), wantLens[i])
		}
		total += len(c)
	}
	if total != eng.samples*2 {
		t.Errorf("total bytes = %d, want %d", total, eng.samples*2)
	}
}

func TestSynthesizeConsumerHaltsStream(t *testing.T) {
	eng := &fakeEngine{samples: 5000}
	s := NewSynthesizer(eng, WithChunkSamples(1000))

	delivered := 0
	status, err := s.Synthesize(t.Context(), testPhonemes, testStyle(), 1.0, func([]byte) bool {
		delivered++
		return delivered < 2
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if status != StatusHalted {
		t.Errorf("status = %v, want halted", status)
	}
	if delivered != 2 {
		t.Errorf("delivered %d chunks before halt, want 2", delivered)
	}
}

func TestSynthesizeStopBetweenChunks(t *testing.T) {
	eng := &fakeEngine{samples: 5000}
	s := NewSynthesizer(eng, WithChunkSamples(1000))

	delivered := 0
	status, err := s.Synthesize(t.Context(), testPhonemes, testStyle(), 1.0, func([]byte) bool {
		delivered++
		s.Stop()
		return true
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if status != StatusHalted {
		t.Errorf("status = %v, want halted", status)
	}
	if delivered != 1 {
		t.Errorf("delivered %d chunks after Stop, want 1", delivered)
	}

	// A stopped synthesizer refuses new work until Reset.
	if status, _ := s.Synthesize(t.Context(), testPhonemes, testStyle(), 1.0, nil); status != StatusHalted {
		t.Errorf("stopped synthesizer returned %v for new work", status)
	}

	s.Reset()
	if status, err := s.Synthesize(t.Context(), testPhonemes, testStyle(), 1.0, nil); err != nil || !status.Completed() {
		t.Errorf("after Reset: status=%v err=%v", status, err)
	}
}

func TestSynthesizeEmptyWaveformIsNotAnError(t *testing.T) {
	eng := &fakeEngine{samples: 0}
	s := NewSynthesizer(eng)

	status, err := s.Synthesize(t.Context(), testPhonemes, testStyle(), 1.0, func([]byte) bool {
		t.Error("chunk emitted for empty waveform")
		return true
	})
	if err != nil {
		t.Errorf("empty waveform produced error: %v", err)
	}
	if status != StatusNoAudio {
		t.Errorf("status = %v, want no-audio", status)
	}
}

func TestSynthesizeClampsSpeed(t *testing.T) {
	tests := []struct {
		name  string
		speed float32
		want  float32
	}{
		{"below range", 0.1, 0.5},
		{"above range", 9.0, 2.0},
		{"in range", 1.3, 1.3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := &fakeEngine{samples: 100}
			s := NewSynthesizer(eng)

			if _, err := s.Synthesize(t.Context(), testPhonemes, testStyle(), tc.speed, nil); err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if got := eng.speedSeen(); got != tc.want {
				t.Errorf("engine saw speed %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSynthesizeEmptyPhonemesRejected(t *testing.T) {
	s := NewSynthesizer(&fakeEngine{samples: 100})

	if _, err := s.Synthesize(t.Context(), "", testStyle(), 1.0, nil); err == nil {
		t.Error("expected an error for empty phonemes")
	}
}

func TestSynthesizeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSynthesizer(&fakeEngine{samples: 100})

	status, err := s.Synthesize(ctx, testPhonemes, testStyle(), 1.0, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if status.Completed() {
		t.Error("cancelled synthesis reported as completed")
	}
}

func TestSynthesizeInferenceError(t *testing.T) {
	eng := &fakeEngine{
		samples: 100,
		failOn:  func(int) error { return errors.New("session run failed") },
	}
	s := NewSynthesizer(eng)

	status, err := s.Synthesize(t.Context(), testPhonemes, testStyle(), 1.0, nil)
	if err == nil {
		t.Fatal("expected an inference error")
	}
	if status.Completed() {
		t.Error("failed synthesis reported as completed")
	}
}
