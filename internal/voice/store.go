package voice

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/example/go-stream-tts/internal/safetensors"
)

const (
	// EmbeddingDim is the length of every style embedding vector.
	EmbeddingDim = 256

	// FrameCount is the number of precomputed style frames per voice,
	// indexed 0 through FrameCount-1.
	FrameCount = 511

	styleTensorName = "style"
)

// Store loads and caches per-voice style embeddings.
//
// A missing voice, unreadable embedding table, or shape mismatch degrades to
// the all-zero embedding; callers must treat the zero vector as a legitimate
// neutral voice, never as an error signal. Cache entries are never evicted:
// the key space is bounded by voices × frames.
type Store struct {
	voicesDir string
	log       *slog.Logger

	mu    sync.Mutex
	cache map[string][]float32
	files map[string]*safetensors.File
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.log = l }
}

// NewStore creates a Store reading embedding tables from voicesDir, one
// <voiceID>.safetensors file per voice.
func NewStore(voicesDir string, opts ...StoreOption) *Store {
	s := &Store{
		voicesDir: voicesDir,
		log:       slog.Default(),
		cache:     make(map[string][]float32),
		files:     make(map[string]*safetensors.File),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// List returns the voice catalog in stable order.
func (s *Store) List() []Definition {
	return List()
}

// EmbeddingFor returns the style embedding for the given voice and frame.
// The frame index is clamped to [0, FrameCount-1]. The returned slice is a
// copy; callers may mutate it freely.
func (s *Store) EmbeddingFor(voiceID string, frame int) []float32 {
	if frame < 0 {
		frame = 0
	}
	if frame >= FrameCount {
		frame = FrameCount - 1
	}

	key := fmt.Sprintf("%s#%d", voiceID, frame)

	s.mu.Lock()
	defer s.mu.Unlock()

	if emb, ok := s.cache[key]; ok {
		return append([]float32(nil), emb...)
	}

	emb := s.loadFrameLocked(voiceID, frame)
	s.cache[key] = emb

	return append([]float32(nil), emb...)
}

// Mix returns the linear interpolation between the two voices' embeddings at
// frame 0. weight is clamped to [0, 1]; 0 yields voice a, 1 yields voice b.
func (s *Store) Mix(voiceA, voiceB string, weight float64) []float32 {
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}

	a := s.EmbeddingFor(voiceA, 0)
	b := s.EmbeddingFor(voiceB, 0)

	// a + w*(b-a) rather than (1-w)*a + w*b: the delta form keeps self-mix
	// exact for every weight.
	out := make([]float32, EmbeddingDim)
	for i := range out {
		out[i] = a[i] + float32(weight)*(b[i]-a[i])
	}

	return out
}

// loadFrameLocked reads one frame from the voice's embedding table.
// Every failure path returns the neutral zero embedding.
func (s *Store) loadFrameLocked(voiceID string, frame int) []float32 {
	zero := make([]float32, EmbeddingDim)

	if _, known := Lookup(voiceID); !known {
		s.log.Warn("unknown voice, using neutral embedding", slog.String("voice", voiceID))
		return zero
	}

	f, ok := s.files[voiceID]
	if !ok {
		var err error
		f, err = safetensors.Open(filepath.Join(s.voicesDir, voiceID+".safetensors"))
		if err != nil {
			s.log.Warn("voice embedding table unavailable, using neutral embedding",
				slog.String("voice", voiceID),
				slog.String("error", err.Error()),
			)
			return zero
		}
		s.files[voiceID] = f
	}

	name := styleTensorName
	if !f.Has(name) {
		names := f.Names()
		if len(names) == 0 {
			return zero
		}
		name = names[0]
	}

	t, err := f.TensorWithShape(name, []int64{FrameCount, 1, EmbeddingDim})
	if err != nil {
		s.log.Warn("voice embedding table malformed, using neutral embedding",
			slog.String("voice", voiceID),
			slog.String("error", err.Error()),
		)
		return zero
	}

	start := frame * EmbeddingDim
	return append([]float32(nil), t.Data[start:start+EmbeddingDim]...)
}
