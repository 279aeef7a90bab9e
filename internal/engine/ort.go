package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	ort "github.com/shota3506/onnxruntime-purego/onnxruntime"
)

// Graph input names of the synthesis model.
const (
	inputTokens = "tokens"
	inputStyle  = "style"
	inputSpeed  = "speed"

	outputWaveform = "waveform"
)

// defaultAPIVersion is the ORT C API version the binding is built against.
const defaultAPIVersion = 23

// Config holds the settings needed to open an ORT-backed engine.
type Config struct {
	// ModelPath is the .onnx graph on disk.
	ModelPath string

	// LibraryPath locates the onnxruntime shared library. Empty means
	// detect via environment variables and well-known install locations.
	LibraryPath string

	// APIVersion selects the ORT C API version; zero uses the default.
	APIVersion uint32

	// Threads caps intra-op parallelism inside the session. Zero lets
	// ORT pick.
	Threads int
}

// ORTEngine is an Engine backed by a loaded ONNX Runtime session.
type ORTEngine struct {
	log *slog.Logger

	mu      sync.Mutex
	runtime *ort.Runtime
	env     *ort.Env
	session *ort.Session
}

// Option configures an ORTEngine.
type Option func(*ORTEngine)

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *ORTEngine) { e.log = l }
}

// NewORTEngine loads the shared library, creates an environment, and opens a
// session for the synthesis graph. The returned engine is safe for
// concurrent Infer calls; ORT serializes access per session internally, and
// the engine guards its handles for Close.
func NewORTEngine(cfg Config, opts ...Option) (*ORTEngine, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is required")
	}

	libPath, err := DetectLibrary(cfg.LibraryPath)
	if err != nil {
		return nil, err
	}

	apiVersion := cfg.APIVersion
	if apiVersion == 0 {
		apiVersion = defaultAPIVersion
	}

	runtime, err := ort.NewRuntime(libPath, apiVersion)
	if err != nil {
		return nil, fmt.Errorf("ort runtime (%s): %w", libPath, err)
	}

	env, err := runtime.NewEnv("streamtts", ort.LoggingLevelWarning)
	if err != nil {
		_ = runtime.Close()
		return nil, fmt.Errorf("ort env: %w", err)
	}

	var sessionOpts *ort.SessionOptions
	if cfg.Threads > 0 {
		sessionOpts = &ort.SessionOptions{IntraOpNumThreads: cfg.Threads}
	}

	session, err := runtime.NewSession(env, cfg.ModelPath, sessionOpts)
	if err != nil {
		env.Close()
		_ = runtime.Close()

		return nil, fmt.Errorf("ort session (%s): %w", cfg.ModelPath, err)
	}

	e := &ORTEngine{
		log:     slog.Default(),
		runtime: runtime,
		env:     env,
		session: session,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.log.Info("synthesis model loaded",
		slog.String("model", cfg.ModelPath),
		slog.String("ort_library", libPath),
		slog.Int("threads", cfg.Threads),
	)

	return e, nil
}

// Infer runs one forward pass of the synthesis graph.
func (e *ORTEngine) Infer(ctx context.Context, tokens []int64, style []float32, speed float32) ([]float32, error) {
	e.mu.Lock()
	runtime, session := e.runtime, e.session
	e.mu.Unlock()

	if session == nil {
		return nil, ErrNotInitialized
	}

	if len(tokens) == 0 {
		return nil, errors.New("empty token sequence")
	}

	inputs := make(map[string]*ort.Value, 3)
	defer closeValues(inputs)

	tokenValue, err := ort.NewTensorValue(runtime, tokens, []int64{1, int64(len(tokens))})
	if err != nil {
		return nil, fmt.Errorf("tokens tensor: %w", err)
	}
	inputs[inputTokens] = tokenValue

	styleValue, err := ort.NewTensorValue(runtime, style, []int64{1, int64(len(style))})
	if err != nil {
		return nil, fmt.Errorf("style tensor: %w", err)
	}
	inputs[inputStyle] = styleValue

	speedValue, err := ort.NewTensorValue(runtime, []float32{speed}, []int64{1})
	if err != nil {
		return nil, fmt.Errorf("speed tensor: %w", err)
	}
	inputs[inputSpeed] = speedValue

	outputs, err := session.Run(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("run synthesis graph: %w", err)
	}
	defer closeValues(outputs)

	waveform, err := extractWaveform(outputs)
	if err != nil {
		return nil, err
	}

	if len(waveform) == 0 {
		return nil, ErrEmptyWaveform
	}

	return waveform, nil
}

// extractWaveform pulls the audio output tensor, preferring the named
// output and falling back to the graph's sole output when the export used
// a different name.
func extractWaveform(outputs map[string]*ort.Value) ([]float32, error) {
	value, ok := outputs[outputWaveform]
	if !ok && len(outputs) == 1 {
		for _, v := range outputs {
			value = v
		}
		ok = true
	}

	if !ok {
		return nil, fmt.Errorf("no %q output among %d graph outputs", outputWaveform, len(outputs))
	}

	data, _, err := ort.GetTensorData[float32](value)
	if err != nil {
		return nil, fmt.Errorf("read waveform tensor: %w", err)
	}

	// The ORT buffer is released with the value; keep our own copy.
	out := make([]float32, len(data))
	copy(out, data)

	return out, nil
}

// Close releases the session, environment, and runtime. Safe to call more
// than once.
func (e *ORTEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		e.session.Close()
		e.session = nil
	}

	if e.env != nil {
		e.env.Close()
		e.env = nil
	}

	if e.runtime != nil {
		err := e.runtime.Close()
		e.runtime = nil

		if err != nil {
			return fmt.Errorf("close ort runtime: %w", err)
		}
	}

	return nil
}

func closeValues(vals map[string]*ort.Value) {
	for _, v := range vals {
		if v != nil {
			v.Close()
		}
	}
}

var libraryVersionPattern = regexp.MustCompile(`[0-9]+\.[0-9]+\.[0-9]+`)

// DetectLibrary resolves the onnxruntime shared library path. An explicit
// path wins; otherwise the STREAMTTS_ORT_LIB and ORT_LIBRARY_PATH
// environment variables are consulted, then well-known install locations.
func DetectLibrary(explicit string) (string, error) {
	path := explicit
	if path == "" {
		path = os.Getenv("STREAMTTS_ORT_LIB")
	}

	if path == "" {
		path = os.Getenv("ORT_LIBRARY_PATH")
	}

	if path == "" {
		candidates := []string{
			"/usr/lib/libonnxruntime.so",
			"/usr/local/lib/libonnxruntime.so",
			"/opt/homebrew/lib/libonnxruntime.dylib",
			"C:/onnxruntime/lib/onnxruntime.dll",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	if path == "" {
		return "", errors.New("unable to locate the ONNX Runtime library; set STREAMTTS_ORT_LIB")
	}

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("onnx runtime library check failed: %w", err)
	}

	return path, nil
}

// LibraryVersion guesses the ORT version from the library file name,
// returning "unknown" when the name carries no version.
func LibraryVersion(path string) string {
	if m := libraryVersionPattern.FindString(filepath.Base(path)); m != "" {
		return m
	}

	return "unknown"
}
