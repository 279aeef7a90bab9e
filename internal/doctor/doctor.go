// Package doctor provides environment preflight checks for streamtts.
package doctor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/example/go-stream-tts/internal/result"
	"github.com/example/go-stream-tts/internal/voice"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// DetectFunc resolves the ONNX Runtime library path or errors when absent.
type DetectFunc func() (string, error)

// MemoryFunc reads the current memory status.
type MemoryFunc func() (result.MemoryStatus, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// DetectORT locates the ONNX Runtime shared library.
	DetectORT DetectFunc
	// ReadMemory reads current memory pressure; nil uses the default probe.
	ReadMemory MemoryFunc
	// ModelPath is the synthesis model to verify on disk.
	ModelPath string
	// LexiconPath is the pronunciation lexicon; missing is a warning, not a
	// failure, since the phonemizer degrades to rule-based transcription.
	LexiconPath string
	// VoicesDir holds the per-voice style tables. Missing tables degrade
	// to neutral zero styles, so they are reported but do not fail.
	VoicesDir string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- ONNX Runtime library --------------------------------------------
	if cfg.DetectORT != nil {
		path, err := cfg.DetectORT()
		if err != nil {
			res.fail("onnxruntime: " + err.Error())
			fmt.Fprintf(w, "%s onnxruntime library: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s onnxruntime library: %s\n", PassMark, path)
		}
	}

	// ---- synthesis model --------------------------------------------------
	if cfg.ModelPath != "" {
		info, err := os.Stat(cfg.ModelPath)
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("model %s: %v", cfg.ModelPath, err))
			fmt.Fprintf(w, "%s synthesis model: %v\n", FailMark, err)
		case info.Size() == 0:
			res.fail(fmt.Sprintf("model %s is empty", cfg.ModelPath))
			fmt.Fprintf(w, "%s synthesis model: %s is empty\n", FailMark, cfg.ModelPath)
		default:
			fmt.Fprintf(w, "%s synthesis model: %s (%d bytes)\n", PassMark, cfg.ModelPath, info.Size())
		}
	}

	// ---- pronunciation lexicon -------------------------------------------
	if cfg.LexiconPath != "" {
		if _, err := os.Stat(cfg.LexiconPath); err != nil {
			fmt.Fprintf(w, "%s lexicon: %s missing, rule-based transcription only\n", PassMark, cfg.LexiconPath)
		} else {
			fmt.Fprintf(w, "%s lexicon: %s\n", PassMark, cfg.LexiconPath)
		}
	}

	// ---- voice style tables ----------------------------------------------
	if cfg.VoicesDir != "" {
		present := 0
		for _, d := range voice.List() {
			if _, err := os.Stat(filepath.Join(cfg.VoicesDir, d.ID+".safetensors")); err == nil {
				present++
			}
		}

		total := len(voice.List())
		if present == 0 {
			fmt.Fprintf(w, "%s voice tables: none of %d found in %s, neutral styles only\n", PassMark, total, cfg.VoicesDir)
		} else {
			fmt.Fprintf(w, "%s voice tables: %d of %d present in %s\n", PassMark, present, total, cfg.VoicesDir)
		}
	}

	// ---- memory -----------------------------------------------------------
	readMemory := cfg.ReadMemory
	if readMemory == nil {
		readMemory = func() (result.MemoryStatus, error) {
			return result.ReadMemoryStatus(result.DefaultMemoryThresholds())
		}
	}

	status, err := readMemory()
	switch {
	case err != nil:
		fmt.Fprintf(w, "%s memory: probe failed (%v)\n", PassMark, err)
	case status.Critical():
		res.fail(fmt.Sprintf("memory critically low: %d MB free", status.FreeMB))
		fmt.Fprintf(w, "%s memory: %d MB free (critical)\n", FailMark, status.FreeMB)
	case status.Low():
		fmt.Fprintf(w, "%s memory: %d MB free (low)\n", PassMark, status.FreeMB)
	default:
		fmt.Fprintf(w, "%s memory: %d MB free\n", PassMark, status.FreeMB)
	}

	return res
}
