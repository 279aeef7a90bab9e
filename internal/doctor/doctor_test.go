package doctor

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-stream-tts/internal/result"
)

func healthyMemory() (result.MemoryStatus, error) {
	return result.MemoryStatus{TotalMB: 8192, UsedMB: 2048, FreeMB: 6144}, nil
}

func TestRunAllChecksPass(t *testing.T) {
	dir := t.TempDir()

	model := filepath.Join(dir, "model.onnx")
	if err := os.WriteFile(model, []byte("onnx"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	res := Run(Config{
		DetectORT:  func() (string, error) { return "/usr/lib/libonnxruntime.so", nil },
		ReadMemory: healthyMemory,
		ModelPath:  model,
		VoicesDir:  dir,
	}, &out)

	if res.Failed() {
		t.Fatalf("expected all checks to pass, failures: %v", res.Failures())
	}
	if strings.Contains(out.String(), FailMark) {
		t.Errorf("output contains a failure mark:\n%s", out.String())
	}
}

func TestRunMissingORTFails(t *testing.T) {
	var out bytes.Buffer
	res := Run(Config{
		DetectORT:  func() (string, error) { return "", errors.New("not found") },
		ReadMemory: healthyMemory,
	}, &out)

	if !res.Failed() {
		t.Fatal("expected a failure for missing onnxruntime")
	}
	if !strings.Contains(out.String(), FailMark) {
		t.Error("output missing failure mark")
	}
}

func TestRunMissingModelFails(t *testing.T) {
	var out bytes.Buffer
	res := Run(Config{
		DetectORT:  func() (string, error) { return "/usr/lib/libonnxruntime.so", nil },
		ReadMemory: healthyMemory,
		ModelPath:  filepath.Join(t.TempDir(), "missing.onnx"),
	}, &out)

	if !res.Failed() {
		t.Fatal("expected a failure for a missing model")
	}
}

func TestRunMissingLexiconIsNotAFailure(t *testing.T) {
	var out bytes.Buffer
	res := Run(Config{
		DetectORT:   func() (string, error) { return "/usr/lib/libonnxruntime.so", nil },
		ReadMemory:  healthyMemory,
		LexiconPath: filepath.Join(t.TempDir(), "missing.tsv"),
	}, &out)

	if res.Failed() {
		t.Errorf("missing lexicon should degrade, not fail: %v", res.Failures())
	}
	if !strings.Contains(out.String(), "rule-based") {
		t.Error("output should mention the rule-based fallback")
	}
}

func TestRunCriticalMemoryFails(t *testing.T) {
	var out bytes.Buffer
	res := Run(Config{
		DetectORT: func() (string, error) { return "/usr/lib/libonnxruntime.so", nil },
		ReadMemory: func() (result.MemoryStatus, error) {
			status := result.MemoryStatus{TotalMB: 1024, UsedMB: 1000, FreeMB: 24}
			return status.WithThresholds(result.MemoryThresholds{LowFreeMB: 512, CriticalFreeMB: 128}), nil
		},
	}, &out)

	if !res.Failed() {
		t.Fatal("expected a failure under critical memory pressure")
	}
}

func TestRunMemoryProbeErrorDegrades(t *testing.T) {
	var out bytes.Buffer
	res := Run(Config{
		DetectORT: func() (string, error) { return "/usr/lib/libonnxruntime.so", nil },
		ReadMemory: func() (result.MemoryStatus, error) {
			return result.MemoryStatus{}, errors.New("probe unavailable")
		},
	}, &out)

	if res.Failed() {
		t.Errorf("memory probe error should degrade, not fail: %v", res.Failures())
	}
}
