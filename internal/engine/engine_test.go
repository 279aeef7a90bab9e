package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectLibraryExplicitPath(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "libonnxruntime.so.1.22.0")
	if err := os.WriteFile(lib, []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DetectLibrary(lib)
	if err != nil {
		t.Fatalf("DetectLibrary: %v", err)
	}
	if got != lib {
		t.Errorf("DetectLibrary = %q, want %q", got, lib)
	}
}

func TestDetectLibraryExplicitMissing(t *testing.T) {
	if _, err := DetectLibrary(filepath.Join(t.TempDir(), "nope.so")); err == nil {
		t.Error("expected an error for a nonexistent explicit path")
	}
}

func TestDetectLibraryFromEnv(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "libonnxruntime.so")
	if err := os.WriteFile(lib, []byte{0}, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("STREAMTTS_ORT_LIB", lib)

	got, err := DetectLibrary("")
	if err != nil {
		t.Fatalf("DetectLibrary: %v", err)
	}
	if got != lib {
		t.Errorf("DetectLibrary = %q, want %q", got, lib)
	}
}

func TestLibraryVersion(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/usr/lib/libonnxruntime.so.1.22.0", "1.22.0"},
		{"onnxruntime-1.17.3.dll", "1.17.3"},
		{"/usr/lib/libonnxruntime.so", "unknown"},
	}

	for _, tt := range tests {
		if got := LibraryVersion(tt.path); got != tt.want {
			t.Errorf("LibraryVersion(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestClosedEngineRefusesInference(t *testing.T) {
	e := &ORTEngine{}
	if _, err := e.Infer(t.Context(), []int64{0, 1, 0}, make([]float32, 256), 1.0); err != ErrNotInitialized {
		t.Errorf("Infer on closed engine = %v, want %v", err, ErrNotInitialized)
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close on empty engine: %v", err)
	}
}
