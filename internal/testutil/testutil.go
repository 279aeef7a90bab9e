// Package testutil provides shared skip helpers and audio assertions for
// tests.
//
// Each skip helper calls t.Skip with a clear human-readable reason when the
// named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located. It checks (in order): the ORT_LIBRARY_PATH env var, then the
// STREAMTTS_ORT_LIB env var, then common system library paths.
func RequireONNXRuntime(tb testing.TB) {
	tb.Helper()

	for _, env := range []string{"ORT_LIBRARY_PATH", "STREAMTTS_ORT_LIB"} {
		if p := os.Getenv(env); p != "" {
			if _, err := os.Stat(p); err == nil {
				return // found
			}

			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
		}
	}
	// Fall back to common system locations.
	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return // found
		}
	}

	tb.Skip("ONNX Runtime shared library not found; set ORT_LIBRARY_PATH or STREAMTTS_ORT_LIB")
}

// RequireModelFile skips the test unless the synthesis model named by the
// STREAMTTS_MODEL_PATH env var exists on disk.
func RequireModelFile(tb testing.TB) string {
	tb.Helper()

	path := os.Getenv("STREAMTTS_MODEL_PATH")
	if path == "" {
		tb.Skip("synthesis model not available; set STREAMTTS_MODEL_PATH")
	}

	if _, err := os.Stat(path); err != nil {
		tb.Skipf("synthesis model not found at %q: %v", path, err)
	}

	return path
}

// RequireVoiceTable skips the test unless the style table for the given
// voice id exists under dir.
func RequireVoiceTable(tb testing.TB, dir, id string) string {
	tb.Helper()

	path := filepath.Join(dir, id+".safetensors")
	if _, err := os.Stat(path); err != nil {
		tb.Skipf("voice table %q not available: %v", id, err)
	}

	return path
}
