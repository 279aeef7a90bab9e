package result

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestResultOk(t *testing.T) {
	r := Ok(42)

	if !r.IsOk() || r.IsErr() {
		t.Error("Ok result misreports state")
	}

	v, err := r.Value()
	if err != nil || v != 42 {
		t.Errorf("Value() = (%v, %v), want (42, nil)", v, err)
	}

	if r.OrElse(0) != 42 {
		t.Error("OrElse should return the held value")
	}

	if r.Recoverable() {
		t.Error("successful result must not be recoverable")
	}
}

func TestResultErr(t *testing.T) {
	cause := fmt.Errorf("boom: %w", ErrInferenceFailed)
	r := Err[int](KindInferenceFailed, cause)

	if r.IsOk() || !r.IsErr() {
		t.Error("Err result misreports state")
	}

	if r.Kind() != KindInferenceFailed {
		t.Errorf("Kind() = %q, want inference-failed", r.Kind())
	}

	if !errors.Is(r.Err(), ErrInferenceFailed) {
		t.Error("cause chain lost")
	}

	if r.OrElse(7) != 7 {
		t.Error("OrElse should return the default on error")
	}

	if !r.Recoverable() {
		t.Error("inference failures are recoverable")
	}
}

func TestFailClassifies(t *testing.T) {
	r := Fail[string](fmt.Errorf("wrap: %w", ErrVoiceNotFound))
	if r.Kind() != KindVoiceNotFound {
		t.Errorf("Kind() = %q, want voice-not-found", r.Kind())
	}
}

func TestRecover(t *testing.T) {
	r := Err[int](KindInferenceFailed, ErrInferenceFailed)

	recovered := r.Recover(func(kind Kind, cause error) int {
		if kind != KindInferenceFailed {
			t.Errorf("recover saw kind %q", kind)
		}
		return -1
	})

	if v, err := recovered.Value(); err != nil || v != -1 {
		t.Errorf("recovered = (%v, %v), want (-1, nil)", v, err)
	}

	// Success passes through untouched.
	ok := Ok(5).Recover(func(Kind, error) int { return 99 })
	if v, _ := ok.Value(); v != 5 {
		t.Errorf("Recover changed successful value to %v", v)
	}
}

func TestMap(t *testing.T) {
	doubled := Map(Ok(21), func(v int) int { return v * 2 })
	if v, _ := doubled.Value(); v != 42 {
		t.Errorf("mapped value = %v, want 42", v)
	}

	failed := Map(Err[int](KindTimeout, context.DeadlineExceeded), func(v int) string {
		t.Error("map fn must not run on error results")
		return ""
	})

	if failed.Kind() != KindTimeout {
		t.Errorf("mapped error kind = %q, want timeout", failed.Kind())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "deadline", err: context.DeadlineExceeded, want: KindTimeout},
		{name: "cancelled", err: context.Canceled, want: KindCancelled},
		{name: "wrapped deadline", err: fmt.Errorf("op: %w", context.DeadlineExceeded), want: KindTimeout},
		{name: "sentinel inference", err: ErrInferenceFailed, want: KindInferenceFailed},
		{name: "wrapped sentinel", err: fmt.Errorf("run: %w", ErrModelLoadFailed), want: KindModelLoadFailed},
		{name: "missing file", err: fmt.Errorf("open: %w", fs.ErrNotExist), want: KindFileNotFound},
		{name: "path error", err: &fs.PathError{Op: "read", Path: "x", Err: errors.New("io")}, want: KindFileReadError},
		{name: "plain error", err: errors.New("mystery"), want: KindUnknown},
		{name: "out of memory", err: ErrOutOfMemory, want: KindOutOfMemory},
		{name: "invalid text", err: ErrInvalidText, want: KindInvalidText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindRecoverable(t *testing.T) {
	if KindInvalidText.Recoverable() {
		t.Error("invalid-text must not be recoverable")
	}

	if KindCancelled.Recoverable() {
		t.Error("cancelled must not be recoverable")
	}

	if !KindTimeout.Recoverable() {
		t.Error("timeout should be recoverable")
	}
}
