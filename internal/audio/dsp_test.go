package audio

import "testing"

func TestApplySpeedChangeIdentity(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3, 0.4}

	got := ApplySpeedChange(samples, 1.0)
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}

	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d changed: %v != %v", i, got[i], samples[i])
		}
	}
}

func TestApplySpeedChangeScaling(t *testing.T) {
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = float32(i)
	}

	tests := []struct {
		name    string
		factor  float64
		wantLen int
	}{
		{name: "double speed halves length", factor: 2.0, wantLen: 500},
		{name: "half speed doubles length", factor: 0.5, wantLen: 2000},
		{name: "factor above max clamps", factor: 10, wantLen: 500},
		{name: "factor below min clamps", factor: 0.01, wantLen: 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplySpeedChange(samples, tt.factor)
			if len(got) != tt.wantLen {
				t.Errorf("got %d samples, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestApplySpeedChangeEmpty(t *testing.T) {
	if got := ApplySpeedChange(nil, 2.0); len(got) != 0 {
		t.Errorf("got %d samples for empty input", len(got))
	}
}

func TestPeakNormalize(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		target  float32
		check   func(t *testing.T, got []float32)
	}{
		{
			name:    "scales down loud audio",
			samples: []float32{2.0, -4.0, 1.0},
			target:  1.0,
			check: func(t *testing.T, got []float32) {
				if got[1] != -1.0 {
					t.Errorf("peak = %v, want -1.0", got[1])
				}
				if got[0] != 0.5 {
					t.Errorf("got[0] = %v, want 0.5", got[0])
				}
			},
		},
		{
			name:    "never amplifies quiet audio",
			samples: []float32{0.1, -0.2},
			target:  1.0,
			check: func(t *testing.T, got []float32) {
				if got[0] != 0.1 || got[1] != -0.2 {
					t.Errorf("quiet audio changed: %v", got)
				}
			},
		},
		{
			name:    "invalid target is a no-op",
			samples: []float32{5},
			target:  0,
			check: func(t *testing.T, got []float32) {
				if got[0] != 5 {
					t.Errorf("got %v, want unchanged", got[0])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, PeakNormalize(tt.samples, tt.target))
		})
	}
}

func TestApplyFade(t *testing.T) {
	samples := make([]float32, 10)
	for i := range samples {
		samples[i] = 1
	}

	got := ApplyFade(samples, 4, 4)

	if got[0] != 0 {
		t.Errorf("first sample = %v, want 0 after fade-in", got[0])
	}

	if got[len(got)-1] != 0 {
		t.Errorf("last sample = %v, want 0 after fade-out", got[len(got)-1])
	}

	// Middle untouched.
	if got[5] != 1 {
		t.Errorf("middle sample = %v, want 1", got[5])
	}

	// Ramps are monotonic.
	for i := 1; i < 4; i++ {
		if got[i] <= got[i-1] {
			t.Errorf("fade-in not increasing at %d: %v <= %v", i, got[i], got[i-1])
		}
	}

	// Input untouched.
	if samples[0] != 1 {
		t.Error("ApplyFade mutated its input")
	}
}

func TestApplyFadeNoRamps(t *testing.T) {
	samples := []float32{1, 2, 3}

	got := ApplyFade(samples, 0, 0)
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d changed with zero-length ramps", i)
		}
	}
}
