package audio

const (
	// MinSpeed and MaxSpeed bound the speed factor before resampling.
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// ClampSpeed bounds a speed factor to [MinSpeed, MaxSpeed].
func ClampSpeed(factor float64) float64 {
	if factor < MinSpeed {
		return MinSpeed
	}
	if factor > MaxSpeed {
		return MaxSpeed
	}

	return factor
}

// ApplySpeedChange time-scales samples by nearest-index resampling. A factor
// above 1 shortens the audio. Pitch is not preserved; this is a known
// limitation of the nearest-index approach, not something to compensate for.
// The factor is clamped to [MinSpeed, MaxSpeed]; at exactly 1.0 the input
// slice is returned unchanged.
func ApplySpeedChange(samples []float32, factor float64) []float32 {
	factor = ClampSpeed(factor)
	if factor == 1.0 || len(samples) == 0 {
		return samples
	}

	n := int(float64(len(samples)) / factor)
	if n < 1 {
		n = 1
	}

	out := make([]float32, n)
	for i := range out {
		src := int(float64(i) * factor)
		if src >= len(samples) {
			src = len(samples) - 1
		}
		out[i] = samples[src]
	}

	return out
}

// PeakNormalize scales samples down so the peak magnitude does not exceed
// targetPeak. Audio already below the target is left untouched; this never
// amplifies.
func PeakNormalize(samples []float32, targetPeak float32) []float32 {
	if targetPeak <= 0 {
		return samples
	}

	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}

	if peak <= targetPeak {
		return samples
	}

	scale := targetPeak / peak
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s * scale
	}

	return out
}

// ApplyFade applies linear fade-in over the first fadeInN samples and linear
// fade-out over the last fadeOutN samples, avoiding clicks at chunk edges.
// Ramp lengths longer than the input are clamped.
func ApplyFade(samples []float32, fadeInN, fadeOutN int) []float32 {
	if len(samples) == 0 || (fadeInN <= 0 && fadeOutN <= 0) {
		return samples
	}

	out := append([]float32(nil), samples...)

	if fadeInN > len(out) {
		fadeInN = len(out)
	}
	for i := 0; i < fadeInN; i++ {
		out[i] *= float32(i) / float32(fadeInN)
	}

	if fadeOutN > len(out) {
		fadeOutN = len(out)
	}
	for i := 0; i < fadeOutN; i++ {
		idx := len(out) - 1 - i
		out[idx] *= float32(i) / float32(fadeOutN)
	}

	return out
}
