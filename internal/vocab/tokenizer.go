package vocab

import "log/slog"

const (
	// MaxPhonemeLen is the maximum number of phoneme symbols accepted per
	// tokenization call. Longer input is truncated, not rejected.
	MaxPhonemeLen = 510

	// trailingPad is the number of pad sentinels appended after the phoneme
	// ids. The model truncates audio at the sequence tail; extra padding
	// keeps the final phonemes from being clipped.
	trailingPad = 3
)

// Tokenize converts a phoneme string into model token ids.
//
// Symbols absent from the vocabulary are dropped silently; this lossy policy
// matches what the model was trained on and must not be tightened. The result
// carries one leading and several trailing pad sentinels.
func Tokenize(phonemes string) []int64 {
	runes := []rune(phonemes)
	if len(runes) > MaxPhonemeLen {
		slog.Warn("phoneme input truncated",
			slog.Int("length", len(runes)),
			slog.Int("max", MaxPhonemeLen),
		)
		runes = runes[:MaxPhonemeLen]
	}

	ids := make([]int64, 0, len(runes)+1+trailingPad)
	ids = append(ids, PadID)

	for _, r := range runes {
		id, ok := symbolToID[r]
		if !ok {
			continue
		}
		ids = append(ids, id)
	}

	for range trailingPad {
		ids = append(ids, PadID)
	}

	return ids
}
