package g2p

import "strings"

// SplitSentences splits normalized text on sentence-ending punctuation
// (., !, ?), keeping the terminator attached to its sentence. A period
// between digits is read as a decimal point, not a boundary. Empty segments
// are dropped.
//
// Input is expected to have passed through NormalizeText, which expands
// abbreviations like "Dr." so their periods never appear here.
func SplitSentences(text string) []string {
	var sentences []string

	runes := []rune(text)
	start := 0

	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		if r == '.' && isDigitAt(runes, i-1) && isDigitAt(runes, i+1) {
			continue
		}

		s := strings.TrimSpace(string(runes[start : i+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}

	if start < len(runes) {
		s := strings.TrimSpace(string(runes[start:]))
		if s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}

func isDigitAt(runes []rune, i int) bool {
	if i < 0 || i >= len(runes) {
		return false
	}

	return runes[i] >= '0' && runes[i] <= '9'
}
