package g2p

import "strings"

// ipaVowels is the fixed set of vowel symbols used for stress placement.
const ipaVowels = "aeiouæɑɐɒəɘɚɛɜɝɞɨɪøɵœɶʉʊʌɣɤʏᵻyAEIOU"

const (
	primaryStress   = 'ˈ'
	secondaryStress = 'ˌ'
)

func isVowel(r rune) bool {
	return strings.ContainsRune(ipaVowels, r)
}

// repositionStress moves each stress marker that sits before a run of
// non-vowel symbols so it immediately precedes the first vowel that follows.
// Each marker is rewritten once, scanning forward; the scan does not stop at
// token boundaries, matching historical behavior.
func repositionStress(phonemes string) string {
	out := make([]rune, 0, len(phonemes))
	var pending []rune

	for _, r := range phonemes {
		if r == primaryStress || r == secondaryStress {
			pending = append(pending, r)
			continue
		}

		if len(pending) > 0 && isVowel(r) {
			out = append(out, pending...)
			pending = pending[:0]
		}

		out = append(out, r)
	}

	// No vowel followed; the marker lands at the end.
	out = append(out, pending...)

	return string(out)
}
