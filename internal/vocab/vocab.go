// Package vocab holds the fixed model vocabulary and the phoneme tokenizer.
//
// The vocabulary is the closed set of symbols the acoustic model was trained
// on: a pad sentinel, punctuation, Latin letters, and IPA phoneme characters.
// Symbol ids are dense and stable; id 0 is the pad sentinel.
package vocab

const (
	pad         = "$"
	punctuation = `;:,.!?¡¿—…"«»“” `
	letters     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	lettersIPA  = "ɑɐɒæɓʙβɔɕçɗɖðʤəɘɚɛɜɝɞɟʄɡɠɢʛɦɧħɥʜɨɪʝɭɬɫɮʟɱɯɰŋɳɲɴøɵɸθœɶʘɹɺɾɻʀʁɽʂʃʈʧʉʊʋⱱʌɣɤʍχʎʏʑʐʒʔʡʕʢǀǁǂǃˈˌːˑʼʴʰʱʲʷˠˤ˞↓↑→↗↘'̩ᵻ"
)

// PadID is the sentinel token id used for boundary padding.
const PadID int64 = 0

var symbolToID map[rune]int64

func init() {
	symbolToID = make(map[rune]int64)

	id := int64(0)
	for _, group := range []string{pad, punctuation, letters, lettersIPA} {
		for _, r := range group {
			if _, exists := symbolToID[r]; exists {
				continue
			}
			symbolToID[r] = id
			id++
		}
	}
}

// Size returns the number of symbols in the vocabulary. Every id produced by
// Tokenize is in [0, Size).
func Size() int {
	return len(symbolToID)
}

// IsValidSymbol reports whether r is part of the model vocabulary.
func IsValidSymbol(r rune) bool {
	_, ok := symbolToID[r]
	return ok
}

// FilterToVocabulary returns s with every symbol outside the vocabulary
// removed. Filtering is idempotent.
func FilterToVocabulary(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if IsValidSymbol(r) {
			out = append(out, r)
		}
	}

	return string(out)
}
