package g2p

import "strings"

// digraphRules maps two-letter sequences checked before single letters.
// Order matters: earlier entries shadow later ones at the same position.
var digraphRules = []struct {
	seq string
	ipa string
}{
	{"ch", "ʧ"},
	{"sh", "ʃ"},
	{"th", "θ"},
	{"ph", "f"},
	{"wh", "w"},
	{"qu", "kw"},
	{"ck", "k"},
	{"ng", "ŋ"},
	{"ee", "iː"},
	{"ea", "iː"},
	{"oo", "uː"},
	{"ou", "aʊ"},
	{"ow", "aʊ"},
	{"oa", "oʊ"},
	{"oi", "ɔɪ"},
	{"oy", "ɔɪ"},
	{"ai", "eɪ"},
	{"ay", "eɪ"},
	{"au", "ɔː"},
	{"aw", "ɔː"},
	{"ar", "ɑːɹ"},
	{"or", "ɔːɹ"},
	{"er", "ɚ"},
	{"ir", "ɜː"},
	{"ur", "ɜː"},
}

var letterRules = map[rune]string{
	'a': "æ",
	'b': "b",
	'c': "k",
	'd': "d",
	'e': "ɛ",
	'f': "f",
	'g': "ɡ",
	'h': "h",
	'i': "ɪ",
	'j': "ʤ",
	'k': "k",
	'l': "l",
	'm': "m",
	'n': "n",
	'o': "ɑ",
	'p': "p",
	'q': "k",
	'r': "ɹ",
	's': "s",
	't': "t",
	'u': "ʌ",
	'v': "v",
	'w': "w",
	'x': "ks",
	'y': "j",
	'z': "z",
}

// britishLetterOverrides adjusts a handful of rules for non-rhotic locales.
var britishLetterOverrides = map[rune]string{
	'o': "ɒ",
}

// transcribeByRule produces a rough rule-based transcription for a word the
// lexicon does not know. This is a fallback path; it trades accuracy for
// never failing on novel words.
func transcribeByRule(word, locale string) string {
	word = strings.ToLower(word)
	british := strings.HasPrefix(strings.ToLower(locale), "en-gb")

	var sb strings.Builder
	runes := []rune(word)

	for i := 0; i < len(runes); {
		if i+1 < len(runes) {
			pair := string(runes[i : i+2])
			if ipa, ok := matchDigraph(pair); ok {
				sb.WriteString(ipa)
				i += 2
				continue
			}
		}

		r := runes[i]
		if british {
			if ipa, ok := britishLetterOverrides[r]; ok {
				sb.WriteString(ipa)
				i++
				continue
			}
		}

		if ipa, ok := letterRules[r]; ok {
			sb.WriteString(ipa)
		}
		// Characters without a rule are dropped.
		i++
	}

	return sb.String()
}

func matchDigraph(pair string) (string, bool) {
	for _, rule := range digraphRules {
		if rule.seq == pair {
			return rule.ipa, true
		}
	}

	return "", false
}
