// Package g2p converts text to phoneme strings for the acoustic model.
//
// Conversion is lexicon-first: words found in the pronunciation lexicon use
// its transcription, everything else falls through to rule-based
// transcription. The output alphabet is IPA restricted to the model
// vocabulary.
package g2p

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/example/go-stream-tts/internal/vocab"
)

// substitutions is applied to every transcription before vocabulary
// filtering. The model was trained on the rhotic ɹ rather than plain r.
var substitutions = strings.NewReplacer(
	"r", "ɹ",
)

// corrections overrides transcriptions for words the lexicon or rules get
// audibly wrong. Keys are uppercase words.
var corrections = map[string]string{
	"CACHE": "kˈæʃ",
	"NGINX": "ˈɛnʤɪnˈɛks",
	"SQL":   "ˈɛskjuːˈɛl",
	"GIF":   "ɡˈɪf",
}

// Phonemizer converts normalized text into phoneme strings.
type Phonemizer struct {
	lexicon *Lexicon
	log     *slog.Logger
}

// Option configures a Phonemizer.
type Option func(*Phonemizer)

// WithLogger sets the logger used for degradation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(p *Phonemizer) { p.log = l }
}

// NewPhonemizer builds a Phonemizer backed by the lexicon at lexiconPath.
// A load failure degrades to rule-only transcription; it is logged, never
// surfaced to callers.
func NewPhonemizer(lexiconPath string, opts ...Option) *Phonemizer {
	p := &Phonemizer{log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}

	if lexiconPath == "" {
		p.log.Warn("no pronunciation lexicon configured, using rule-based transcription only")
		return p
	}

	lx, err := LoadLexicon(lexiconPath)
	if err != nil {
		p.log.Warn("pronunciation lexicon unavailable, using rule-based transcription only",
			slog.String("path", lexiconPath),
			slog.String("error", err.Error()),
		)
		return p
	}

	p.lexicon = lx
	p.log.Debug("pronunciation lexicon loaded",
		slog.String("path", lexiconPath),
		slog.Int("entries", lx.Len()),
	)

	return p
}

// NewPhonemizerWithLexicon builds a Phonemizer around an already-parsed
// lexicon. lx may be nil for rule-only operation.
func NewPhonemizerWithLexicon(lx *Lexicon, opts ...Option) *Phonemizer {
	p := &Phonemizer{lexicon: lx, log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Phonemize converts text to a phoneme string for the given locale.
// When normalize is true the text passes through NormalizeText first.
// The result contains only vocabulary-valid symbols.
func (p *Phonemizer) Phonemize(text, locale string, normalize bool) string {
	if normalize {
		text = NormalizeText(text)
	}

	var parts []string
	for _, token := range splitTokens(text) {
		if token.punct {
			parts = append(parts, token.text)
			continue
		}

		parts = append(parts, p.transcribeWord(token.text, locale))
	}

	joined := joinPhonemes(parts)
	joined = repositionStress(joined)
	joined = substitutions.Replace(joined)

	return vocab.FilterToVocabulary(joined)
}

// transcribeWord resolves one word token: corrections, then lexicon, then
// rules. An empty transcription degrades to the literal lowercase word.
func (p *Phonemizer) transcribeWord(word, locale string) string {
	stripped := stripNonLetters(word)
	if stripped == "" {
		return strings.ToLower(word)
	}

	upper := strings.ToUpper(stripped)

	if ph, ok := corrections[upper]; ok {
		return ph
	}

	if ph, ok := p.lexicon.Lookup(upper); ok {
		return ph
	}

	if ph := transcribeByRule(stripped, locale); ph != "" {
		return ph
	}

	return strings.ToLower(word)
}

type token struct {
	text  string
	punct bool
}

// splitTokens cuts text into word and punctuation tokens. Punctuation is
// preserved as standalone tokens so it survives to the phoneme string.
func splitTokens(text string) []token {
	var tokens []token
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, token{text: word.String()})
			word.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case isPunct(r):
			flush()
			tokens = append(tokens, token{text: string(r), punct: true})
		default:
			word.WriteRune(r)
		}
	}
	flush()

	return tokens
}

func isPunct(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ';', ':', '—', '…':
		return true
	}

	return false
}

func stripNonLetters(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// joinPhonemes merges word and punctuation parts: words are separated by
// spaces, punctuation attaches to the preceding word.
func joinPhonemes(parts []string) string {
	var sb strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}

		if i > 0 && !startsWithPunct(part) {
			sb.WriteByte(' ')
		}
		sb.WriteString(part)
	}

	return sb.String()
}

func startsWithPunct(s string) bool {
	for _, r := range s {
		return isPunct(r)
	}

	return false
}
