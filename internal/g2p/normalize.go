package g2p

import (
	"regexp"
	"strings"
)

// quote and punctuation variants folded to their ASCII-ish equivalents
// before any further processing.
var charFolds = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"«", `"`,
	"»", `"`,
	"。", ".",
	"，", ",",
	"、", ",",
	"！", "!",
	"？", "?",
	"：", ":",
	"；", ";",
	"（", " (",
	"）", ") ",
	"—", ", ",
	"–", ", ",
	"…", "...",
	" ", " ",
)

// abbreviations expanded in matching case before sentence segmentation, so
// their trailing periods never read as sentence boundaries.
var abbreviations = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\bDr\.(?:\s|$)`), "Doctor "},
	{regexp.MustCompile(`\bMr\.(?:\s|$)`), "Mister "},
	{regexp.MustCompile(`\bMrs\.(?:\s|$)`), "Misses "},
	{regexp.MustCompile(`\bMs\.(?:\s|$)`), "Miss "},
	{regexp.MustCompile(`\bProf\.(?:\s|$)`), "Professor "},
	{regexp.MustCompile(`\bCapt\.(?:\s|$)`), "Captain "},
	{regexp.MustCompile(`\bGen\.(?:\s|$)`), "General "},
	{regexp.MustCompile(`\bSgt\.(?:\s|$)`), "Sergeant "},
	{regexp.MustCompile(`\betc\.`), "et cetera"},
	{regexp.MustCompile(`\be\.g\.`), "for example"},
	{regexp.MustCompile(`\bi\.e\.`), "that is"},
	{regexp.MustCompile(`\bvs\.`), "versus"},
}

var (
	thousandsSep = regexp.MustCompile(`(\d),(\d{3})`)
	numericRange = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// NormalizeText folds quote/punctuation variants to ASCII equivalents,
// expands known abbreviations, strips thousands separators, rewrites numeric
// ranges ("1-5" becomes "1 to 5"), and collapses whitespace.
func NormalizeText(s string) string {
	s = charFolds.Replace(s)

	for _, abbr := range abbreviations {
		s = abbr.pattern.ReplaceAllString(s, abbr.replacement)
	}

	// "1,000,000" → "1000000". Repeat until fixed point: each pass removes
	// one separator per group.
	for {
		next := thousandsSep.ReplaceAllString(s, "$1$2")
		if next == s {
			break
		}
		s = next
	}

	s = numericRange.ReplaceAllString(s, "$1 to $2")

	s = multiSpace.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}
