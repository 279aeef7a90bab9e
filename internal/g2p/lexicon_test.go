package g2p

import (
	"strings"
	"testing"
)

func TestParseLexicon(t *testing.T) {
	input := strings.Join([]string{
		";;; comment line",
		"",
		"HELLO\thəlˈoʊ",
		"WORLD\twˈɜːld,wɝld",
		"hello\tDUPLICATE",
	}, "\n")

	lx, err := ParseLexicon(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseLexicon: %v", err)
	}

	if lx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", lx.Len())
	}

	tests := []struct {
		name string
		word string
		want string
		ok   bool
	}{
		{name: "simple entry", word: "hello", want: "həlˈoʊ", ok: true},
		{name: "uppercase lookup", word: "HELLO", want: "həlˈoʊ", ok: true},
		{name: "first variant wins", word: "world", want: "wˈɜːld", ok: true},
		{name: "missing word", word: "absent", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lx.Lookup(tt.word)
			if ok != tt.ok {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.word, ok, tt.ok)
			}

			if got != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}

func TestParseLexiconFirstDefinitionWins(t *testing.T) {
	input := "WORD\tfirst\nWORD\tsecond\n"

	lx, err := ParseLexicon(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseLexicon: %v", err)
	}

	got, _ := lx.Lookup("word")
	if got != "first" {
		t.Errorf("Lookup(word) = %q, want %q", got, "first")
	}
}

func TestParseLexiconRejectsMissingTab(t *testing.T) {
	if _, err := ParseLexicon(strings.NewReader("BROKEN LINE no tab")); err == nil {
		t.Error("expected error for line without tab separator")
	}
}

func TestNilLexiconLookup(t *testing.T) {
	var lx *Lexicon
	if _, ok := lx.Lookup("anything"); ok {
		t.Error("nil lexicon must report miss")
	}

	if lx.Len() != 0 {
		t.Error("nil lexicon must report zero length")
	}
}
