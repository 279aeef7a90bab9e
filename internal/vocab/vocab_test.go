package vocab

import (
	"strings"
	"testing"
)

func TestSizeIsStable(t *testing.T) {
	if Size() == 0 {
		t.Fatal("vocabulary is empty")
	}

	// The symbol table is built from fixed string literals; a change in size
	// means the model contract changed.
	if Size() < 150 {
		t.Errorf("vocabulary unexpectedly small: %d symbols", Size())
	}
}

func TestIsValidSymbol(t *testing.T) {
	tests := []struct {
		name string
		r    rune
		want bool
	}{
		{name: "pad sentinel", r: '$', want: true},
		{name: "lowercase letter", r: 'a', want: true},
		{name: "uppercase letter", r: 'Z', want: true},
		{name: "ipa schwa", r: 'ə', want: true},
		{name: "ipa rhotic", r: 'ɹ', want: true},
		{name: "primary stress", r: 'ˈ', want: true},
		{name: "secondary stress", r: 'ˌ', want: true},
		{name: "period", r: '.', want: true},
		{name: "space", r: ' ', want: true},
		{name: "digit", r: '7', want: false},
		{name: "at sign", r: '@', want: false},
		{name: "cjk character", r: '語', want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidSymbol(tt.r); got != tt.want {
				t.Errorf("IsValidSymbol(%q) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestFilterToVocabularyIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"həlˈoʊ wˈɜːld",
		"abc123def",
		"mixed 語 text ɹ!",
		"@@@@",
	}

	for _, in := range inputs {
		once := FilterToVocabulary(in)
		twice := FilterToVocabulary(once)
		if once != twice {
			t.Errorf("FilterToVocabulary not idempotent for %q: %q != %q", in, once, twice)
		}

		for _, r := range once {
			if !IsValidSymbol(r) {
				t.Errorf("FilterToVocabulary(%q) kept invalid symbol %q", in, r)
			}
		}
	}
}

func TestTokenizeIDsInRange(t *testing.T) {
	inputs := []string{
		"",
		"həlˈoʊ",
		"unknown symbols @#@# dropped",
		"日本語テキスト",
		strings.Repeat("ə", 600),
	}

	for _, in := range inputs {
		ids := Tokenize(in)
		for _, id := range ids {
			if id < 0 || id >= int64(Size()) {
				t.Fatalf("Tokenize(%q) produced out-of-range id %d (vocab size %d)", in, id, Size())
			}
		}
	}
}

func TestTokenizePadding(t *testing.T) {
	ids := Tokenize("ə")
	if len(ids) != 1+1+trailingPad {
		t.Fatalf("got %d ids, want %d", len(ids), 1+1+trailingPad)
	}

	if ids[0] != PadID {
		t.Errorf("first id = %d, want pad sentinel", ids[0])
	}

	for i := len(ids) - trailingPad; i < len(ids); i++ {
		if ids[i] != PadID {
			t.Errorf("trailing id[%d] = %d, want pad sentinel", i, ids[i])
		}
	}
}

func TestTokenizeDropsUnknownSymbols(t *testing.T) {
	// "@" and digits are not in the vocabulary; they must be skipped, not
	// substituted and not error.
	withUnknown := Tokenize("a@1b")
	clean := Tokenize("ab")

	if len(withUnknown) != len(clean) {
		t.Fatalf("unknown symbols not dropped: %d ids vs %d", len(withUnknown), len(clean))
	}

	for i := range clean {
		if withUnknown[i] != clean[i] {
			t.Errorf("id[%d] = %d, want %d", i, withUnknown[i], clean[i])
		}
	}
}

func TestTokenizeTruncatesLongInput(t *testing.T) {
	long := strings.Repeat("ə", MaxPhonemeLen+100)
	ids := Tokenize(long)

	want := 1 + MaxPhonemeLen + trailingPad
	if len(ids) != want {
		t.Errorf("got %d ids, want %d after truncation", len(ids), want)
	}
}
