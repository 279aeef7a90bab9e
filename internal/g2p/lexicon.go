package g2p

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Lexicon maps uppercase words to their phoneme transcription.
//
// The on-disk format is tab-separated: WORD, a tab, then one or more phoneme
// strings separated by commas. When a word has multiple pronunciations the
// first variant wins. Lines starting with ";;;" are comments.
type Lexicon struct {
	entries map[string]string
}

// LoadLexicon reads a pronunciation lexicon from path.
func LoadLexicon(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return ParseLexicon(f)
}

// ParseLexicon reads lexicon entries from r.
func ParseLexicon(r io.Reader) (*Lexicon, error) {
	lx := &Lexicon{entries: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";;;") {
			continue
		}

		word, variants, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("lexicon line %d: missing tab separator", lineNo)
		}

		word = strings.ToUpper(strings.TrimSpace(word))
		first, _, _ := strings.Cut(variants, ",")
		first = strings.TrimSpace(first)

		if word == "" || first == "" {
			continue
		}

		// First occurrence of a word wins, matching the variant policy.
		if _, exists := lx.entries[word]; !exists {
			lx.entries[word] = first
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	return lx, nil
}

// Lookup returns the transcription for word (case-insensitive).
func (lx *Lexicon) Lookup(word string) (string, bool) {
	if lx == nil {
		return "", false
	}

	ph, ok := lx.entries[strings.ToUpper(word)]

	return ph, ok
}

// Len returns the number of entries.
func (lx *Lexicon) Len() int {
	if lx == nil {
		return 0
	}

	return len(lx.entries)
}
