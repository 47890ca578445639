// Package sentiment scores diary text against a fixed word lexicon and maps
// the score to an image-generation prompt.
package sentiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Polarity is the category assigned to a lexicon word.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// Lexicon is an immutable word -> polarity mapping loaded once at startup.
type Lexicon struct {
	words map[string]Polarity
}

// NewLexicon builds a lexicon from an explicit word map. Used in tests and by seeding.
func NewLexicon(words map[string]Polarity) *Lexicon {
	m := make(map[string]Polarity, len(words))
	for w, p := range words {
		m[w] = p
	}
	return &Lexicon{words: m}
}

// LoadLexicon reads a two-column CSV (word,category) from path. A UTF-8 BOM on
// the first record is stripped. Rows with an empty word or an unknown category
// are skipped rather than treated as errors.
func LoadLexicon(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseLexicon(f)
}

// ParseLexicon reads lexicon CSV rows from r. The first row is the header.
func ParseLexicon(r io.Reader) (*Lexicon, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse lexicon CSV: %w", err)
	}

	words := make(map[string]Polarity)
	for i, rec := range records {
		if i == 0 {
			// header row
			continue
		}
		if len(rec) < 2 {
			continue
		}
		word := strings.TrimPrefix(rec[0], "\ufeff")
		if word == "" {
			continue
		}
		switch Polarity(strings.TrimSpace(rec[1])) {
		case Positive:
			words[word] = Positive
		case Negative:
			words[word] = Negative
		}
	}

	return &Lexicon{words: words}, nil
}

// Len returns the number of lexicon words.
func (l *Lexicon) Len() int {
	return len(l.words)
}
