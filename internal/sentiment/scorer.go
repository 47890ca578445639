package sentiment

import (
	"strings"
)

// NeutralScore is returned when no lexicon word occurs in the text.
const NeutralScore = 0.5

// Score returns the positivity of text as a value in [0,1].
//
// Matching is raw substring containment, case- and form-sensitive, with no
// tokenization or stemming. Each lexicon word contributes at most one hit no
// matter how often it occurs in the text; the score is the ratio of positive
// hits to total hits. Text matching no lexicon word at all scores NeutralScore.
func (l *Lexicon) Score(text string) float64 {
	var pos, neg int
	for word, polarity := range l.words {
		if !strings.Contains(text, word) {
			continue
		}
		if polarity == Positive {
			pos++
		} else {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return NeutralScore
	}
	return float64(pos) / float64(total)
}
