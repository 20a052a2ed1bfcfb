package service

import (
	"context"
	"strings"

	"herald/internal/core/normalize"
)

// Wordlist screens text against configured moderation words.
// Matching runs over folded text so confusable spellings and case
// tricks hit the same rule as the plain word
type Wordlist struct {
	words []string
	norm  *normalize.Normalizer
}

// NewWordlist builds a rejecter from configured words; folded empties are dropped
func NewWordlist(words []string) *Wordlist {
	norm := normalize.New()
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if f := norm.Fold(w); f != "" {
			kept = append(kept, f)
		}
	}
	return &Wordlist{words: kept, norm: norm}
}

// Reject reports whether text matches any configured word and which one
func (w *Wordlist) Reject(_ context.Context, text, _ string) (bool, string, error) {
	if text == "" || len(w.words) == 0 {
		return false, "", nil
	}
	folded := w.norm.Fold(text)
	for _, word := range w.words {
		if strings.Contains(folded, word) {
			return true, word, nil
		}
	}
	return false, "", nil
}
