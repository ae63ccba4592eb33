// Package vocab maintains the vocabulary list attached to a journal entry.
//
// The correction pipeline extracts candidate vocabulary items from the LLM
// response; this package normalizes them and merges them into the entry's
// existing list without introducing duplicates. Near-duplicate detection uses
// Jaro-Winkler similarity, so romanization variants and minor misspellings of
// a term already on the list are folded into the existing item instead of
// appearing twice.
package vocab

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// defaultThreshold is the Jaro-Winkler similarity above which two terms are
// treated as the same vocabulary item.
const defaultThreshold = 0.93

// Item is a single vocabulary entry surfaced by a journal correction.
type Item struct {
	// Term is the word or phrase as it appears in the corrected text.
	Term string `json:"term"`

	// Reading is the term's pronunciation, when it differs from the written
	// form (hiragana for Japanese terms).
	Reading string `json:"reading,omitempty"`

	// Meaning is a short gloss in the learner's native language.
	Meaning string `json:"meaning,omitempty"`
}

// Option configures Merge.
type Option func(*options)

type options struct {
	threshold float64
	maxItems  int
}

// WithSimilarityThreshold overrides the Jaro-Winkler similarity above which
// two terms are folded together. Values outside (0, 1] are ignored.
func WithSimilarityThreshold(t float64) Option {
	return func(o *options) {
		if t > 0 && t <= 1 {
			o.threshold = t
		}
	}
}

// WithMaxItems caps the merged list length. Zero means unlimited.
func WithMaxItems(n int) Option {
	return func(o *options) { o.maxItems = n }
}

// Normalize trims whitespace, drops items without a term, and removes exact
// duplicate terms keeping the first occurrence. Later duplicates may still
// contribute a Reading or Meaning the first occurrence lacked.
func Normalize(items []Item) []Item {
	seen := make(map[string]int, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		it.Term = strings.TrimSpace(it.Term)
		it.Reading = strings.TrimSpace(it.Reading)
		it.Meaning = strings.TrimSpace(it.Meaning)
		if it.Term == "" {
			continue
		}
		if i, ok := seen[it.Term]; ok {
			fill(&out[i], it)
			continue
		}
		seen[it.Term] = len(out)
		out = append(out, it)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Merge folds incoming items into existing, preserving the order of existing
// and appending genuinely new items in their incoming order. An incoming item
// whose term exactly matches or is a near-duplicate of a kept item only
// fills in that item's missing Reading or Meaning.
func Merge(existing, incoming []Item, opts ...Option) []Item {
	o := &options{threshold: defaultThreshold}
	for _, opt := range opts {
		opt(o)
	}

	merged := Normalize(existing)
	for _, it := range Normalize(incoming) {
		if i := indexOfSimilar(merged, it.Term, o.threshold); i >= 0 {
			fill(&merged[i], it)
			continue
		}
		merged = append(merged, it)
	}

	if o.maxItems > 0 && len(merged) > o.maxItems {
		merged = merged[:o.maxItems]
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// indexOfSimilar returns the index of the first item whose term exactly
// matches or scores above threshold against term, or -1.
//
// longTolerance is passed as false to use standard Jaro-Winkler scoring.
func indexOfSimilar(items []Item, term string, threshold float64) int {
	for i, it := range items {
		if it.Term == term {
			return i
		}
		if matchr.JaroWinkler(it.Term, term, false) >= threshold {
			return i
		}
	}
	return -1
}

// fill copies Reading and Meaning from src into dst where dst is missing them.
func fill(dst *Item, src Item) {
	if dst.Reading == "" {
		dst.Reading = src.Reading
	}
	if dst.Meaning == "" {
		dst.Meaning = src.Meaning
	}
}
