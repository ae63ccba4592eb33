// Package segment provides language-aware text segmentation and reading
// extraction used to drive annotation weaving.
//
// An Annotator extends [ruby.Segmenter] with the ability to derive
// surface→reading pairs from raw text, so callers can both split a text into
// word-like units and look up how each unit is pronounced.
package segment

import (
	"errors"
	"fmt"

	"github.com/kotoba-app/kotoba/pkg/ruby"
)

// ErrUnknownSegmenter is returned by New for segmenter names that have no
// implementation.
var ErrUnknownSegmenter = errors.New("unknown segmenter")

// Annotator segments text into word-like units and derives pronunciation
// pairs for them.
type Annotator interface {
	ruby.Segmenter

	// ReadingPairs returns surface→reading pairs for the units of text whose
	// pronunciation differs from their written form. Units without a known
	// reading are omitted.
	ReadingPairs(text string) []ruby.ReadingPair
}

// New constructs the Annotator registered under name.
//
// Supported names are "japanese" (morphological analysis via kagome) and
// "passthrough" (whole-text unit, no readings).
func New(name string) (Annotator, error) {
	switch name {
	case "japanese":
		return NewJapanese()
	case "passthrough", "":
		return Passthrough{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSegmenter, name)
	}
}

// Passthrough treats the entire input as a single unit and knows no readings.
// It is the Annotator for languages without a morphological analyzer, where
// annotation weaving degrades to a no-op.
type Passthrough struct{}

var _ Annotator = Passthrough{}

// Segment returns the whole text as one unit, or nil for empty input.
func (Passthrough) Segment(text string) []string {
	if text == "" {
		return nil
	}
	return []string{text}
}

// ReadingPairs always returns nil.
func (Passthrough) ReadingPairs(string) []ruby.ReadingPair { return nil }
