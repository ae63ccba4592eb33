package ruby

import (
	"strings"
	"unicode"
)

// ReadingPair associates a surface form with its pronunciation. Tables of
// these are supplied by the caller; duplicate surfaces are last-write-wins.
type ReadingPair struct {
	Surface string
	Reading string
}

// Segmenter splits text into word-like units. Implementations must return
// segments whose concatenation reproduces the input exactly; Weave verifies
// this and treats a violation as "segmentation unavailable".
//
// A nil Segmenter models a locale without word-level segmentation support.
type Segmenter interface {
	Segment(text string) []string
}

// Weave inserts [Base](Reading) markup into text using the supplied reading
// table. Each word-like unit that exactly matches a pair's surface form, with
// a reading distinct from the surface itself, is annotated minimally: the
// longest run of equal phonetic (non-ideographic) runes shared at the tail of
// surface and reading stays outside the annotation, so inflectional endings
// are not re-marked and an inflected form still diffs against its base form
// as a small edit.
//
// Existing annotations are never split — annotated spans pass through
// verbatim and only the plain runs between them are segmented — which makes
// Weave idempotent. With no pairs, a nil segmenter, or a misbehaving
// segmenter, the input is returned unchanged; Weave never fails.
func Weave(text string, pairs []ReadingPair, seg Segmenter) string {
	if text == "" || len(pairs) == 0 || seg == nil {
		return text
	}

	readings := make(map[string]string, len(pairs))
	for _, p := range pairs {
		readings[p.Surface] = p.Reading
	}

	var out strings.Builder
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			out.WriteString(weavePlain(plain.String(), readings, seg))
			plain.Reset()
		}
	}
	for _, tok := range Tokenize(text) {
		if tok.Annotated {
			flush()
			out.WriteString(tok.Text())
		} else {
			plain.WriteString(tok.Base)
		}
	}
	flush()
	return out.String()
}

// weavePlain segments one annotation-free run and annotates each unit.
func weavePlain(text string, readings map[string]string, seg Segmenter) string {
	segments := seg.Segment(text)
	if strings.Join(segments, "") != text {
		// The segmenter dropped or altered characters; annotating on top of
		// that would corrupt the text.
		return text
	}
	var out strings.Builder
	for _, s := range segments {
		out.WriteString(annotateUnit(s, readings))
	}
	return out.String()
}

// annotateUnit emits [core](readingCore)suffix for a unit with a known
// distinct reading, where suffix is the shared phonetic tail. Units without
// a usable reading, or whose core trims to nothing, pass through unchanged.
func annotateUnit(unit string, readings map[string]string) string {
	reading, ok := readings[unit]
	if !ok || reading == "" || reading == unit {
		return unit
	}

	surface := []rune(unit)
	pron := []rune(reading)
	trim := 0
	for trim < len(surface) && trim < len(pron) {
		sc := surface[len(surface)-1-trim]
		pc := pron[len(pron)-1-trim]
		if sc != pc || isIdeograph(sc) {
			break
		}
		trim++
	}

	core := string(surface[:len(surface)-trim])
	readingCore := string(pron[:len(pron)-trim])
	if core == "" || readingCore == "" {
		return unit
	}
	return "[" + core + "](" + readingCore + ")" + string(surface[len(surface)-trim:])
}

// isIdeograph reports whether r is a Han ideograph — the script that carries
// pronunciation hints and must never be part of the trimmed tail.
func isIdeograph(r rune) bool {
	return unicode.Is(unicode.Han, r)
}
