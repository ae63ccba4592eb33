package segment

import (
	"fmt"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/kotoba-app/kotoba/pkg/ruby"
)

// Japanese segments text into morphemes using the kagome morphological
// analyzer with the IPA dictionary, and reports dictionary readings
// normalized to hiragana.
type Japanese struct {
	tok *tokenizer.Tokenizer
}

var _ Annotator = (*Japanese)(nil)

// NewJapanese initializes the kagome tokenizer with the embedded IPA
// dictionary. The dictionary is loaded once per instance; construct a single
// Japanese and share it, the tokenizer is safe for concurrent use.
func NewJapanese() (*Japanese, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("initialize morphological tokenizer: %w", err)
	}
	return &Japanese{tok: t}, nil
}

// Segment splits text into morpheme surface forms. The returned segments
// concatenate back to the input.
func (j *Japanese) Segment(text string) []string {
	if text == "" {
		return nil
	}
	toks := j.tok.Tokenize(text)
	segs := make([]string, 0, len(toks))
	for _, kt := range toks {
		segs = append(segs, kt.Surface)
	}
	return segs
}

// ReadingPairs returns a surface→reading pair for each morpheme whose
// hiragana reading differs from its surface form. Morphemes the dictionary
// has no reading for (latin text, numbers, unknown words) are skipped.
func (j *Japanese) ReadingPairs(text string) []ruby.ReadingPair {
	if text == "" {
		return nil
	}
	toks := j.tok.Tokenize(text)
	pairs := make([]ruby.ReadingPair, 0, len(toks))
	for _, kt := range toks {
		reading, ok := kt.Reading()
		if !ok || reading == "" {
			continue
		}
		hira := katakanaToHiragana(reading)
		if hira == kt.Surface {
			continue
		}
		pairs = append(pairs, ruby.ReadingPair{Surface: kt.Surface, Reading: hira})
	}
	if len(pairs) == 0 {
		return nil
	}
	return pairs
}

// katakanaToHiragana maps the katakana block onto hiragana. Dictionary
// readings come back in katakana; annotations display hiragana.
func katakanaToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 'ァ' && r <= 'ヶ' {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
