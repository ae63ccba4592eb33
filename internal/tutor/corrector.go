// Package tutor implements the language-model-based journal correction
// pipeline.
//
// The [Corrector] sends a learner's journal text to an [llm.Provider]. The
// model is instructed (via a conservative system prompt) to fix grammar and
// word-choice mistakes, to list the vocabulary a learner at this level should
// note, and to supply pronunciation readings for words whose written form
// does not show how they are pronounced. The response is structured JSON.
//
// Correction runs when an entry is saved, never on an interactive path, so
// LLM latency is acceptable. When the LLM response cannot be parsed, the
// corrector returns the original text unchanged rather than surfacing an
// error: a journal entry must always save, corrected or not.
package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kotoba-app/kotoba/internal/vocab"
	llm "github.com/kotoba-app/kotoba/pkg/provider/llm"
	"github.com/kotoba-app/kotoba/pkg/ruby"
)

const defaultTemperature = 0.2

// systemPromptTemplate is the base system prompt. The language is interpolated
// at call time.
const systemPromptTemplate = `You are a language tutor reviewing a learner's journal entry written in %s.

Your task: correct grammar, spelling, and unnatural word choices in the entry.

Rules:
- Keep the learner's meaning and tone; do not rewrite beyond what correctness requires.
- Be conservative — if a phrasing is acceptable, leave it unchanged.
- List vocabulary worth noting: words you introduced in the correction plus notable words the learner used.
- For every word whose pronunciation is not obvious from its written form, include a reading entry. For Japanese, readings are hiragana.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "corrected_text": "<full corrected entry>",
  "vocabulary": [
    {"term": "<word>", "reading": "<pronunciation>", "meaning": "<short English gloss>"}
  ],
  "readings": [
    {"surface": "<word as written>", "reading": "<pronunciation>"}
  ]
}

If no corrections are needed, return corrected_text equal to the input.`

// Correction is the structured result of one LLM correction pass.
type Correction struct {
	// CorrectedText is the full corrected entry, plain (no annotations).
	CorrectedText string

	// Vocabulary lists the notable words the model surfaced.
	Vocabulary []vocab.Item

	// Readings maps written forms to pronunciations for both the original and
	// the corrected text.
	Readings []ruby.ReadingPair
}

// llmResponse is the expected JSON structure returned by the LLM.
type llmResponse struct {
	CorrectedText string `json:"corrected_text"`
	Vocabulary    []struct {
		Term    string `json:"term"`
		Reading string `json:"reading"`
		Meaning string `json:"meaning"`
	} `json:"vocabulary"`
	Readings []struct {
		Surface string `json:"surface"`
		Reading string `json:"reading"`
	} `json:"readings"`
}

// CorrectorOption is a functional option for configuring a [Corrector].
type CorrectorOption func(*Corrector)

// WithTemperature sets the LLM sampling temperature. Lower values produce
// more reproducible corrections. Default: 0.2.
func WithTemperature(temp float64) CorrectorOption {
	return func(c *Corrector) {
		c.temperature = temp
	}
}

// Corrector uses an [llm.Provider] to correct journal entries. It is safe
// for concurrent use.
//
// Model selection follows the one-provider-per-model pattern: to use a
// specific model for correction, construct the [llm.Provider] with that
// model configured, rather than overriding per-request.
type Corrector struct {
	llm         llm.Provider
	temperature float64
}

// NewCorrector returns a new [Corrector] backed by the given [llm.Provider].
func NewCorrector(provider llm.Provider, opts ...CorrectorOption) *Corrector {
	c := &Corrector{
		llm:         provider,
		temperature: defaultTemperature,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct sends text to the LLM and returns the structured correction.
//
// When the LLM response is unparseable, Correct returns the original text
// unchanged with no vocabulary and a nil error (graceful degradation — the
// entry must still save).
//
// Context cancellation and network errors are returned as non-nil errors.
func (c *Corrector) Correct(ctx context.Context, text, language string) (*Correction, error) {
	if text == "" {
		return &Correction{}, nil
	}

	req := llm.Request{
		SystemPrompt: fmt.Sprintf(systemPromptTemplate, languageName(language)),
		Temperature:  c.temperature,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: text},
		},
	}

	resp, err := c.llm.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("tutor: complete: %w", err)
	}

	corr, parseErr := parseResponse(resp.Content, text)
	if parseErr != nil {
		// Unparseable response: return original unchanged, no error.
		return &Correction{CorrectedText: text}, nil //nolint:nilerr // intentional graceful fallback
	}
	return corr, nil
}

// parseResponse attempts to unmarshal the LLM output into an [llmResponse].
// It strips markdown code fences before parsing.
func parseResponse(content, originalText string) (*Correction, error) {
	cleaned := stripMarkdown(content)

	var r llmResponse
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return nil, fmt.Errorf("tutor: parse response: %w", err)
	}

	corr := &Correction{CorrectedText: r.CorrectedText}
	if corr.CorrectedText == "" {
		corr.CorrectedText = originalText
	}

	items := make([]vocab.Item, 0, len(r.Vocabulary))
	for _, v := range r.Vocabulary {
		items = append(items, vocab.Item{Term: v.Term, Reading: v.Reading, Meaning: v.Meaning})
	}
	corr.Vocabulary = vocab.Normalize(items)

	for _, rd := range r.Readings {
		if rd.Surface == "" || rd.Reading == "" || rd.Surface == rd.Reading {
			continue
		}
		corr.Readings = append(corr.Readings, ruby.ReadingPair{Surface: rd.Surface, Reading: rd.Reading})
	}
	return corr, nil
}

// stripMarkdown removes optional markdown code fences (```json ... ```) that
// some models prepend and append to JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}

// languageName expands common language codes for the prompt. Unknown codes
// pass through unchanged.
func languageName(code string) string {
	switch code {
	case "ja":
		return "Japanese"
	case "en":
		return "English"
	case "ko":
		return "Korean"
	case "zh":
		return "Chinese"
	case "":
		return "the learner's target language"
	}
	return code
}
