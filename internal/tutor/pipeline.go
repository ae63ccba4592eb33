package tutor

import (
	"context"
	"fmt"
	"time"

	"github.com/kotoba-app/kotoba/internal/observe"
	"github.com/kotoba-app/kotoba/internal/segment"
	"github.com/kotoba-app/kotoba/internal/vocab"
	"github.com/kotoba-app/kotoba/pkg/ruby"
)

// Result is the full output of one pipeline run over a journal entry.
type Result struct {
	// Original is the entry as the learner wrote it, without annotations.
	Original string

	// AnnotatedOriginal is the original with pronunciation annotations woven in.
	AnnotatedOriginal string

	// Corrected is the tutor-corrected entry, without annotations.
	Corrected string

	// AnnotatedCorrected is the corrected entry with annotations woven in.
	AnnotatedCorrected string

	// Script is the annotated diff from AnnotatedOriginal to
	// AnnotatedCorrected, with <ins> and <del> spans marking the edits.
	Script string

	// Vocabulary lists the notable words surfaced by the correction.
	Vocabulary []vocab.Item

	// Degraded reports that the LLM stage failed and the entry was processed
	// without correction.
	Degraded bool
}

// PipelineOption configures a [Pipeline].
type PipelineOption func(*Pipeline)

// WithAnnotator registers the segmentation annotator for a language code.
// Languages without an annotator skip annotation weaving.
func WithAnnotator(language string, a segment.Annotator) PipelineOption {
	return func(p *Pipeline) { p.annotators[language] = a }
}

// WithCache enables result memoization.
func WithCache(c *Cache) PipelineOption {
	return func(p *Pipeline) { p.cache = c }
}

// WithMetrics overrides the metrics instance, mainly for tests.
func WithMetrics(m *observe.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline runs a journal entry through correction, annotation weaving, and
// diff generation. It is safe for concurrent use.
//
// Every stage degrades rather than fails: a broken LLM response, a missing
// annotator, or an empty reading table all produce a valid (if plainer)
// Result. Only context cancellation aborts a run.
type Pipeline struct {
	corrector  *Corrector
	annotators map[string]segment.Annotator
	cache      *Cache
	metrics    *observe.Metrics
}

// NewPipeline builds a Pipeline. corrector may be nil, in which case entries
// pass through without correction.
func NewPipeline(corrector *Corrector, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		corrector:  corrector,
		annotators: make(map[string]segment.Annotator),
		metrics:    observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// model identifies the correction model for cache keying.
func (p *Pipeline) model() string {
	if p.corrector == nil {
		return "none"
	}
	return p.corrector.llm.ModelID()
}

// Process runs text through the pipeline. The returned error is non-nil only
// when ctx is cancelled; all other failures degrade into an uncorrected
// Result.
func (p *Pipeline) Process(ctx context.Context, text, language string) (*Result, error) {
	var key [32]byte
	if p.cache != nil {
		key = cacheKey(text, language, p.model())
		if r := p.cache.get(key); r != nil {
			p.metrics.RecordCacheHit(ctx, language)
			return r, nil
		}
	}

	res := &Result{Original: text, Corrected: text}
	var pairs []ruby.ReadingPair

	if p.corrector != nil && text != "" {
		start := time.Now()
		corr, err := p.corrector.Correct(ctx, text, language)
		p.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, fmt.Errorf("tutor: process: %w", ctx.Err())
		case err != nil:
			observe.Logger(ctx).Warn("correction failed; saving entry uncorrected",
				"language", language,
				"error", err,
			)
			p.metrics.RecordProviderError(ctx, p.model(), "llm")
			res.Degraded = true
		default:
			res.Corrected = corr.CorrectedText
			res.Vocabulary = corr.Vocabulary
			pairs = corr.Readings
		}
	}

	start := time.Now()
	ann := p.annotators[language]
	if ann != nil {
		// Morphological readings fill in when the LLM supplied none.
		if len(pairs) == 0 {
			pairs = ann.ReadingPairs(res.Corrected)
		}
		res.AnnotatedOriginal = ruby.Weave(res.Original, pairs, ann)
		res.AnnotatedCorrected = ruby.Weave(res.Corrected, pairs, ann)
	} else {
		res.AnnotatedOriginal = res.Original
		res.AnnotatedCorrected = res.Corrected
	}
	res.Script = ruby.Diff(res.AnnotatedOriginal, res.AnnotatedCorrected)
	p.metrics.AnnotateDuration.Record(ctx, time.Since(start).Seconds())

	status := "ok"
	if res.Degraded {
		status = "degraded"
	}
	p.metrics.RecordEntry(ctx, language, status)

	if p.cache != nil && !res.Degraded {
		p.cache.put(key, res)
	}
	return res, nil
}
