package tutor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kotoba-app/kotoba/internal/tutor"
	"github.com/kotoba-app/kotoba/pkg/provider/llm"
	"github.com/kotoba-app/kotoba/pkg/provider/llm/mock"
	"github.com/kotoba-app/kotoba/pkg/ruby"
)

// fakeAnnotator treats the whole text as one unit and serves a fixed reading
// table.
type fakeAnnotator struct {
	pairs []ruby.ReadingPair
}

func (fakeAnnotator) Segment(text string) []string {
	if text == "" {
		return nil
	}
	return []string{text}
}

func (f fakeAnnotator) ReadingPairs(string) []ruby.ReadingPair { return f.pairs }

func TestPipeline_WeavesAndDiffs(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteResponse: &llm.Response{Content: `{
		"corrected_text": "食べます",
		"readings": [{"surface": "食べます", "reading": "たべます"}]
	}`}}
	pipe := tutor.NewPipeline(
		tutor.NewCorrector(p),
		tutor.WithAnnotator("ja", fakeAnnotator{}),
	)

	res, err := pipe.Process(context.Background(), "たべます", "ja")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Original != "たべます" || res.Corrected != "食べます" {
		t.Errorf("plain texts = %q / %q", res.Original, res.Corrected)
	}
	if res.AnnotatedOriginal != "たべます" {
		t.Errorf("AnnotatedOriginal = %q", res.AnnotatedOriginal)
	}
	if res.AnnotatedCorrected != "[食](た)べます" {
		t.Errorf("AnnotatedCorrected = %q", res.AnnotatedCorrected)
	}
	want := "<del>た</del><ins>[食](た)</ins>べます"
	if res.Script != want {
		t.Errorf("Script = %q, want %q", res.Script, want)
	}
	if res.Degraded {
		t.Error("Degraded set on successful run")
	}
}

func TestPipeline_DegradesOnLLMFailure(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteErr: errors.New("backend down")}
	pipe := tutor.NewPipeline(tutor.NewCorrector(p))

	res, err := pipe.Process(context.Background(), "I go to school", "en")
	if err != nil {
		t.Fatalf("Process returned error, want degraded result: %v", err)
	}
	if !res.Degraded {
		t.Error("Degraded not set")
	}
	if res.Corrected != "I go to school" {
		t.Errorf("Corrected = %q, want original preserved", res.Corrected)
	}
	if res.Script != "I go to school" {
		t.Errorf("Script = %q, want plain text with no edits", res.Script)
	}
}

func TestPipeline_CancelledContextFails(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &mock.Provider{CompleteErr: context.Canceled}
	pipe := tutor.NewPipeline(tutor.NewCorrector(p))

	if _, err := pipe.Process(ctx, "text", "en"); err == nil {
		t.Fatal("Process succeeded with cancelled context")
	}
}

func TestPipeline_NoCorrectorPassesThrough(t *testing.T) {
	t.Parallel()

	pairs := []ruby.ReadingPair{{Surface: "食べます", Reading: "たべます"}}
	pipe := tutor.NewPipeline(nil, tutor.WithAnnotator("ja", fakeAnnotator{pairs: pairs}))

	res, err := pipe.Process(context.Background(), "食べます", "ja")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Corrected != "食べます" {
		t.Errorf("Corrected = %q", res.Corrected)
	}
	// Morphological readings apply even without an LLM.
	if res.AnnotatedCorrected != "[食](た)べます" {
		t.Errorf("AnnotatedCorrected = %q", res.AnnotatedCorrected)
	}
	if res.Script != "[食](た)べます" {
		t.Errorf("Script = %q, want annotated text with no edit spans", res.Script)
	}
}

func TestPipeline_UnknownLanguageSkipsWeaving(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteResponse: &llm.Response{Content: `{"corrected_text": "I go to school"}`}}
	pipe := tutor.NewPipeline(tutor.NewCorrector(p))

	res, err := pipe.Process(context.Background(), "I go school", "en")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.AnnotatedOriginal != "I go school" || res.AnnotatedCorrected != "I go to school" {
		t.Errorf("annotated texts = %q / %q", res.AnnotatedOriginal, res.AnnotatedCorrected)
	}
	if res.Script == "" {
		t.Error("Script empty")
	}
}

func TestPipeline_CacheMemoizes(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteResponse: &llm.Response{Content: `{"corrected_text": "食べます"}`}}
	pipe := tutor.NewPipeline(
		tutor.NewCorrector(p),
		tutor.WithCache(tutor.NewCache(8)),
	)

	ctx := context.Background()
	first, err := pipe.Process(ctx, "たべます", "ja")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	second, err := pipe.Process(ctx, "たべます", "ja")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if first != second {
		t.Error("second run did not return the cached result")
	}
	if got := len(p.CompleteCalls); got != 1 {
		t.Errorf("Complete called %d times, want 1", got)
	}

	// A different language misses the cache.
	if _, err := pipe.Process(ctx, "たべます", "en"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := len(p.CompleteCalls); got != 2 {
		t.Errorf("Complete called %d times, want 2", got)
	}
}

func TestPipeline_DegradedResultsAreNotCached(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteErr: errors.New("backend down")}
	pipe := tutor.NewPipeline(
		tutor.NewCorrector(p),
		tutor.WithCache(tutor.NewCache(8)),
	)

	ctx := context.Background()
	if _, err := pipe.Process(ctx, "text", "en"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := pipe.Process(ctx, "text", "en"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := len(p.CompleteCalls); got != 2 {
		t.Errorf("Complete called %d times, want degraded runs retried", got)
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteResponse: &llm.Response{Content: `{"corrected_text": "x"}`}}
	cache := tutor.NewCache(2)
	pipe := tutor.NewPipeline(tutor.NewCorrector(p), tutor.WithCache(cache))

	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		if _, err := pipe.Process(ctx, text, "en"); err != nil {
			t.Fatalf("Process(%q): %v", text, err)
		}
	}
	if got := cache.Len(); got != 2 {
		t.Errorf("cache length = %d, want capped at 2", got)
	}

	// "one" was evicted, so it costs another LLM call.
	if _, err := pipe.Process(ctx, "one", "en"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := len(p.CompleteCalls); got != 4 {
		t.Errorf("Complete called %d times, want 4", got)
	}
}
