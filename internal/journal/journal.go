// Package journal persists processed journal entries.
//
// An [Entry] is the stored result of running a submitted draft through the
// tutor pipeline: the original text, the corrected text, both annotated
// renditions, the diff markup between them, and the vocabulary notes the
// tutor extracted. Entries optionally carry an embedding vector used for
// similar-entry recall.
//
// Two [Store] implementations exist: [PostgresStore] (pgx + pgvector) for
// production and [MemStore] for tests and DB-less operation.
package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kotoba-app/kotoba/internal/vocab"
)

// DefaultListLimit is applied when a [Filter] does not specify a limit.
const DefaultListLimit = 50

// Entry is a single processed journal entry.
type Entry struct {
	// ID is assigned on create when empty (a random UUID string).
	ID       string `json:"id"`
	Language string `json:"language"`
	// Day is the journal date in YYYY-MM-DD form, as submitted by the
	// client. It is free-form text, not validated against a calendar.
	Day string `json:"day,omitempty"`

	Original           string `json:"original"`
	Corrected          string `json:"corrected"`
	AnnotatedOriginal  string `json:"annotated_original,omitempty"`
	AnnotatedCorrected string `json:"annotated_corrected,omitempty"`
	DiffMarkup         string `json:"diff_markup,omitempty"`

	Vocabulary []vocab.Item `json:"vocabulary,omitempty"`

	// Degraded is true when one or more pipeline stages failed and the
	// entry was stored with partial results.
	Degraded bool `json:"degraded,omitempty"`

	// Embedding is the vector computed from the corrected text. It is
	// write-only: Create persists it, but Get and List do not read it
	// back. Nil when no embeddings provider is configured.
	Embedding []float32 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate reports whether the entry can be persisted.
func (e *Entry) Validate() error {
	var errs []error
	if strings.TrimSpace(e.Language) == "" {
		errs = append(errs, errors.New("language must not be empty"))
	}
	if e.Original == "" {
		errs = append(errs, errors.New("original text must not be empty"))
	}
	return errors.Join(errs...)
}

// Filter restricts a [Store.List] call.
type Filter struct {
	// Language keeps only entries in the given language. Empty matches all.
	Language string
	// Limit caps the number of returned entries. Zero or negative means
	// [DefaultListLimit].
	Limit int
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// SimilarEntry is a [Store.SimilarTo] result: an entry plus its cosine
// distance to the query entry (smaller is more similar).
type SimilarEntry struct {
	Entry    Entry   `json:"entry"`
	Distance float64 `json:"distance"`
}

// Store persists journal entries.
type Store interface {
	// Migrate ensures the backing schema exists. Idempotent.
	Migrate(ctx context.Context) error

	// Create validates and inserts the entry, assigning ID and CreatedAt.
	Create(ctx context.Context, e *Entry) error

	// Get returns the entry with the given ID, or (nil, nil) if absent.
	Get(ctx context.Context, id string) (*Entry, error)

	// List returns entries matching the filter, newest first.
	List(ctx context.Context, f Filter) ([]Entry, error)

	// SimilarTo returns up to topK entries in the same language as the
	// entry with the given ID, ordered by ascending cosine distance of
	// their embeddings. Entries without an embedding are skipped; the
	// query entry itself is excluded. Returns an empty slice when the
	// entry is missing or has no embedding.
	SimilarTo(ctx context.Context, id string, topK int) ([]SimilarEntry, error)
}
