package journal

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory [Store] used in tests and when no database DSN is
// configured. All methods are safe for concurrent use. Data does not survive
// process restart.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // insertion order of IDs, oldest first
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]*Entry)}
}

// Migrate implements [Store]. It is a no-op.
func (s *MemStore) Migrate(context.Context) error { return nil }

// Create implements [Store].
func (s *MemStore) Create(_ context.Context, e *Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; ok {
		return fmt.Errorf("journal: entry with id %q already exists", e.ID)
	}
	stored := *e
	s.entries[e.ID] = &stored
	s.order = append(s.order, e.ID)
	return nil
}

// Get implements [Store]. Like the Postgres store it returns (nil, nil) for
// a missing entry and never exposes the stored embedding.
func (s *MemStore) Get(_ context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	out := *e
	out.Embedding = nil
	return &out, nil
}

// List implements [Store]. Entries are returned newest first.
func (s *MemStore) List(_ context.Context, f Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := f.limit()
	var out []Entry
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[s.order[i]]
		if f.Language != "" && e.Language != f.Language {
			continue
		}
		cp := *e
		cp.Embedding = nil
		out = append(out, cp)
	}
	return out, nil
}

// SimilarTo implements [Store] with an exhaustive cosine-distance scan.
func (s *MemStore) SimilarTo(_ context.Context, id string, topK int) ([]SimilarEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, ok := s.entries[id]
	if !ok || len(query.Embedding) == 0 || topK <= 0 {
		return []SimilarEntry{}, nil
	}

	results := []SimilarEntry{}
	for _, e := range s.entries {
		if e.ID == id || e.Language != query.Language || len(e.Embedding) == 0 {
			continue
		}
		cp := *e
		cp.Embedding = nil
		results = append(results, SimilarEntry{
			Entry:    cp,
			Distance: cosineDistance(query.Embedding, e.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// cosineDistance returns 1 - cos(a, b). Mismatched lengths or zero vectors
// yield the maximum distance so they sort last.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
