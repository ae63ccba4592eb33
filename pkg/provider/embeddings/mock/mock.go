// Package mock provides a deterministic test double for embeddings.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/kotoba-app/kotoba/pkg/provider/embeddings"
)

// Provider is a mock embeddings.Provider. When EmbedFunc is unset, Embed
// derives a deterministic vector from the input text so that equal texts
// produce equal vectors.
type Provider struct {
	mu sync.Mutex

	// EmbedFunc, if set, handles Embed calls entirely.
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	// Err, if non-nil, is returned from Embed and EmbedBatch.
	Err error

	// Dim is the vector length. Defaults to 8 when zero.
	Dim int

	// EmbedCalls records the texts passed to Embed and EmbedBatch.
	EmbedCalls []string
}

var _ embeddings.Provider = (*Provider)(nil)

func (p *Provider) dim() int {
	if p.Dim == 0 {
		return 8
	}
	return p.Dim
}

// Embed records the call and returns a deterministic vector.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.EmbedCalls = append(p.EmbedCalls, text)
	fn, err, d := p.EmbedFunc, p.Err, p.dim()
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	if err != nil {
		return nil, err
	}
	return deterministicVector(text, d), nil
}

// EmbedBatch calls Embed for each text.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns Dim, or 8 when unset.
func (p *Provider) Dimensions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dim()
}

// ModelID identifies the mock.
func (p *Provider) ModelID() string { return "mock-embeddings" }

// deterministicVector spreads the text's bytes over d buckets. Not meaningful
// semantically, only stable.
func deterministicVector(text string, d int) []float32 {
	v := make([]float32, d)
	for i, b := range []byte(text) {
		v[i%d] += float32(b) / 255
	}
	return v
}
