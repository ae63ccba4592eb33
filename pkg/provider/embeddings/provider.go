// Package embeddings defines the Provider interface for vector embedding
// backends.
//
// An embeddings provider maps text to dense float32 vectors. The journal
// store uses these vectors for semantic similarity search over past entries,
// so a learner can ask "when did I write about this before?".
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by one Provider instance share the dimensionality
// reported by Dimensions. Vectors from different providers or models must not
// be mixed in the same similarity computation.
type Provider interface {
	// Embed computes the embedding vector for a single text. The returned
	// slice has length Dimensions(). Text is passed through verbatim; any
	// model-specific prefixing is the caller's concern.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes vectors for all texts in one provider call. The
	// i-th result corresponds to texts[i]. On error no partial results are
	// returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of every vector this provider
	// produces, determined by the underlying model.
	Dimensions() int

	// ModelID returns the model identifier (e.g. "text-embedding-3-small")
	// for logging and consistency checks.
	ModelID() string
}
