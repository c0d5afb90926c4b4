// Package embed provides text embeddings for the category similarity
// index.
package embed

import "context"

// Embedder turns text into a dense vector. Implementations may block on a
// network round-trip.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Func adapts a plain function to the Embedder interface.
type Func func(ctx context.Context, text string) ([]float32, error)

// Embed implements Embedder.
func (f Func) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}
