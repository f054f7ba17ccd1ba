// Package embedder defines the embedding collaborator boundary.
//
// The engine stores and scores embeddings but never computes them itself;
// vectors come from a Provider. An OpenAI-backed provider is available for
// connected deployments, and the hash provider keeps the engine fully
// functional offline.
package embedder

import "context"

// Provider converts text into fixed-length embedding vectors.
type Provider interface {
	// Embed converts a text string into an embedding vector.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts multiple texts into embedding vectors,
	// preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the length of vectors produced by this provider.
	Dimensions() int

	// Close releases provider resources.
	Close() error
}
