package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// DefaultHashDimensions is the vector length of the hash embedder.
const DefaultHashDimensions = 100

// HashProvider is a deterministic, dependency-free embedding provider.
//
// It hashes lowercased tokens into a fixed number of buckets and L2-normalizes
// the resulting term-frequency vector. The embeddings are crude compared to a
// learned encoder, but they are stable across runs, require no network, and
// preserve enough lexical overlap for on-device similarity ranking.
type HashProvider struct {
	dimensions int
}

// NewHashProvider creates a hash embedder with DefaultHashDimensions.
func NewHashProvider() *HashProvider {
	return NewHashProviderWithDimensions(DefaultHashDimensions)
}

// NewHashProviderWithDimensions creates a hash embedder with a custom vector
// length. Non-positive values fall back to DefaultHashDimensions.
func NewHashProviderWithDimensions(dimensions int) *HashProvider {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashProvider{dimensions: dimensions}
}

// Embed converts text into a normalized hashed bag-of-words vector.
// Empty or whitespace-only text yields a zero vector.
func (p *HashProvider) Embed(_ context.Context, text string) ([]float64, error) {
	vector := make([]float64, p.dimensions)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vector[int(h.Sum32())%p.dimensions]++
	}

	var norm float64
	for _, v := range vector {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vector {
			vector[i] /= norm
		}
	}

	return vector, nil
}

// EmbedBatch embeds each text in order.
func (p *HashProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	embeddings := make([][]float64, len(texts))
	for i, text := range texts {
		embedding, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the vector length.
func (p *HashProvider) Dimensions() int {
	return p.dimensions
}

// Close is a no-op.
func (p *HashProvider) Close() error { return nil }
