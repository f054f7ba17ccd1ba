// Package memory defines the fundamental record types of the engine:
// the text chunk and its lifecycle stage.
package memory

import (
	"time"

	"github.com/engram-ai/engram-go/pkg/quantize"
)

// Chunk is the atomic unit of stored memory.
//
// A chunk owns its embedding exclusively: callers hand the vector over on
// ingestion and must not mutate it afterwards. The Q-value is a
// reinforcement-learned estimate of retrieval utility, updated by feedback
// and always kept in [0,1].
type Chunk struct {
	// ChunkID is the unique, immutable chunk identifier.
	ChunkID string `json:"chunk_id"`

	// Content is the text content of the chunk.
	Content string `json:"content"`

	// Source identifies where the content came from.
	Source string `json:"source"`

	// SourceType classifies the source ("memory", "knowledge",
	// "conversation", "document").
	SourceType string `json:"source_type"`

	// CreatedAt is when the chunk was ingested.
	CreatedAt time.Time `json:"created_at"`

	// TokenCount is the estimated token count of Content.
	TokenCount int `json:"token_count"`

	// Embedding is the optional embedding vector, owned by the chunk.
	// Omitted when the store quantizes embeddings.
	Embedding []float64 `json:"embedding,omitempty"`

	// Quantized is the 8-bit compressed embedding, set when the store is
	// configured to quantize. At most one of Embedding/Quantized is set.
	Quantized *quantize.QuantizedVector `json:"quantized,omitempty"`

	// Metadata holds additional string-keyed attributes.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Stage is the chunk's memory lifecycle stage.
	Stage Stage `json:"stage"`

	// QValue is the learned retrieval utility in [0,1]. New chunks start
	// at 0.5.
	QValue float64 `json:"q_value"`

	// RetrievalCount is how often feedback has been recorded for the chunk.
	RetrievalCount int `json:"retrieval_count"`

	// SuccessCount is how often recorded feedback was positive.
	// Always <= RetrievalCount.
	SuccessCount int `json:"success_count"`
}

// NewChunk creates a chunk with the neutral Q-value prior, a fresh
// timestamp, an estimated token count, and the working-memory stage.
func NewChunk(chunkID, content, source, sourceType string) *Chunk {
	return &Chunk{
		ChunkID:    chunkID,
		Content:    content,
		Source:     source,
		SourceType: sourceType,
		CreatedAt:  time.Now(),
		TokenCount: EstimateTokens(content),
		Stage:      StageWorking,
		QValue:     InitialQValue,
	}
}

// InitialQValue is the Q-value assigned to newly ingested chunks.
const InitialQValue = 0.5

// DefaultLearningRate is the step size alpha for Q-value feedback updates.
const DefaultLearningRate = 0.1

// UpdateQValue applies one reinforcement feedback step:
//
//	Q <- Q + alpha * (reward - Q)
//
// with reward 1.0 on success and 0.0 on failure, clamped into [0,1].
// RetrievalCount is always incremented; SuccessCount only on success.
func (c *Chunk) UpdateQValue(success bool, alpha float64) {
	c.RetrievalCount++
	reward := 0.0
	if success {
		c.SuccessCount++
		reward = 1.0
	}

	c.QValue += alpha * (reward - c.QValue)
	if c.QValue < 0 {
		c.QValue = 0
	}
	if c.QValue > 1 {
		c.QValue = 1
	}
}

// SuccessRate returns SuccessCount/RetrievalCount, or 0 for chunks that
// have never received feedback.
func (c *Chunk) SuccessRate() float64 {
	if c.RetrievalCount == 0 {
		return 0
	}
	return float64(c.SuccessCount) / float64(c.RetrievalCount)
}

// Age returns the elapsed time since ingestion.
func (c *Chunk) Age(now time.Time) time.Duration {
	return now.Sub(c.CreatedAt)
}

// Expired reports whether the chunk has outlived its stage's default TTL.
func (c *Chunk) Expired(now time.Time) bool {
	return c.Age(now) > c.Stage.DefaultTTL()
}

// EstimateTokens estimates the token count of text, roughly four
// characters per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Clone returns a deep copy of the chunk. Embeddings and metadata are
// copied so the clone can be scored or serialized outside the store's lock.
func (c *Chunk) Clone() *Chunk {
	clone := *c

	if c.Embedding != nil {
		clone.Embedding = make([]float64, len(c.Embedding))
		copy(clone.Embedding, c.Embedding)
	}
	if c.Quantized != nil {
		q := quantize.QuantizedVector{
			Data:     make([]byte, len(c.Quantized.Data)),
			ScaleMin: c.Quantized.ScaleMin,
			ScaleMax: c.Quantized.ScaleMax,
		}
		copy(q.Data, c.Quantized.Data)
		clone.Quantized = &q
	}
	if c.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(c.Metadata))
		for k, v := range c.Metadata {
			clone.Metadata[k] = v
		}
	}

	return &clone
}
