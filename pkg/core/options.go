package core

import (
	"github.com/engram-ai/engram-go/pkg/memory"
)

// AddOption is a function type for configuring Add operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type AddOption func(*AddOptions)

// AddOptions contains configuration options for Add operations.
type AddOptions struct {
	// Source identifies where the content came from.
	Source string

	// SourceType classifies the source ("memory", "knowledge",
	// "conversation", "document"). It drives stage assignment.
	SourceType string

	// Metadata contains additional metadata about the chunk.
	Metadata map[string]interface{}

	// Embedding is a precomputed embedding vector. When set, the store
	// skips the embedding provider for this chunk.
	Embedding []float64

	// Importance is the caller's importance estimate in [0,1], used by
	// stage assignment. Default: 0.5
	Importance float64

	// Stage forces a lifecycle stage, bypassing stage assignment.
	Stage *memory.Stage
}

// defaultAddOptions returns the baseline options applied before the
// caller's functional options.
func defaultAddOptions() *AddOptions {
	return &AddOptions{
		Source:     "unknown",
		SourceType: "conversation",
		Importance: 0.5,
	}
}

// WithSource sets the chunk's source identifier.
//
// Example:
//
//	chunk, _ := store.Add(ctx, "content", core.WithSource("calendar"))
func WithSource(source string) AddOption {
	return func(opts *AddOptions) {
		opts.Source = source
	}
}

// WithSourceType sets the chunk's source type, which drives stage
// assignment ("knowledge" content always lands in semantic memory).
//
// Example:
//
//	chunk, _ := store.Add(ctx, "water boils at 100C", core.WithSourceType("knowledge"))
func WithSourceType(sourceType string) AddOption {
	return func(opts *AddOptions) {
		opts.SourceType = sourceType
	}
}

// WithMetadata sets additional metadata for the chunk.
//
// Example:
//
//	chunk, _ := store.Add(ctx, "content", core.WithMetadata(map[string]interface{}{
//	    "topic": "travel",
//	}))
func WithMetadata(metadata map[string]interface{}) AddOption {
	return func(opts *AddOptions) {
		opts.Metadata = metadata
	}
}

// WithEmbedding supplies a precomputed embedding vector, skipping the
// embedding provider for this chunk. The store takes ownership of the
// slice.
func WithEmbedding(embedding []float64) AddOption {
	return func(opts *AddOptions) {
		opts.Embedding = embedding
	}
}

// WithImportance sets the caller's importance estimate in [0,1] for stage
// assignment. Values outside the range are clamped.
func WithImportance(importance float64) AddOption {
	return func(opts *AddOptions) {
		if importance < 0 {
			importance = 0
		}
		if importance > 1 {
			importance = 1
		}
		opts.Importance = importance
	}
}

// WithStage forces the chunk into a specific lifecycle stage, bypassing
// automatic stage assignment.
func WithStage(stage memory.Stage) AddOption {
	return func(opts *AddOptions) {
		opts.Stage = &stage
	}
}
