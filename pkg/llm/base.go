// Package llm defines the language-model collaborator boundary.
//
// The memory engine itself never performs inference; the only consumer of
// this interface is the entity extraction collaborator, which may use a
// model to pull entities and relationships out of raw text. Extraction
// failures degrade to "no entities" at the store boundary, so providers can
// be unreliable without affecting retrieval.
package llm

import "context"

// Provider generates text from prompts or conversation history.
type Provider interface {
	// Generate generates text from a single prompt.
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error)

	// GenerateWithMessages generates text from a conversation history
	// (system, user, assistant messages).
	GenerateWithMessages(ctx context.Context, messages []Message, opts ...GenerateOption) (string, error)

	// Close releases provider resources.
	Close() error
}

// Message is a single message in a conversation.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// GenerateOptions contains options for text generation.
type GenerateOptions struct {
	// Temperature controls randomness (0.0-2.0).
	Temperature float64

	// MaxTokens limits the response length in tokens.
	MaxTokens int
}

// GenerateOption configures GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.Temperature = temp
	}
}

// WithMaxTokens limits the maximum number of tokens in the response.
func WithMaxTokens(n int) GenerateOption {
	return func(opts *GenerateOptions) {
		opts.MaxTokens = n
	}
}

// ApplyGenerateOptions applies the given options over defaults.
func ApplyGenerateOptions(opts []GenerateOption) *GenerateOptions {
	options := &GenerateOptions{
		Temperature: 0.2,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
