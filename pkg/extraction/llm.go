package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/engram-ai/engram-go/pkg/llm"
)

// LLMExtractor extracts entities and relationships using a language model.
//
// The model is asked for a strict JSON object; responses that cannot be
// parsed produce an empty Extraction plus an error, which callers treat as
// "no entities" rather than a retrieval failure.
type LLMExtractor struct {
	llm llm.Provider
}

// NewLLMExtractor creates an extractor backed by the given provider.
func NewLLMExtractor(provider llm.Provider) *LLMExtractor {
	return &LLMExtractor{llm: provider}
}

const extractionSystemPrompt = `You extract entities and relationships from text.
Return ONLY a JSON object of the form:
{"entities":[{"name":"...","type":"...","description":"..."}],
 "relationships":[{"from":"...","to":"...","label":"...","weight":0.0}]}
Weights are in [0,1]. Use lowercase types like "person", "place", "concept".`

// Extract asks the model for entities and relationships in the text.
func (e *LLMExtractor) Extract(ctx context.Context, text string) (Extraction, error) {
	messages := []llm.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Text:\n%s", text)},
	}

	response, err := e.llm.GenerateWithMessages(ctx, messages, llm.WithTemperature(0.0))
	if err != nil {
		return Extraction{}, fmt.Errorf("extraction: %w", err)
	}

	return parseExtractionResponse(response)
}

// parseExtractionResponse pulls the first JSON object out of a model
// response and decodes it. Weights are clamped into [0,1].
func parseExtractionResponse(response string) (Extraction, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return Extraction{}, fmt.Errorf("extraction: no JSON object in response")
	}

	var result Extraction
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return Extraction{}, fmt.Errorf("extraction: %w", err)
	}

	for i := range result.Relationships {
		if result.Relationships[i].Weight < 0 {
			result.Relationships[i].Weight = 0
		}
		if result.Relationships[i].Weight > 1 {
			result.Relationships[i].Weight = 1
		}
	}

	return result, nil
}
