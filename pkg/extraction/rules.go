package extraction

import (
	"context"
	"strings"
	"unicode"
)

// RuleBased is a heuristic extractor requiring no model.
//
// It treats capitalized tokens that are not sentence-initial (and not common
// stop words) as candidate entities, and links entities co-occurring in the
// same text with a weak "mentions_with" relationship. Crude but
// deterministic, which is what the on-device default needs.
type RuleBased struct{}

// NewRuleBased creates a rule-based extractor.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "if": true, "then": true, "i": true, "it": true,
	"he": true, "she": true, "they": true, "we": true, "you": true,
	"this": true, "that": true, "my": true, "his": true, "her": true,
}

// Extract finds capitalized candidate entities and pairwise co-occurrence
// relationships. Never fails.
func (e *RuleBased) Extract(_ context.Context, text string) (Extraction, error) {
	var result Extraction
	seen := make(map[string]bool)

	for _, sentence := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	}) {
		tokens := strings.Fields(sentence)
		for i, token := range tokens {
			word := strings.TrimFunc(token, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			})
			if len(word) < 2 {
				continue
			}
			// Sentence-initial capitalization carries no signal.
			if i == 0 {
				continue
			}
			if !unicode.IsUpper([]rune(word)[0]) {
				continue
			}
			if stopWords[strings.ToLower(word)] {
				continue
			}

			key := strings.ToLower(word)
			if seen[key] {
				continue
			}
			seen[key] = true
			result.Entities = append(result.Entities, Entity{
				Name: word,
				Type: "concept",
			})
		}
	}

	// Link co-occurring entities pairwise with a weak edge.
	for i := 0; i < len(result.Entities); i++ {
		for j := i + 1; j < len(result.Entities); j++ {
			result.Relationships = append(result.Relationships, Relationship{
				From:   result.Entities[i].Name,
				To:     result.Entities[j].Name,
				Label:  "mentions_with",
				Weight: 0.3,
			})
		}
	}

	return result, nil
}
