// Package extraction defines the entity extraction collaborator boundary.
//
// The knowledge graph never performs natural-language extraction itself; it
// consumes the output of an Extractor. A rule-based extractor keeps the
// engine self-contained, and an LLM-backed extractor is available when a
// model is configured. Extraction failures degrade to "no entities" at the
// retrieval store boundary.
package extraction

import "context"

// Entity is a named entity found in text.
type Entity struct {
	// Name is the entity's surface form.
	Name string `json:"name"`

	// Type classifies the entity ("person", "place", "concept", ...).
	Type string `json:"type"`

	// Description is an optional short description.
	Description string `json:"description,omitempty"`
}

// Relationship is a typed link between two entities found in text.
type Relationship struct {
	// From is the name of the source entity.
	From string `json:"from"`

	// To is the name of the target entity.
	To string `json:"to"`

	// Label describes the relationship ("works_at", "mentions", ...).
	Label string `json:"label"`

	// Weight is the relationship strength in [0,1].
	Weight float64 `json:"weight"`
}

// Extraction is the output of an Extractor for one piece of text.
type Extraction struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// Extractor pulls entities and relationships out of raw text.
type Extractor interface {
	Extract(ctx context.Context, text string) (Extraction, error)
}
