// Package scoring implements neural temporal scoring: stage assignment at
// ingestion and multi-signal retrieval scoring.
//
// A chunk's retrieval score combines four signals:
//   - utility: the learned Q-value blended with the observed success rate
//   - recency: exponential decay of age relative to the stage's TTL
//   - semantic: the caller-supplied embedding similarity
//   - novelty: the distinct-token ratio of the chunk's content
//
// The aggregate is a weighted combination normalized into [0,1].
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/engram-ai/engram-go/pkg/memory"
)

// Weights configures the relative contribution of each scoring signal.
// The weights should sum to 1.0; Normalize rescales them if they do not.
type Weights struct {
	Utility  float64
	Recency  float64
	Semantic float64
	Novelty  float64
}

// DefaultWeights returns the engine's default signal weighting.
func DefaultWeights() Weights {
	return Weights{
		Utility:  0.35,
		Recency:  0.25,
		Semantic: 0.25,
		Novelty:  0.15,
	}
}

// Normalize rescales the weights to sum to 1.0. All-zero weights are
// replaced with the defaults.
func (w Weights) Normalize() Weights {
	sum := w.Utility + w.Recency + w.Semantic + w.Novelty
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Utility:  w.Utility / sum,
		Recency:  w.Recency / sum,
		Semantic: w.Semantic / sum,
		Novelty:  w.Novelty / sum,
	}
}

// Scores holds the per-signal and aggregate retrieval scores of a chunk.
type Scores struct {
	Utility   float64
	Recency   float64
	Novelty   float64
	Aggregate float64
}

// episodicImportanceThreshold is the minimum importance for urgent content
// to be promoted to the episodic stage at ingestion.
const episodicImportanceThreshold = 0.8

// urgencyVocabulary marks content whose loss would be costly; combined with
// high importance it promotes the chunk to the episodic stage.
var urgencyVocabulary = []string{
	"urgent", "emergency", "critical", "immediately", "asap",
	"danger", "warning", "deadline", "remember this", "do not forget",
}

// Engine computes stage assignments and retrieval scores.
type Engine struct {
	weights Weights
}

// NewEngine creates a scoring engine with the given weights.
func NewEngine(weights Weights) *Engine {
	return &Engine{weights: weights.Normalize()}
}

// Weights returns the engine's normalized signal weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// AssignStage decides a chunk's memory stage at ingestion.
//
// Explicit knowledge content is always semantic. Urgent content with high
// importance is promoted to episodic. Otherwise the stage follows the
// source type's default, working memory if the source type is unknown.
func (e *Engine) AssignStage(content, sourceType string, baseImportance float64) memory.Stage {
	if sourceType == "knowledge" {
		return memory.StageSemantic
	}

	if baseImportance >= episodicImportanceThreshold && containsUrgency(content) {
		return memory.StageEpisodic
	}

	switch sourceType {
	case "sensor", "observation":
		return memory.StageSensory
	case "document":
		return memory.StageEpisodic
	default:
		return memory.StageWorking
	}
}

// containsUrgency reports whether content matches the urgency vocabulary.
func containsUrgency(content string) bool {
	lower := strings.ToLower(content)
	for _, term := range urgencyVocabulary {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// ScoreForRetrieval computes all scoring signals for a chunk.
//
// semanticSimilarity is the caller-computed embedding similarity for the
// active query (pass 0 when unavailable); it is clamped into [0,1] before
// weighting.
func (e *Engine) ScoreForRetrieval(chunk *memory.Chunk, semanticSimilarity float64, now time.Time) Scores {
	utility := e.scoreUtility(chunk)
	recency := e.scoreRecency(chunk, now)
	novelty := EstimateNovelty(chunk.Content)
	semantic := clamp01(semanticSimilarity)

	aggregate := e.weights.Utility*utility +
		e.weights.Recency*recency +
		e.weights.Semantic*semantic +
		e.weights.Novelty*novelty

	return Scores{
		Utility:   utility,
		Recency:   recency,
		Novelty:   novelty,
		Aggregate: clamp01(aggregate),
	}
}

// scoreUtility blends the learned Q-value with the observed success rate.
// Chunks without feedback fall back to the Q-value alone.
func (e *Engine) scoreUtility(chunk *memory.Chunk) float64 {
	if chunk.RetrievalCount == 0 {
		return chunk.QValue
	}
	return clamp01(0.7*chunk.QValue + 0.3*chunk.SuccessRate())
}

// scoreRecency decays exponentially with age relative to the stage TTL, so
// a fresh chunk scores near 1 and a chunk at its TTL scores about 0.37.
// Longer-TTL stages decay slower for the same age.
func (e *Engine) scoreRecency(chunk *memory.Chunk, now time.Time) float64 {
	ttl := chunk.Stage.DefaultTTL()
	if ttl <= 0 {
		return 0
	}
	age := chunk.Age(now)
	if age < 0 {
		age = 0
	}
	return math.Exp(-age.Seconds() / ttl.Seconds())
}

// EstimateNovelty scores the token diversity of content as the ratio of
// distinct tokens to total tokens. Repetitive text scores strictly lower
// than varied text of the same length; empty content scores 0.
func EstimateNovelty(content string) float64 {
	tokens := strings.Fields(strings.ToLower(content))
	if len(tokens) == 0 {
		return 0
	}

	distinct := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		distinct[token] = true
	}

	return float64(len(distinct)) / float64(len(tokens))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
