package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/engram-ai/engram-go/pkg/memory"
)

// RetrievalStrategy selects the ranking function used by Store.Retrieve.
//
// Each strategy is a pure scoring function over the current chunk set;
// the store dispatches on the enum value and shares all the surrounding
// machinery (locking, limits, telemetry, result assembly).
type RetrievalStrategy int

const (
	// StrategyKeyword ranks by case-insensitive substring match strength.
	StrategyKeyword RetrievalStrategy = iota

	// StrategyRecency ranks by age; newer chunks never score below older ones.
	StrategyRecency

	// StrategySemantic ranks by cosine similarity between the query
	// embedding and each chunk's embedding.
	StrategySemantic

	// StrategyHybrid blends semantic, keyword, and recency scores.
	StrategyHybrid

	// StrategyMemRL re-ranks semantic candidates by the reinforcement
	// learned Q-value.
	StrategyMemRL

	// StrategyNTSCascade ranks by the scoring engine's aggregate score
	// and annotates results with the originating memory stage.
	StrategyNTSCascade

	// StrategyGraphTopology delegates to knowledge graph topology retrieval.
	StrategyGraphTopology

	// StrategyGraphEdgeVoting delegates to knowledge graph edge voting.
	StrategyGraphEdgeVoting
)

var strategyNames = map[RetrievalStrategy]string{
	StrategyKeyword:         "KEYWORD",
	StrategyRecency:         "RECENCY",
	StrategySemantic:        "SEMANTIC",
	StrategyHybrid:          "HYBRID",
	StrategyMemRL:           "MEMRL",
	StrategyNTSCascade:      "NTS_CASCADE",
	StrategyGraphTopology:   "GRAPH_TOPOLOGY",
	StrategyGraphEdgeVoting: "GRAPH_EDGE_VOTING",
}

// String returns the strategy's canonical name.
func (s RetrievalStrategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// ParseRetrievalStrategy parses a canonical strategy name
// (case-insensitive). Unknown names return ErrUnknownStrategy.
func ParseRetrievalStrategy(name string) (RetrievalStrategy, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for strategy, strategyName := range strategyNames {
		if strategyName == upper {
			return strategy, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// ScoreDistribution summarizes the score spread of one retrieval's
// results, useful for threshold tuning and telemetry.
type ScoreDistribution struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// computeScoreDistribution summarizes the given scores. An empty slice
// yields the zero distribution.
func computeScoreDistribution(scores []float64) ScoreDistribution {
	if len(scores) == 0 {
		return ScoreDistribution{}
	}

	dist := ScoreDistribution{Min: scores[0], Max: scores[0]}
	sum := 0.0
	for _, s := range scores {
		if s < dist.Min {
			dist.Min = s
		}
		if s > dist.Max {
			dist.Max = s
		}
		sum += s
	}
	dist.Mean = sum / float64(len(scores))

	variance := 0.0
	for _, s := range scores {
		d := s - dist.Mean
		variance += d * d
	}
	dist.StdDev = math.Sqrt(variance / float64(len(scores)))

	return dist
}

// RetrievalResult is one ranked chunk returned by Store.Retrieve.
type RetrievalResult struct {
	// Chunk is a copy of the matched chunk; mutating it does not affect
	// the store.
	Chunk *memory.Chunk `json:"chunk"`

	// Score is the strategy-specific ranking score.
	Score float64 `json:"score"`

	// Strategy is the strategy that produced this result.
	Strategy RetrievalStrategy `json:"strategy"`

	// ScoreDistribution summarizes the scores of the whole result set
	// this result belongs to.
	ScoreDistribution ScoreDistribution `json:"score_distribution"`

	// StageSource is the memory stage the chunk was retrieved from.
	StageSource memory.Stage `json:"stage_source"`
}
