package scoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/engram-ai/engram-go/pkg/memory"
	"github.com/engram-ai/engram-go/pkg/scoring"
)

func TestAssignStageKnowledge(t *testing.T) {
	engine := scoring.NewEngine(scoring.DefaultWeights())

	// Knowledge always lands in semantic memory regardless of importance.
	assert.Equal(t, memory.StageSemantic, engine.AssignStage("the capital of France is Paris", "knowledge", 0.1))
	assert.Equal(t, memory.StageSemantic, engine.AssignStage("urgent fact", "knowledge", 1.0))
}

func TestAssignStageUrgency(t *testing.T) {
	engine := scoring.NewEngine(scoring.DefaultWeights())

	// Urgency vocabulary plus high importance promotes to episodic.
	stage := engine.AssignStage("URGENT: the deploy deadline moved to Friday", "conversation", 0.9)
	assert.Equal(t, memory.StageEpisodic, stage)

	// Urgency without enough importance stays in working memory.
	stage = engine.AssignStage("urgent but trivial", "conversation", 0.3)
	assert.Equal(t, memory.StageWorking, stage)

	// High importance without urgency vocabulary stays in working memory.
	stage = engine.AssignStage("the weather is pleasant today", "conversation", 0.95)
	assert.Equal(t, memory.StageWorking, stage)
}

func TestAssignStageSourceTypeDefaults(t *testing.T) {
	engine := scoring.NewEngine(scoring.DefaultWeights())

	assert.Equal(t, memory.StageSensory, engine.AssignStage("motion detected", "sensor", 0.5))
	assert.Equal(t, memory.StageSensory, engine.AssignStage("user looked at screen", "observation", 0.5))
	assert.Equal(t, memory.StageEpisodic, engine.AssignStage("quarterly report contents", "document", 0.5))
	assert.Equal(t, memory.StageWorking, engine.AssignStage("hello there", "conversation", 0.5))
	assert.Equal(t, memory.StageWorking, engine.AssignStage("hello there", "", 0.5))
}

func TestEstimateNovelty(t *testing.T) {
	// Empty content has no information.
	assert.Equal(t, 0.0, scoring.EstimateNovelty(""))
	assert.Equal(t, 0.0, scoring.EstimateNovelty("   "))

	// All-distinct tokens score 1.
	assert.Equal(t, 1.0, scoring.EstimateNovelty("each word appears once"))

	// Repetitive content scores strictly lower than diverse content.
	repetitive := scoring.EstimateNovelty("again again again again")
	diverse := scoring.EstimateNovelty("four entirely different words")
	assert.Less(t, repetitive, diverse)
	assert.InDelta(t, 0.25, repetitive, 1e-9)

	// Tokenization is case-insensitive.
	assert.InDelta(t, 0.5, scoring.EstimateNovelty("Hello hello"), 1e-9)
}

func TestScoreForRetrievalRecencyDecay(t *testing.T) {
	engine := scoring.NewEngine(scoring.DefaultWeights())
	now := time.Now()

	fresh := memory.NewChunk("c1", "some varied content here", "test", "conversation")
	fresh.CreatedAt = now
	old := memory.NewChunk("c2", "some varied content here", "test", "conversation")
	old.CreatedAt = now.Add(-memory.StageWorking.DefaultTTL())

	freshScores := engine.ScoreForRetrieval(fresh, 0.5, now)
	oldScores := engine.ScoreForRetrieval(old, 0.5, now)

	assert.Greater(t, freshScores.Recency, oldScores.Recency)
	assert.Greater(t, freshScores.Aggregate, oldScores.Aggregate)
	// A chunk exactly at its TTL decays to about e^-1.
	assert.InDelta(t, 0.3679, oldScores.Recency, 0.01)
}

func TestScoreForRetrievalUtility(t *testing.T) {
	engine := scoring.NewEngine(scoring.DefaultWeights())
	now := time.Now()

	neutral := memory.NewChunk("c1", "alpha beta gamma", "test", "conversation")
	proven := memory.NewChunk("c2", "alpha beta gamma", "test", "conversation")
	for i := 0; i < 10; i++ {
		proven.UpdateQValue(true, memory.DefaultLearningRate)
	}

	neutralScores := engine.ScoreForRetrieval(neutral, 0.5, now)
	provenScores := engine.ScoreForRetrieval(proven, 0.5, now)

	// A chunk with consistent positive feedback outscores the neutral prior.
	assert.Greater(t, provenScores.Utility, neutralScores.Utility)
	assert.Equal(t, memory.InitialQValue, neutralScores.Utility)
}

func TestScoreForRetrievalBounds(t *testing.T) {
	engine := scoring.NewEngine(scoring.DefaultWeights())
	now := time.Now()
	chunk := memory.NewChunk("c1", "alpha beta gamma delta", "test", "conversation")

	// Out-of-range similarity is clamped before weighting.
	low := engine.ScoreForRetrieval(chunk, -3.0, now)
	high := engine.ScoreForRetrieval(chunk, 3.0, now)

	assert.GreaterOrEqual(t, low.Aggregate, 0.0)
	assert.LessOrEqual(t, high.Aggregate, 1.0)
	assert.Greater(t, high.Aggregate, low.Aggregate)
}

func TestWeightsNormalize(t *testing.T) {
	w := scoring.Weights{Utility: 2, Recency: 1, Semantic: 1, Novelty: 0}.Normalize()
	assert.InDelta(t, 0.5, w.Utility, 1e-9)
	assert.InDelta(t, 0.25, w.Recency, 1e-9)
	assert.InDelta(t, 0.25, w.Semantic, 1e-9)
	assert.InDelta(t, 0.0, w.Novelty, 1e-9)

	// All-zero weights fall back to the defaults.
	zero := scoring.Weights{}.Normalize()
	assert.Equal(t, scoring.DefaultWeights(), zero)
}
