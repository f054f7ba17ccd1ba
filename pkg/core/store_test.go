package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-ai/engram-go/pkg/core"
	"github.com/engram-ai/engram-go/pkg/memory"
	"github.com/engram-ai/engram-go/pkg/storage"
	"github.com/engram-ai/engram-go/pkg/telemetry"
)

func newTestStore(t *testing.T, opts ...core.StoreOption) *core.Store {
	t.Helper()
	store, err := core.NewStore(core.DefaultConfig("test-agent"), opts...)
	require.NoError(t, err)
	return store
}

func TestAddAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunk, err := store.Add(ctx, "I parked the car on level 3",
		core.WithSource("conversation"),
		core.WithMetadata(map[string]interface{}{"topic": "errands"}),
	)
	require.NoError(t, err)
	require.NotNil(t, chunk)

	assert.NotEmpty(t, chunk.ChunkID)
	assert.Equal(t, memory.InitialQValue, chunk.QValue)
	assert.Equal(t, memory.StageWorking, chunk.Stage)
	assert.NotNil(t, chunk.Embedding)

	got, err := store.Get(chunk.ChunkID)
	require.NoError(t, err)
	assert.Equal(t, chunk.Content, got.Content)
	assert.Equal(t, 1, store.Len())

	_, err = store.Get("chunk_missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAddEmptyContent(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Add(context.Background(), "   ")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestAddKnowledgeGoesSemantic(t *testing.T) {
	store := newTestStore(t)

	chunk, err := store.Add(context.Background(), "water boils at 100 degrees celsius",
		core.WithSourceType("knowledge"))
	require.NoError(t, err)
	assert.Equal(t, memory.StageSemantic, chunk.Stage)
}

func TestKeywordRetrievalRespectsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Three chunks sharing the keyword, limit two.
	for _, content := range []string{
		"the weather in Paris is sunny",
		"weather forecasts are often wrong",
		"she asked about the weather yesterday",
	} {
		_, err := store.Add(ctx, content)
		require.NoError(t, err)
	}

	results, err := store.Retrieve(ctx, "weather", core.StrategyKeyword, 2)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(results), 2)
	assert.NotEmpty(t, results)
	for _, r := range results {
		assert.Contains(t, r.Chunk.Content, "weather")
		assert.Equal(t, core.StrategyKeyword, r.Strategy)
	}
}

func TestKeywordRetrievalNoMatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "completely unrelated content")
	require.NoError(t, err)

	results, err := store.Retrieve(ctx, "zebra", core.StrategyKeyword, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemRLFeedbackBoostsRanking(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Identical content keeps semantic similarity equal, so the learned
	// Q-value decides the order.
	ids := make([]string, 3)
	for i := range ids {
		chunk, err := store.Add(ctx, "remember to water the plants")
		require.NoError(t, err)
		ids[i] = chunk.ChunkID
	}

	boosted := ids[1]
	for i := 0; i < 3; i++ {
		store.ProvideFeedback([]string{boosted}, true)
	}

	results, err := store.Retrieve(ctx, "remember to water the plants", core.StrategyMemRL, 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, boosted, results[0].Chunk.ChunkID)
}

func TestProvideFeedback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunk, err := store.Add(ctx, "some content")
	require.NoError(t, err)

	store.ProvideFeedback([]string{chunk.ChunkID}, true)
	got, err := store.Get(chunk.ChunkID)
	require.NoError(t, err)
	assert.InDelta(t, 0.55, got.QValue, 1e-9)
	assert.Equal(t, 1, got.RetrievalCount)
	assert.Equal(t, 1, got.SuccessCount)

	store.ProvideFeedback([]string{chunk.ChunkID}, false)
	got, err = store.Get(chunk.ChunkID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RetrievalCount)
	assert.Equal(t, 1, got.SuccessCount)

	// Unknown ids are skipped without error.
	store.ProvideFeedback([]string{"chunk_missing"}, true)

	// Each feedback call lands in the replay buffer.
	assert.Equal(t, 3, store.Replay().Len())
}

func TestRemoveIdempotent(t *testing.T) {
	store := newTestStore(t)

	chunk, err := store.Add(context.Background(), "to be removed")
	require.NoError(t, err)

	assert.True(t, store.Remove(chunk.ChunkID))
	assert.False(t, store.Remove(chunk.ChunkID))
	assert.False(t, store.Remove("chunk_missing"))
	assert.Equal(t, 0, store.Len())
}

func TestRecencyOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older, err := store.Add(ctx, "older entry")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	newer, err := store.Add(ctx, "newer entry")
	require.NoError(t, err)

	results, err := store.Retrieve(ctx, "entry", core.StrategyRecency, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	scores := make(map[string]float64, 2)
	for _, r := range results {
		scores[r.Chunk.ChunkID] = r.Score
	}
	assert.GreaterOrEqual(t, scores[newer.ChunkID], scores[older.ChunkID])
}

func TestSemanticRetrieval(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	target, err := store.Add(ctx, "the cat sat on the windowsill")
	require.NoError(t, err)
	_, err = store.Add(ctx, "quarterly revenue exceeded projections")
	require.NoError(t, err)

	results, err := store.Retrieve(ctx, "the cat sat on the windowsill", core.StrategySemantic, 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, target.ChunkID, results[0].Chunk.ChunkID)
}

func TestHybridRetrieval(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	target, err := store.Add(ctx, "booked flights to Tokyo in spring")
	require.NoError(t, err)
	_, err = store.Add(ctx, "the dishwasher needs repair")
	require.NoError(t, err)

	results, err := store.Retrieve(ctx, "flights to Tokyo", core.StrategyHybrid, 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, target.ChunkID, results[0].Chunk.ChunkID)
}

func TestNTSCascadeAnnotatesStage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "paris is the capital of france", core.WithSourceType("knowledge"))
	require.NoError(t, err)

	results, err := store.Retrieve(ctx, "capital of france", core.StrategyNTSCascade, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, memory.StageSemantic, results[0].StageSource)
}

func TestGraphRetrieval(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// The rule-based extractor picks up capitalized names past the
	// sentence start, so Bob and Lyon become graph entities.
	chunk, err := store.Add(ctx, "yesterday Bob traveled to Lyon for a conference")
	require.NoError(t, err)

	results, err := store.Retrieve(ctx, "bob", core.StrategyGraphTopology, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, chunk.ChunkID, results[0].Chunk.ChunkID)

	results, err = store.Retrieve(ctx, "bob", core.StrategyGraphEdgeVoting, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, chunk.ChunkID, results[0].Chunk.ChunkID)

	// Unmatched terms return empty, never an error.
	results, err = store.Retrieve(ctx, "nobody", core.StrategyGraphEdgeVoting, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUnknownStrategy(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Retrieve(context.Background(), "query", core.RetrievalStrategy(99), 5)
	assert.ErrorIs(t, err, core.ErrUnknownStrategy)
}

func TestScoreDistribution(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{
		"alpha keyword one",
		"alpha keyword two",
		"alpha keyword three",
	} {
		_, err := store.Add(ctx, content)
		require.NoError(t, err)
	}

	results, err := store.Retrieve(ctx, "alpha", core.StrategyKeyword, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	dist := results[0].ScoreDistribution
	assert.LessOrEqual(t, dist.Min, dist.Mean)
	assert.LessOrEqual(t, dist.Mean, dist.Max)
	assert.GreaterOrEqual(t, dist.StdDev, 0.0)
}

func TestGetStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty := store.GetStats()
	assert.Equal(t, 0, empty.TotalChunks)
	assert.Equal(t, 0.0, empty.AvgQValue)

	a, err := store.Add(ctx, "first chunk")
	require.NoError(t, err)
	_, err = store.Add(ctx, "second chunk")
	require.NoError(t, err)

	store.ProvideFeedback([]string{a.ChunkID}, true)
	store.ProvideFeedback([]string{a.ChunkID}, false)

	stats := store.GetStats()
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 2, stats.TotalRetrievals)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	// One chunk at 0.495 after up-then-down feedback, one untouched at 0.5.
	assert.InDelta(t, (0.495+0.5)/2, stats.AvgQValue, 1e-9)
}

// failingSink always errors; retrieval must not be affected.
type failingSink struct{}

func (failingSink) Record(telemetry.Event) error     { return errors.New("sink down") }
func (failingSink) ReadRecent(int) []telemetry.Event { return nil }

func TestTelemetryFailureDoesNotAffectResults(t *testing.T) {
	store := newTestStore(t, core.WithTelemetrySink(failingSink{}))
	ctx := context.Background()

	_, err := store.Add(ctx, "resilient content")
	require.NoError(t, err)

	results, err := store.Retrieve(ctx, "resilient", core.StrategyKeyword, 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestTelemetryRecordsEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "observable content")
	require.NoError(t, err)

	_, err = store.Retrieve(ctx, "observable", core.StrategyKeyword, 5)
	require.NoError(t, err)

	events := store.Telemetry().ReadRecent(10)
	require.Len(t, events, 1)
	assert.Equal(t, "KEYWORD", events[0].Strategy)
	assert.Equal(t, 1, events[0].ResultCount)
}

func TestSaveAndLoad(t *testing.T) {
	backend := storage.NewMemoryStore()
	store := newTestStore(t, core.WithSecureStore(backend))
	ctx := context.Background()

	first, err := store.Add(ctx, "persisted memory one")
	require.NoError(t, err)
	_, err = store.Add(ctx, "persisted memory two")
	require.NoError(t, err)
	store.ProvideFeedback([]string{first.ChunkID}, true)

	require.NoError(t, store.Save(ctx))

	restored := newTestStore(t, core.WithSecureStore(backend))
	require.NoError(t, restored.Load(ctx))

	assert.Equal(t, 2, restored.Len())
	got, err := restored.Get(first.ChunkID)
	require.NoError(t, err)
	assert.Equal(t, "persisted memory one", got.Content)
	assert.InDelta(t, 0.55, got.QValue, 1e-9)
}

func TestLoadMissingPayload(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, 0, store.Len())
}

func TestLoadCorruptPayload(t *testing.T) {
	backend := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, backend.Store(ctx, "rag_chunks_test-agent", []byte("{not json")))

	store := newTestStore(t, core.WithSecureStore(backend))
	err := store.Load(ctx)
	assert.ErrorIs(t, err, core.ErrSnapshotCorrupt)
}

func TestClear(t *testing.T) {
	backend := storage.NewMemoryStore()
	store := newTestStore(t, core.WithSecureStore(backend))
	ctx := context.Background()

	_, err := store.Add(ctx, "ephemeral")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx))
	require.NoError(t, store.Clear(ctx))

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, store.Graph().EntityCount())

	// The persisted payload is gone too, so a reload stays empty.
	require.NoError(t, store.Load(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestClearConcurrentWithGraphReads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "alice met bob in paris")
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				store.Graph().EntityCount()
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if err := store.Clear(ctx); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	time.Sleep(20 * time.Millisecond)
	close(done)
	wg.Wait()

	assert.Equal(t, 0, store.Len())
}

func TestParseRetrievalStrategy(t *testing.T) {
	strategy, err := core.ParseRetrievalStrategy("memrl")
	require.NoError(t, err)
	assert.Equal(t, core.StrategyMemRL, strategy)

	strategy, err = core.ParseRetrievalStrategy("NTS_CASCADE")
	require.NoError(t, err)
	assert.Equal(t, core.StrategyNTSCascade, strategy)

	_, err = core.ParseRetrievalStrategy("bogus")
	assert.ErrorIs(t, err, core.ErrUnknownStrategy)
}
