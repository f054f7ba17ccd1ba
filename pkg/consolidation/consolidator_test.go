package consolidation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-ai/engram-go/pkg/consolidation"
	"github.com/engram-ai/engram-go/pkg/core"
	"github.com/engram-ai/engram-go/pkg/memory"
	"github.com/engram-ai/engram-go/pkg/storage"
)

func addChunkWithQ(t *testing.T, store *core.Store, content string, qValue float64) string {
	t.Helper()
	chunk, err := store.Add(context.Background(), content)
	require.NoError(t, err)
	require.True(t, store.SetQValue(chunk.ChunkID, qValue))
	return chunk.ChunkID
}

func TestConsolidateFivePhases(t *testing.T) {
	store, err := core.NewStore(core.DefaultConfig("test-agent"))
	require.NoError(t, err)
	ctx := context.Background()

	strong := addChunkWithQ(t, store, "alpha bravo charlie", 0.9)
	weak := addChunkWithQ(t, store, "delta echo foxtrot", 0.3)
	doomed := addChunkWithQ(t, store, "golf hotel india", 0.1)
	twinA := addChunkWithQ(t, store, "juliet kilo lima", 0.5)
	twinB := addChunkWithQ(t, store, "juliet kilo lima", 0.5)

	backend := storage.NewMemoryStore()
	c := consolidation.NewConsolidator(
		consolidation.DefaultTunableParams(),
		consolidation.NewOptimizer(42),
		backend,
	)

	result := c.Consolidate(ctx, store)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Strengthened)
	assert.Equal(t, 1, result.Weakened)
	assert.Equal(t, 1, result.Forgotten)
	assert.GreaterOrEqual(t, result.Connections, 1)
	assert.GreaterOrEqual(t, result.DurationMs, 0.0)

	got, err := store.Get(strong)
	require.NoError(t, err)
	assert.Equal(t, memory.StageEpisodic, got.Stage)

	got, err = store.Get(weak)
	require.NoError(t, err)
	assert.Equal(t, memory.StageSensory, got.Stage)

	_, err = store.Get(doomed)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// The identical twins got an association edge.
	assert.Equal(t, 4, store.Len())
	assert.GreaterOrEqual(t, store.Graph().GetEntityDegree(twinA), 1)
	assert.GreaterOrEqual(t, store.Graph().GetEntityDegree(twinB), 1)

	// Cumulative stats were persisted.
	data, err := backend.Retrieve(ctx, "consolidation_stats")
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Equal(t, 1, c.Stats().TotalRuns)
}

func TestConsolidateRespectsMaxForgetPerCycle(t *testing.T) {
	store, err := core.NewStore(core.DefaultConfig("test-agent"))
	require.NoError(t, err)

	contents := []string{"one red", "two blue", "three green", "four white", "five black"}
	for _, content := range contents {
		addChunkWithQ(t, store, content, 0.05)
	}

	params := consolidation.DefaultTunableParams()
	params.MaxForgetPerCycle = 2
	c := consolidation.NewConsolidator(params, consolidation.NewOptimizer(1), nil)

	result := c.Consolidate(context.Background(), store)

	assert.Equal(t, 2, result.Forgotten)
	assert.Equal(t, 3, store.Len())
}

func TestConsolidateForgetsWorstFirst(t *testing.T) {
	store, err := core.NewStore(core.DefaultConfig("test-agent"))
	require.NoError(t, err)

	worst := addChunkWithQ(t, store, "scrap memory", 0.02)
	better := addChunkWithQ(t, store, "marginal memory", 0.15)

	params := consolidation.DefaultTunableParams()
	params.MaxForgetPerCycle = 1
	c := consolidation.NewConsolidator(params, consolidation.NewOptimizer(1), nil)

	c.Consolidate(context.Background(), store)

	_, err = store.Get(worst)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = store.Get(better)
	assert.NoError(t, err)
}

func TestConsolidateEmptyStore(t *testing.T) {
	store, err := core.NewStore(core.DefaultConfig("test-agent"))
	require.NoError(t, err)

	c := consolidation.NewConsolidator(consolidation.DefaultTunableParams(), consolidation.NewOptimizer(1), nil)
	result := c.Consolidate(context.Background(), store)

	assert.True(t, result.Success)
	assert.Zero(t, result.Strengthened)
	assert.Zero(t, result.Forgotten)
}

func TestIsConsolidationTime(t *testing.T) {
	c := consolidation.NewConsolidator(consolidation.DefaultTunableParams(), nil, nil)

	threeAM := time.Date(2026, 8, 28, 3, 0, 0, 0, time.Local)
	noon := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)

	assert.True(t, c.IsConsolidationTime(threeAM, false))
	assert.False(t, c.IsConsolidationTime(noon, false))
	// An idle signal bypasses the quiet-hours gate.
	assert.True(t, c.IsConsolidationTime(noon, true))
}

func TestLoadStatsRestoresParams(t *testing.T) {
	store, err := core.NewStore(core.DefaultConfig("test-agent"))
	require.NoError(t, err)
	addChunkWithQ(t, store, "persistent memory", 0.5)

	backend := storage.NewMemoryStore()
	ctx := context.Background()

	first := consolidation.NewConsolidator(consolidation.DefaultTunableParams(), consolidation.NewOptimizer(7), backend)
	first.Consolidate(ctx, store)

	second := consolidation.NewConsolidator(consolidation.DefaultTunableParams(), consolidation.NewOptimizer(7), backend)
	require.NoError(t, second.LoadStats(ctx))

	assert.Equal(t, 1, second.Stats().TotalRuns)
	assert.Equal(t, first.Params(), second.Params())
}
