package consolidation

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/engram-ai/engram-go/pkg/graph"
	"github.com/engram-ai/engram-go/pkg/memory"
	"github.com/engram-ai/engram-go/pkg/quantize"
	"github.com/engram-ai/engram-go/pkg/storage"
	"github.com/engram-ai/engram-go/pkg/telemetry"
)

// statsKey is the persistence key for cumulative consolidation stats.
const statsKey = "consolidation_stats"

// telemetryWindow is how many recent retrieval events feed the optimizer.
const telemetryWindow = 100

// Consolidation runs automatically between these local hours when no
// idle signal is available.
const (
	quietHoursStart = 1
	quietHoursEnd   = 5
)

// Store is the slice of the retrieval store a consolidation pass needs.
type Store interface {
	Snapshot() []*memory.Chunk
	SetStage(chunkID string, stage memory.Stage) bool
	Remove(chunkID string) bool
	Graph() *graph.KnowledgeGraph
	Telemetry() telemetry.Sink
}

// Result summarizes one consolidation pass.
type Result struct {
	// Strengthened counts chunks promoted to a more durable stage.
	Strengthened int `json:"strengthened"`

	// Weakened counts chunks demoted to a less durable stage.
	Weakened int `json:"weakened"`

	// Forgotten counts chunks removed this pass.
	Forgotten int `json:"forgotten"`

	// Connections counts knowledge graph associations created.
	Connections int `json:"connections"`

	// Optimized reports whether the optimizer accepted new parameters.
	Optimized bool `json:"optimized"`

	// DurationMs is the wall-clock duration of the pass.
	DurationMs float64 `json:"duration_ms"`

	// Success is false only when the pass could not run at all.
	Success bool `json:"success"`
}

// Stats accumulates consolidation results across runs. It is persisted
// under the consolidation stats key.
type Stats struct {
	TotalRuns         int           `json:"total_runs"`
	TotalStrengthened int           `json:"total_strengthened"`
	TotalWeakened     int           `json:"total_weakened"`
	TotalForgotten    int           `json:"total_forgotten"`
	TotalConnections  int           `json:"total_connections"`
	LastRun           time.Time     `json:"last_run"`
	Params            TunableParams `json:"params"`
}

// Consolidator executes the five-phase consolidation pass.
type Consolidator struct {
	params    TunableParams
	optimizer *Optimizer
	storage   storage.SecureStore
	stats     Stats
}

// NewConsolidator creates a consolidator with the given thresholds and
// optimizer. Stats are persisted to backend; pass a MemoryStore when
// persistence is not needed.
func NewConsolidator(params TunableParams, optimizer *Optimizer, backend storage.SecureStore) *Consolidator {
	if backend == nil {
		backend = storage.NewMemoryStore()
	}
	if optimizer == nil {
		optimizer = NewOptimizer(time.Now().UnixNano())
	}
	params = params.EnforceOrdering()
	return &Consolidator{
		params:    params,
		optimizer: optimizer,
		storage:   backend,
		stats:     Stats{Params: params},
	}
}

// Params returns the current tunable parameters.
func (c *Consolidator) Params() TunableParams {
	return c.params
}

// IsConsolidationTime reports whether an automatic run should start now.
// An idle signal always allows it; otherwise runs are gated to the quiet
// hours (01:00-05:00 local). Manual Consolidate calls bypass this gate.
func (c *Consolidator) IsConsolidationTime(now time.Time, idle bool) bool {
	if idle {
		return true
	}
	hour := now.Hour()
	return hour >= quietHoursStart && hour < quietHoursEnd
}

// Consolidate runs one full pass over the store:
//
//  1. Strengthen: chunks with qValue >= StrengthenThreshold are promoted.
//  2. Weaken: chunks between the forget and consolidation thresholds are
//     demoted.
//  3. Forget: chunks at or below ForgetThreshold are removed, lowest
//     quality and oldest first, up to MaxForgetPerCycle.
//  4. Connect: chunks whose embeddings exceed ConnectionSimilarity gain a
//     knowledge graph association.
//  5. Optimize: the sleep-cycle optimizer proposes new thresholds and
//     keeps them only if fitness improves.
//
// Stats persistence failures are swallowed; the pass itself still counts
// as successful.
func (c *Consolidator) Consolidate(ctx context.Context, store Store) Result {
	started := time.Now()
	result := Result{Success: true}

	snapshot := store.Snapshot()

	// Phase 1: strengthen.
	for _, chunk := range snapshot {
		if chunk.QValue >= c.params.StrengthenThreshold {
			promoted := chunk.Stage.Promote()
			if promoted != chunk.Stage && store.SetStage(chunk.ChunkID, promoted) {
				chunk.Stage = promoted
				result.Strengthened++
			}
		}
	}

	// Phase 2: weaken.
	for _, chunk := range snapshot {
		if chunk.QValue > c.params.ForgetThreshold && chunk.QValue < c.params.ConsolidationThreshold {
			demoted := chunk.Stage.Demote()
			if demoted != chunk.Stage && store.SetStage(chunk.ChunkID, demoted) {
				chunk.Stage = demoted
				result.Weakened++
			}
		}
	}

	// Phase 3: forget, worst first.
	forgettable := make([]*memory.Chunk, 0)
	for _, chunk := range snapshot {
		if chunk.QValue <= c.params.ForgetThreshold {
			forgettable = append(forgettable, chunk)
		}
	}
	sortForForgetting(forgettable)
	forgotten := make(map[string]bool)
	for _, chunk := range forgettable {
		if result.Forgotten >= c.params.MaxForgetPerCycle {
			break
		}
		if store.Remove(chunk.ChunkID) {
			forgotten[chunk.ChunkID] = true
			result.Forgotten++
		}
	}

	// Phase 4: connect survivors with close embeddings.
	survivors := make([]*memory.Chunk, 0, len(snapshot))
	for _, chunk := range snapshot {
		if !forgotten[chunk.ChunkID] {
			survivors = append(survivors, chunk)
		}
	}
	g := store.Graph()
	for i := 0; i < len(survivors); i++ {
		for j := i + 1; j < len(survivors); j++ {
			similarity := chunkSimilarity(survivors[i], survivors[j])
			if similarity >= c.params.ConnectionSimilarity {
				if g.AddChunkAssociation(survivors[i].ChunkID, survivors[j].ChunkID, similarity) {
					result.Connections++
				}
			}
		}
	}

	// Phase 5: optimize thresholds for the next pass.
	qValues := make([]float64, len(survivors))
	for i, chunk := range survivors {
		qValues[i] = chunk.QValue
	}
	events := store.Telemetry().ReadRecent(telemetryWindow)
	c.params, result.Optimized = c.optimizer.Optimize(c.params, qValues, events)

	result.DurationMs = float64(time.Since(started).Microseconds()) / 1000.0

	c.stats.TotalRuns++
	c.stats.TotalStrengthened += result.Strengthened
	c.stats.TotalWeakened += result.Weakened
	c.stats.TotalForgotten += result.Forgotten
	c.stats.TotalConnections += result.Connections
	c.stats.LastRun = started
	c.stats.Params = c.params
	c.persistStats(ctx)

	return result
}

// Stats returns the cumulative stats across runs.
func (c *Consolidator) Stats() Stats {
	return c.stats
}

// LoadStats restores cumulative stats (including tuned parameters) from
// the storage backend. A missing or corrupt payload leaves the current
// state untouched.
func (c *Consolidator) LoadStats(ctx context.Context) error {
	data, err := c.storage.Retrieve(ctx, statsKey)
	if err != nil || data == nil {
		return err
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil
	}
	c.stats = stats
	if stats.TotalRuns > 0 {
		c.params = stats.Params.EnforceOrdering()
	}
	return nil
}

// persistStats writes the cumulative stats. Failures are swallowed so a
// broken backend never fails a consolidation pass.
func (c *Consolidator) persistStats(ctx context.Context) {
	data, err := json.Marshal(c.stats)
	if err != nil {
		return
	}
	_ = c.storage.Store(ctx, statsKey, data)
}

// sortForForgetting orders chunks lowest quality first, oldest first on
// ties.
func sortForForgetting(chunks []*memory.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].QValue != chunks[j].QValue {
			return chunks[i].QValue < chunks[j].QValue
		}
		return chunks[i].CreatedAt.Before(chunks[j].CreatedAt)
	})
}

// chunkSimilarity computes cosine similarity between two chunks' stored
// vectors, dequantizing as needed. Chunks without vectors score 0.
func chunkSimilarity(a, b *memory.Chunk) float64 {
	va := chunkVector(a)
	vb := chunkVector(b)
	if va == nil || vb == nil {
		return 0
	}
	return quantize.CosineSimilarity(va, vb)
}

func chunkVector(chunk *memory.Chunk) []float64 {
	switch {
	case chunk.Embedding != nil:
		return chunk.Embedding
	case chunk.Quantized != nil:
		return quantize.Dequantize(*chunk.Quantized)
	default:
		return nil
	}
}
