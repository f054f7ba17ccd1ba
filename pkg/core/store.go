package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/engram-ai/engram-go/pkg/embedder"
	"github.com/engram-ai/engram-go/pkg/extraction"
	"github.com/engram-ai/engram-go/pkg/graph"
	"github.com/engram-ai/engram-go/pkg/memory"
	"github.com/engram-ai/engram-go/pkg/quantize"
	"github.com/engram-ai/engram-go/pkg/replay"
	"github.com/engram-ai/engram-go/pkg/scoring"
	"github.com/engram-ai/engram-go/pkg/storage"
	"github.com/engram-ai/engram-go/pkg/telemetry"
)

// DefaultRetrieveLimit caps results when the caller passes a non-positive
// limit.
const DefaultRetrieveLimit = 10

// memRLCandidateFactor is how many semantic candidates MemRL collects per
// requested result before Q-value re-ranking.
const memRLCandidateFactor = 3

// chunksKeyPrefix namespaces persisted chunk payloads per agent.
const chunksKeyPrefix = "rag_chunks_"

// Store is the system's single entry point: it owns the chunk collection,
// dispatches retrieval strategies, applies reinforcement feedback, and
// persists its state through a SecureStore backend.
//
// All exported methods are safe for concurrent use. Retrieval snapshots
// the chunk set under a read lock and scores outside it, so slow scoring
// never blocks writers.
type Store struct {
	mu     sync.RWMutex
	config *Config

	chunks map[string]*memory.Chunk
	order  []string

	node      *snowflake.Node
	engine    *scoring.Engine
	graph     *graph.KnowledgeGraph
	embedder  embedder.Provider
	extractor extraction.Extractor
	storage   storage.SecureStore
	sink      telemetry.Sink
	replay    *replay.Buffer

	learningRate float64
}

// StoreOption overrides a collaborator after config-driven construction,
// mainly for tests and embedders.
type StoreOption func(*Store)

// WithTelemetrySink replaces the default ring sink.
func WithTelemetrySink(sink telemetry.Sink) StoreOption {
	return func(s *Store) { s.sink = sink }
}

// WithExtractor replaces the config-selected entity extractor.
func WithExtractor(extractor extraction.Extractor) StoreOption {
	return func(s *Store) { s.extractor = extractor }
}

// WithEmbedderProvider replaces the config-selected embedding provider.
func WithEmbedderProvider(provider embedder.Provider) StoreOption {
	return func(s *Store) { s.embedder = provider }
}

// WithSecureStore replaces the config-selected persistence backend.
func WithSecureStore(backend storage.SecureStore) StoreOption {
	return func(s *Store) { s.storage = backend }
}

// NewStore creates a Store from the given configuration.
//
// The configuration selects the embedding provider, the entity extractor,
// and the persistence backend; see Config. Collaborators can be replaced
// with StoreOptions.
func NewStore(config *Config, opts ...StoreOption) (*Store, error) {
	if config == nil {
		return nil, NewStoreError("NewStore", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewStoreError("NewStore", err)
	}

	embedderProvider, err := newEmbedderProvider(config.Embedder)
	if err != nil {
		return nil, NewStoreError("NewStore", err)
	}

	backend, err := newSecureStore(config.Storage)
	if err != nil {
		return nil, NewStoreError("NewStore", err)
	}

	extractor, err := newExtractor(config.LLM)
	if err != nil {
		return nil, NewStoreError("NewStore", err)
	}

	learningRate := config.LearningRate
	if learningRate == 0 {
		learningRate = memory.DefaultLearningRate
	}

	buffer := replay.NewBuffer()
	if config.ReplayCapacity > 0 {
		buffer = replay.NewBufferWithCapacity(config.ReplayCapacity)
	}

	s := &Store{
		config:       config,
		chunks:       make(map[string]*memory.Chunk),
		node:         node,
		engine:       scoring.NewEngine(config.ScoringWeights),
		graph:        graph.NewKnowledgeGraph(),
		embedder:     embedderProvider,
		extractor:    extractor,
		storage:      backend,
		sink:         telemetry.NewRingSink(telemetry.DefaultRingLimit),
		replay:       buffer,
		learningRate: learningRate,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Close releases the store's collaborators (embedding provider and
// persistence backend).
func (s *Store) Close() error {
	var firstErr error
	if err := s.embedder.Close(); err != nil {
		firstErr = err
	}
	if err := s.storage.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return NewStoreError("Close", firstErr)
}

// Add ingests content as a new chunk.
//
// The scoring engine assigns the lifecycle stage (unless WithStage forces
// one), the embedding provider generates the vector (unless WithEmbedding
// supplies one), and the extractor links the chunk into the knowledge
// graph. Embedding and extraction failures degrade the chunk (no vector,
// no entity links) but never fail the call.
//
// Returns a copy of the stored chunk.
func (s *Store) Add(ctx context.Context, content string, opts ...AddOption) (*memory.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewStoreError("Add", ErrInvalidInput)
	}

	options := defaultAddOptions()
	for _, opt := range opts {
		opt(options)
	}

	chunkID := fmt.Sprintf("chunk_%s", s.node.Generate().String())
	chunk := memory.NewChunk(chunkID, content, options.Source, options.SourceType)
	chunk.Metadata = options.Metadata

	if options.Stage != nil {
		chunk.Stage = *options.Stage
	} else {
		chunk.Stage = s.engine.AssignStage(content, options.SourceType, options.Importance)
	}

	embedding := options.Embedding
	if embedding == nil {
		if vec, err := s.embedder.Embed(ctx, content); err == nil {
			embedding = vec
		}
	}
	if embedding != nil {
		if s.config.QuantizeEmbeddings {
			q := quantize.Quantize(embedding)
			chunk.Quantized = &q
		} else {
			chunk.Embedding = embedding
		}
	}

	s.indexInGraph(ctx, chunk)

	s.mu.Lock()
	s.chunks[chunk.ChunkID] = chunk
	s.order = append(s.order, chunk.ChunkID)
	s.mu.Unlock()

	return chunk.Clone(), nil
}

// indexInGraph registers the chunk in the knowledge graph. Extraction
// failures leave the chunk node without entity links.
func (s *Store) indexInGraph(ctx context.Context, chunk *memory.Chunk) {
	var entityIDs []string

	if s.extractor != nil {
		if extracted, err := s.extractor.Extract(ctx, chunk.Content); err == nil {
			for _, entity := range extracted.Entities {
				id := s.graph.AddEntity(entity.Name, entity.Type, entity.Description)
				entityIDs = append(entityIDs, id)
			}
			for _, rel := range extracted.Relationships {
				fromID := s.graph.AddEntity(rel.From, "", "")
				toID := s.graph.AddEntity(rel.To, "", "")
				s.graph.AddRelationship(fromID, toID, rel.Label, rel.Weight)
			}
		}
	}

	s.graph.AddChunkNode(chunk.ChunkID, chunk.Content, entityIDs)
}

// Retrieve runs the given strategy over the current chunk set and returns
// up to limit results, best first.
//
// A query matching nothing returns an empty slice, never an error.
// Collaborator failures (embedding provider, telemetry sink) degrade the
// result instead of failing the call. A non-positive limit uses
// DefaultRetrieveLimit.
func (s *Store) Retrieve(ctx context.Context, query string, strategy RetrievalStrategy, limit int) ([]RetrievalResult, error) {
	if _, ok := strategyNames[strategy]; !ok {
		return nil, NewStoreError("Retrieve", fmt.Errorf("%w: %d", ErrUnknownStrategy, int(strategy)))
	}
	if limit <= 0 {
		limit = DefaultRetrieveLimit
	}

	started := time.Now()

	// Snapshot under the read lock, score outside it.
	s.mu.RLock()
	snapshot := make([]*memory.Chunk, 0, len(s.order))
	for _, id := range s.order {
		snapshot = append(snapshot, s.chunks[id].Clone())
	}
	s.mu.RUnlock()

	var queryEmbedding []float64
	if strategyNeedsEmbedding(strategy) {
		if vec, err := s.embedder.Embed(ctx, query); err == nil {
			queryEmbedding = vec
		}
	}

	scored := s.dispatch(snapshot, query, queryEmbedding, strategy, limit)

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ChunkID < scored[j].Chunk.ChunkID
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	scores := make([]float64, len(scored))
	for i, r := range scored {
		scores[i] = r.Score
	}
	dist := computeScoreDistribution(scores)

	results := make([]RetrievalResult, len(scored))
	for i, r := range scored {
		results[i] = RetrievalResult{
			Chunk:             r.Chunk,
			Score:             r.Score,
			Strategy:          strategy,
			ScoreDistribution: dist,
			StageSource:       r.Chunk.Stage,
		}
	}

	// Sink failures must never affect the returned results.
	_ = s.sink.Record(telemetry.Event{
		Strategy:    strategy.String(),
		LatencyMs:   float64(time.Since(started).Microseconds()) / 1000.0,
		ResultCount: len(results),
		Timestamp:   started,
	})

	return results, nil
}

// scoredChunk pairs a chunk with its strategy score during ranking.
type scoredChunk struct {
	Chunk *memory.Chunk
	Score float64
}

// strategyNeedsEmbedding reports whether the strategy consumes a query
// embedding.
func strategyNeedsEmbedding(strategy RetrievalStrategy) bool {
	switch strategy {
	case StrategySemantic, StrategyHybrid, StrategyMemRL, StrategyNTSCascade:
		return true
	default:
		return false
	}
}

// dispatch applies the strategy's pure scoring function to the snapshot.
func (s *Store) dispatch(snapshot []*memory.Chunk, query string, queryEmbedding []float64, strategy RetrievalStrategy, limit int) []scoredChunk {
	now := time.Now()

	switch strategy {
	case StrategyKeyword:
		return scoreKeyword(snapshot, query)
	case StrategyRecency:
		return scoreRecency(snapshot, now)
	case StrategySemantic:
		return scoreSemantic(snapshot, queryEmbedding)
	case StrategyHybrid:
		return scoreHybrid(snapshot, query, queryEmbedding, now)
	case StrategyMemRL:
		return scoreMemRL(snapshot, queryEmbedding, limit)
	case StrategyNTSCascade:
		return s.scoreNTSCascade(snapshot, queryEmbedding, now)
	case StrategyGraphTopology:
		return s.scoreGraph(snapshot, s.graph.TopologyRetrieve(queryTerms(query), limit))
	case StrategyGraphEdgeVoting:
		return s.scoreGraph(snapshot, s.graph.EdgeVotingRetrieve(queryTerms(query), limit))
	default:
		return nil
	}
}

// queryTerms splits a query into lowercase terms for graph matching.
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// scoreKeyword ranks by the fraction of query terms contained in the
// chunk's content, case-insensitive. Chunks matching no term are dropped.
func scoreKeyword(snapshot []*memory.Chunk, query string) []scoredChunk {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var scored []scoredChunk
	for _, chunk := range snapshot {
		content := strings.ToLower(chunk.Content)
		matched := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		scored = append(scored, scoredChunk{
			Chunk: chunk,
			Score: float64(matched) / float64(len(terms)),
		})
	}
	return scored
}

// scoreRecency decays monotonically with age, so for any two chunks the
// newer one never scores below the older one.
func scoreRecency(snapshot []*memory.Chunk, now time.Time) []scoredChunk {
	scored := make([]scoredChunk, 0, len(snapshot))
	for _, chunk := range snapshot {
		age := chunk.Age(now)
		if age < 0 {
			age = 0
		}
		scored = append(scored, scoredChunk{
			Chunk: chunk,
			Score: 1.0 / (1.0 + age.Hours()),
		})
	}
	return scored
}

// scoreSemantic ranks by cosine similarity against the query embedding.
// Chunks without embeddings, and non-positive similarities, are dropped.
func scoreSemantic(snapshot []*memory.Chunk, queryEmbedding []float64) []scoredChunk {
	if queryEmbedding == nil {
		return nil
	}

	var scored []scoredChunk
	for _, chunk := range snapshot {
		similarity := semanticSimilarity(queryEmbedding, chunk)
		if similarity <= 0 {
			continue
		}
		scored = append(scored, scoredChunk{Chunk: chunk, Score: similarity})
	}
	return scored
}

// semanticSimilarity computes cosine similarity between the query
// embedding and the chunk's stored vector, decoding quantized vectors on
// the fly. Chunks without a vector score 0.
func semanticSimilarity(queryEmbedding []float64, chunk *memory.Chunk) float64 {
	switch {
	case chunk.Embedding != nil:
		return quantize.CosineSimilarity(queryEmbedding, chunk.Embedding)
	case chunk.Quantized != nil:
		return quantize.CosineSimilarityQuantized(quantize.Quantize(queryEmbedding), *chunk.Quantized)
	default:
		return 0
	}
}

// scoreHybrid blends semantic, keyword, and recency signals. Semantic
// similarity dominates, keyword matching refines, recency breaks the
// remaining ties.
func scoreHybrid(snapshot []*memory.Chunk, query string, queryEmbedding []float64, now time.Time) []scoredChunk {
	keyword := toScoreMap(scoreKeyword(snapshot, query))
	recency := toScoreMap(scoreRecency(snapshot, now))

	var scored []scoredChunk
	for _, chunk := range snapshot {
		semantic := 0.0
		if queryEmbedding != nil {
			semantic = semanticSimilarity(queryEmbedding, chunk)
			if semantic < 0 {
				semantic = 0
			}
		}
		base := 0.7*semantic + 0.3*keyword[chunk.ChunkID]
		if base <= 0 {
			continue
		}
		scored = append(scored, scoredChunk{
			Chunk: chunk,
			Score: 0.9*base + 0.1*recency[chunk.ChunkID],
		})
	}
	return scored
}

// scoreMemRL runs the two-phase reinforcement ranking: collect semantic
// candidates, then re-rank by a blend of similarity and the learned
// Q-value. Without embeddings it degrades to pure Q-value ranking.
func scoreMemRL(snapshot []*memory.Chunk, queryEmbedding []float64, limit int) []scoredChunk {
	candidates := snapshot
	similarities := make(map[string]float64, len(snapshot))

	if queryEmbedding != nil {
		semantic := scoreSemantic(snapshot, queryEmbedding)
		if len(semantic) > 0 {
			sort.SliceStable(semantic, func(i, j int) bool {
				return semantic[i].Score > semantic[j].Score
			})
			max := limit * memRLCandidateFactor
			if len(semantic) > max {
				semantic = semantic[:max]
			}
			candidates = candidates[:0:0]
			for _, sc := range semantic {
				candidates = append(candidates, sc.Chunk)
				similarities[sc.Chunk.ChunkID] = sc.Score
			}
		}
	}

	scored := make([]scoredChunk, 0, len(candidates))
	for _, chunk := range candidates {
		scored = append(scored, scoredChunk{
			Chunk: chunk,
			Score: 0.7*similarities[chunk.ChunkID] + 0.3*chunk.QValue,
		})
	}
	return scored
}

// scoreNTSCascade ranks by the scoring engine's aggregate score.
func (s *Store) scoreNTSCascade(snapshot []*memory.Chunk, queryEmbedding []float64, now time.Time) []scoredChunk {
	scored := make([]scoredChunk, 0, len(snapshot))
	for _, chunk := range snapshot {
		semantic := 0.0
		if queryEmbedding != nil {
			semantic = semanticSimilarity(queryEmbedding, chunk)
		}
		scores := s.engine.ScoreForRetrieval(chunk, semantic, now)
		scored = append(scored, scoredChunk{Chunk: chunk, Score: scores.Aggregate})
	}
	return scored
}

// scoreGraph maps graph retrieval output back onto snapshot chunks.
// Graph hits for chunks no longer in the store are skipped.
func (s *Store) scoreGraph(snapshot []*memory.Chunk, hits []graph.ScoredChunk) []scoredChunk {
	byID := make(map[string]*memory.Chunk, len(snapshot))
	for _, chunk := range snapshot {
		byID[chunk.ChunkID] = chunk
	}

	var scored []scoredChunk
	for _, hit := range hits {
		if chunk, ok := byID[hit.ChunkID]; ok {
			scored = append(scored, scoredChunk{Chunk: chunk, Score: hit.Score})
		}
	}
	return scored
}

// toScoreMap indexes scored chunks by chunk id.
func toScoreMap(scored []scoredChunk) map[string]float64 {
	m := make(map[string]float64, len(scored))
	for _, sc := range scored {
		m[sc.Chunk.ChunkID] = sc.Score
	}
	return m
}

// ProvideFeedback applies one reinforcement step to each listed chunk:
// Q += alpha * (reward - Q) with reward 1 on success and 0 on failure,
// clamped to [0,1]. Unknown ids are skipped. Each feedback call is also
// recorded in the episodic replay buffer as optimizer training signal.
func (s *Store) ProvideFeedback(chunkIDs []string, success bool) {
	reward := 0.0
	outcome := "failure"
	if success {
		reward = 1.0
		outcome = "success"
	}

	s.mu.Lock()
	for _, id := range chunkIDs {
		if chunk, ok := s.chunks[id]; ok {
			chunk.UpdateQValue(success, s.learningRate)
		}
	}
	s.mu.Unlock()

	s.replay.RecordEpisode(replay.Episode{
		Decision:  "retrieval_feedback",
		Action:    fmt.Sprintf("feedback on %d chunks", len(chunkIDs)),
		Outcome:   outcome,
		Reward:    reward,
		Timestamp: time.Now(),
	})
}

// Remove deletes a chunk and its graph node. It is idempotent: removing
// an unknown id returns false.
func (s *Store) Remove(chunkID string) bool {
	s.mu.Lock()
	_, ok := s.chunks[chunkID]
	if ok {
		delete(s.chunks, chunkID)
		for i, id := range s.order {
			if id == chunkID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if ok {
		s.graph.RemoveChunkNode(chunkID)
	}
	return ok
}

// Get returns a copy of the chunk with the given id, or ErrNotFound.
func (s *Store) Get(chunkID string) (*memory.Chunk, error) {
	s.mu.RLock()
	chunk, ok := s.chunks[chunkID]
	s.mu.RUnlock()

	if !ok {
		return nil, NewStoreError("Get", fmt.Errorf("%w: %s", ErrNotFound, chunkID))
	}
	return chunk.Clone(), nil
}

// Len returns the number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Clear removes all chunks, resets the knowledge graph, and deletes the
// persisted chunk payload so a subsequent Load does not resurrect them.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.chunks = make(map[string]*memory.Chunk)
	s.order = nil
	s.mu.Unlock()

	s.graph.Reset()

	if err := s.storage.Delete(ctx, s.chunksKey()); err != nil {
		return NewStoreError("Clear", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}
	return nil
}

// Stats summarizes the store's learning state.
type Stats struct {
	// AvgQValue is the mean Q-value across all chunks (0 when empty).
	AvgQValue float64 `json:"avg_q_value"`

	// SuccessRate is total successes over total feedback events across
	// all chunks (0 when no feedback has been recorded).
	SuccessRate float64 `json:"success_rate"`

	// TotalRetrievals is the cumulative feedback event count.
	TotalRetrievals int `json:"total_retrievals"`

	// TotalChunks is the current chunk count.
	TotalChunks int `json:"total_chunks"`
}

// GetStats computes aggregate statistics over the current chunk set.
func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalChunks: len(s.chunks)}
	if len(s.chunks) == 0 {
		return stats
	}

	qSum := 0.0
	successes := 0
	for _, chunk := range s.chunks {
		qSum += chunk.QValue
		stats.TotalRetrievals += chunk.RetrievalCount
		successes += chunk.SuccessCount
	}
	stats.AvgQValue = qSum / float64(len(s.chunks))
	if stats.TotalRetrievals > 0 {
		stats.SuccessRate = float64(successes) / float64(stats.TotalRetrievals)
	}
	return stats
}

// Snapshot returns deep copies of all chunks in insertion order, for
// consolidation and reassessment passes that score outside the lock.
func (s *Store) Snapshot() []*memory.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]*memory.Chunk, 0, len(s.order))
	for _, id := range s.order {
		snapshot = append(snapshot, s.chunks[id].Clone())
	}
	return snapshot
}

// SetStage moves a chunk to the given lifecycle stage. Returns false for
// unknown ids.
func (s *Store) SetStage(chunkID string, stage memory.Stage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunk, ok := s.chunks[chunkID]
	if !ok {
		return false
	}
	chunk.Stage = stage
	return true
}

// SetQValue overrides a chunk's Q-value, clamped to [0,1]. Returns false
// for unknown ids.
func (s *Store) SetQValue(chunkID string, qValue float64) bool {
	if qValue < 0 {
		qValue = 0
	}
	if qValue > 1 {
		qValue = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chunk, ok := s.chunks[chunkID]
	if !ok {
		return false
	}
	chunk.QValue = qValue
	return true
}

// Graph returns the store's knowledge graph.
func (s *Store) Graph() *graph.KnowledgeGraph {
	return s.graph
}

// Replay returns the store's episodic replay buffer.
func (s *Store) Replay() *replay.Buffer {
	return s.replay
}

// Telemetry returns the store's retrieval telemetry sink.
func (s *Store) Telemetry() telemetry.Sink {
	return s.sink
}

// AgentID returns the configured agent identifier.
func (s *Store) AgentID() string {
	return s.config.AgentID
}

// chunksKey returns the persistence key for this agent's chunk payload.
func (s *Store) chunksKey() string {
	return chunksKeyPrefix + s.config.AgentID
}

// Save persists the chunk collection to the storage backend under the
// agent's chunk key.
func (s *Store) Save(ctx context.Context) error {
	data, err := s.MarshalChunks()
	if err != nil {
		return NewStoreError("Save", err)
	}
	if err := s.storage.Store(ctx, s.chunksKey(), data); err != nil {
		return NewStoreError("Save", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}
	return nil
}

// Load restores the chunk collection from the storage backend. A missing
// payload is not an error and leaves the store unchanged; a corrupt
// payload returns ErrSnapshotCorrupt. Loaded chunks are re-registered in
// the knowledge graph.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.storage.Retrieve(ctx, s.chunksKey())
	if err != nil {
		return NewStoreError("Load", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}
	if data == nil {
		return nil
	}
	if err := s.UnmarshalChunks(data); err != nil {
		return err
	}

	for _, chunk := range s.Snapshot() {
		s.indexInGraph(ctx, chunk)
	}
	return nil
}

// MarshalChunks serializes the chunk collection in insertion order.
func (s *Store) MarshalChunks() ([]byte, error) {
	s.mu.RLock()
	ordered := make([]*memory.Chunk, 0, len(s.order))
	for _, id := range s.order {
		ordered = append(ordered, s.chunks[id])
	}
	data, err := json.Marshal(ordered)
	s.mu.RUnlock()
	return data, err
}

// UnmarshalChunks replaces the chunk collection with the given payload.
func (s *Store) UnmarshalChunks(data []byte) error {
	var loaded []*memory.Chunk
	if err := json.Unmarshal(data, &loaded); err != nil {
		return NewStoreError("Load", fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err))
	}

	s.mu.Lock()
	s.chunks = make(map[string]*memory.Chunk, len(loaded))
	s.order = make([]string, 0, len(loaded))
	for _, chunk := range loaded {
		if chunk == nil || chunk.ChunkID == "" {
			continue
		}
		s.chunks[chunk.ChunkID] = chunk
		s.order = append(s.order, chunk.ChunkID)
	}
	s.mu.Unlock()
	return nil
}
