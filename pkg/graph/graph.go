// Package graph provides a lightweight in-memory knowledge graph over
// entities and memory chunks.
//
// The graph is undirected and weighted: every relationship insertion creates
// edges in both directions. It supports two retrieval modes that need no
// full-text matching: topology retrieval (rank chunks by how many matched
// entities they connect to) and edge voting (matched entities vote for
// chunks reachable over weighted edges).
//
// The graph only consumes extraction output; it never parses text itself.
package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Entity is a node representing a named entity.
type Entity struct {
	// ID is the graph-assigned entity identifier.
	ID string `json:"id"`

	// Name is the normalized (lowercase) entity name.
	Name string `json:"name"`

	// Type classifies the entity ("person", "place", "concept", ...).
	Type string `json:"type"`

	// Description is an optional short description.
	Description string `json:"description,omitempty"`
}

// ChunkNode links a memory chunk to the entities its content mentions.
type ChunkNode struct {
	// ChunkID is the retrieval store's chunk identifier.
	ChunkID string `json:"chunk_id"`

	// EntityIDs are the entities mentioned by the chunk.
	EntityIDs []string `json:"entity_ids"`
}

// edge is one directed half of an undirected relationship.
type edge struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// ScoredChunk is a chunk id with a graph-derived relevance score.
type ScoredChunk struct {
	ChunkID string
	Score   float64
}

// implicitMentionWeight is the edge weight used for chunk-entity links
// created by AddChunkNode.
const implicitMentionWeight = 0.5

// edgeVoteThreshold is the minimum accumulated vote for a chunk to appear
// in edge-voting results.
const edgeVoteThreshold = 0.1

// maxVotingHops bounds traversal depth during edge voting.
const maxVotingHops = 2

// KnowledgeGraph is a thread-safe entity/chunk graph.
type KnowledgeGraph struct {
	mu sync.RWMutex

	entities   map[string]*Entity   // entity id -> entity
	byName     map[string]string    // normalized name -> entity id
	chunkNodes map[string]*ChunkNode // chunk id -> node
	edges      map[string]map[string]edge

	nextEntityID int
}

// NewKnowledgeGraph creates an empty knowledge graph.
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		entities:   make(map[string]*Entity),
		byName:     make(map[string]string),
		chunkNodes: make(map[string]*ChunkNode),
		edges:      make(map[string]map[string]edge),
	}
}

// Reset discards all entities, chunk nodes, and edges. The graph remains
// usable afterwards; callers holding the pointer see the emptied state.
func (g *KnowledgeGraph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entities = make(map[string]*Entity)
	g.byName = make(map[string]string)
	g.chunkNodes = make(map[string]*ChunkNode)
	g.edges = make(map[string]map[string]edge)
	g.nextEntityID = 0
}

// AddEntity adds an entity, normalizing its name to lowercase for
// deduplication. Adding an existing name returns the existing entity id.
func (g *KnowledgeGraph) AddEntity(name, entityType, description string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))

	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.byName[normalized]; ok {
		return id
	}

	g.nextEntityID++
	id := fmt.Sprintf("ent_%d", g.nextEntityID)
	g.entities[id] = &Entity{
		ID:          id,
		Name:        normalized,
		Type:        entityType,
		Description: description,
	}
	g.byName[normalized] = id
	return id
}

// GetEntity returns the entity with the given id, or nil if unknown.
func (g *KnowledgeGraph) GetEntity(id string) *Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	entity, ok := g.entities[id]
	if !ok {
		return nil
	}
	clone := *entity
	return &clone
}

// AddChunkNode links a chunk to the entities it mentions. Each link is a
// bidirectional edge with an implicit weight. Unknown entity ids are skipped.
func (g *KnowledgeGraph) AddChunkNode(chunkID, content string, entityIDs []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.chunkNodes[chunkID]
	if !ok {
		node = &ChunkNode{ChunkID: chunkID}
		g.chunkNodes[chunkID] = node
	}

	linked := make(map[string]bool, len(node.EntityIDs))
	for _, id := range node.EntityIDs {
		linked[id] = true
	}

	for _, entityID := range entityIDs {
		if _, known := g.entities[entityID]; !known {
			continue
		}
		if !linked[entityID] {
			node.EntityIDs = append(node.EntityIDs, entityID)
			linked[entityID] = true
		}
		g.insertEdge(chunkID, entityID, "mentions", implicitMentionWeight)
		g.insertEdge(entityID, chunkID, "mentions", implicitMentionWeight)
	}
}

// AddRelationship adds a typed, weighted edge between two node ids.
// Insertion is bidirectional. Weight is clamped into [0,1].
func (g *KnowledgeGraph) AddRelationship(idA, idB, label string, weight float64) {
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.insertEdge(idA, idB, label, weight)
	g.insertEdge(idB, idA, label, weight)
}

// AddChunkAssociation links two chunk nodes with a bidirectional
// association edge, used by consolidation to connect semantically close
// chunks. Returns false without modifying the graph when either chunk is
// unknown or the association already exists.
func (g *KnowledgeGraph) AddChunkAssociation(chunkA, chunkB string, weight float64) bool {
	if chunkA == chunkB {
		return false
	}
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.chunkNodes[chunkA]; !ok {
		return false
	}
	if _, ok := g.chunkNodes[chunkB]; !ok {
		return false
	}
	if _, exists := g.edges[chunkA][chunkB]; exists {
		return false
	}

	g.insertEdge(chunkA, chunkB, "associated_with", weight)
	g.insertEdge(chunkB, chunkA, "associated_with", weight)
	return true
}

// insertEdge records a directed edge. Caller holds the lock.
func (g *KnowledgeGraph) insertEdge(from, to, label string, weight float64) {
	neighbors, ok := g.edges[from]
	if !ok {
		neighbors = make(map[string]edge)
		g.edges[from] = neighbors
	}
	neighbors[to] = edge{Label: label, Weight: weight}
}

// GetEntityDegree returns the number of edges incident to the given node.
// Unknown ids return 0.
func (g *KnowledgeGraph) GetEntityDegree(id string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges[id])
}

// EntityCount returns the number of entities in the graph.
func (g *KnowledgeGraph) EntityCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entities)
}

// RemoveChunkNode removes a chunk node and all its edges. Unknown chunk ids
// are a no-op.
func (g *KnowledgeGraph) RemoveChunkNode(chunkID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.chunkNodes, chunkID)
	for neighbor := range g.edges[chunkID] {
		delete(g.edges[neighbor], chunkID)
	}
	delete(g.edges, chunkID)
}

// matchEntities returns ids of entities whose name matches any query term
// by case-insensitive substring or equality. Caller holds a read lock.
func (g *KnowledgeGraph) matchEntities(queryTerms []string) []string {
	var matched []string
	for _, entity := range g.entities {
		for _, term := range queryTerms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			if strings.Contains(entity.Name, term) || term == entity.Name {
				matched = append(matched, entity.ID)
				break
			}
		}
	}
	return matched
}

// TopologyRetrieve finds entities matching the query terms and returns
// chunks connected to them, ranked by how many matched entities each chunk
// connects to. No matches yields an empty result.
func (g *KnowledgeGraph) TopologyRetrieve(queryTerms []string, limit int) []ScoredChunk {
	g.mu.RLock()
	defer g.mu.RUnlock()

	matched := g.matchEntities(queryTerms)
	if len(matched) == 0 || limit <= 0 {
		return nil
	}

	connections := make(map[string]int)
	for _, entityID := range matched {
		for neighbor := range g.edges[entityID] {
			if _, isChunk := g.chunkNodes[neighbor]; isChunk {
				connections[neighbor]++
			}
		}
	}

	results := make([]ScoredChunk, 0, len(connections))
	for chunkID, count := range connections {
		results = append(results, ScoredChunk{
			ChunkID: chunkID,
			Score:   float64(count) / float64(len(matched)),
		})
	}

	sortScored(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// EdgeVotingRetrieve lets matched entities vote for chunks reachable within
// a bounded hop count. A chunk's score is the sum of incoming edge weights
// along the paths from matched entities, attenuated per hop. Chunks whose
// accumulated vote stays below the threshold are dropped; when nothing
// crosses the threshold the result is simply empty.
func (g *KnowledgeGraph) EdgeVotingRetrieve(queryTerms []string, limit int) []ScoredChunk {
	g.mu.RLock()
	defer g.mu.RUnlock()

	matched := g.matchEntities(queryTerms)
	if len(matched) == 0 || limit <= 0 {
		return nil
	}

	votes := make(map[string]float64)
	for _, entityID := range matched {
		g.vote(entityID, 1.0, 0, make(map[string]bool), votes)
	}

	results := make([]ScoredChunk, 0, len(votes))
	for chunkID, score := range votes {
		if score < edgeVoteThreshold {
			continue
		}
		results = append(results, ScoredChunk{ChunkID: chunkID, Score: score})
	}

	sortScored(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// vote propagates a voting signal from a node over weighted edges.
// Caller holds a read lock.
func (g *KnowledgeGraph) vote(nodeID string, strength float64, depth int, visited map[string]bool, votes map[string]float64) {
	if depth >= maxVotingHops || visited[nodeID] {
		return
	}
	visited[nodeID] = true

	for neighbor, e := range g.edges[nodeID] {
		contribution := strength * e.Weight
		if _, isChunk := g.chunkNodes[neighbor]; isChunk {
			votes[neighbor] += contribution
			continue
		}
		g.vote(neighbor, contribution, depth+1, visited, votes)
	}
}

// sortScored orders by descending score, breaking ties by chunk id for
// deterministic output.
func sortScored(results []ScoredChunk) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}
