package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engram-ai/engram-go/pkg/graph"
)

func TestAddEntityDeduplicates(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	id1 := g.AddEntity("Paris", "place", "capital of France")
	id2 := g.AddEntity("paris", "place", "")
	id3 := g.AddEntity("  PARIS ", "place", "")

	assert.Equal(t, id1, id2, "entity names are normalized to lowercase")
	assert.Equal(t, id1, id3)
	assert.Equal(t, 1, g.EntityCount())

	entity := g.GetEntity(id1)
	require.NotNil(t, entity)
	assert.Equal(t, "paris", entity.Name)
	assert.Equal(t, "capital of France", entity.Description)
}

func TestGetEntityUnknown(t *testing.T) {
	g := graph.NewKnowledgeGraph()
	assert.Nil(t, g.GetEntity("ent_999"))
}

func TestAddRelationshipBidirectional(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	alice := g.AddEntity("Alice", "person", "")
	paris := g.AddEntity("Paris", "place", "")
	g.AddRelationship(alice, paris, "visited", 0.8)

	assert.Equal(t, 1, g.GetEntityDegree(alice))
	assert.Equal(t, 1, g.GetEntityDegree(paris))
}

func TestGetEntityDegreeUnknown(t *testing.T) {
	g := graph.NewKnowledgeGraph()
	assert.Equal(t, 0, g.GetEntityDegree("no_such_id"), "unknown ids return 0, not an error")
}

func TestAddChunkNodeLinks(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	alice := g.AddEntity("Alice", "person", "")
	bob := g.AddEntity("Bob", "person", "")
	g.AddChunkNode("chunk1", "Alice met Bob", []string{alice, bob, "unknown_entity"})

	assert.Equal(t, 2, g.GetEntityDegree("chunk1"), "unknown entity ids are skipped")
	assert.Equal(t, 1, g.GetEntityDegree(alice))
}

func TestTopologyRetrieve(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	alice := g.AddEntity("Alice", "person", "")
	bob := g.AddEntity("Bob", "person", "")
	carol := g.AddEntity("Carol", "person", "")

	// chunk1 connects to two matched entities, chunk2 to one.
	g.AddChunkNode("chunk1", "", []string{alice, bob})
	g.AddChunkNode("chunk2", "", []string{bob})
	g.AddChunkNode("chunk3", "", []string{carol})

	results := g.TopologyRetrieve([]string{"alice", "bob"}, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "chunk1", results[0].ChunkID, "more connections ranks higher")
	assert.Equal(t, "chunk2", results[1].ChunkID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestTopologyRetrieveCaseInsensitiveSubstring(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	id := g.AddEntity("machine learning", "concept", "")
	g.AddChunkNode("chunk1", "", []string{id})

	results := g.TopologyRetrieve([]string{"LEARNING"}, 5)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk1", results[0].ChunkID)
}

func TestTopologyRetrieveNoMatches(t *testing.T) {
	g := graph.NewKnowledgeGraph()
	g.AddEntity("Alice", "person", "")

	assert.Empty(t, g.TopologyRetrieve([]string{"zebra"}, 5))
	assert.Empty(t, g.TopologyRetrieve(nil, 5))
}

func TestTopologyRetrieveLimit(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	id := g.AddEntity("go", "concept", "")
	for _, chunkID := range []string{"c1", "c2", "c3", "c4"} {
		g.AddChunkNode(chunkID, "", []string{id})
	}

	assert.Len(t, g.TopologyRetrieve([]string{"go"}, 2), 2)
}

func TestEdgeVotingRetrieve(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	alice := g.AddEntity("Alice", "person", "")
	g.AddChunkNode("chunk1", "", []string{alice})

	results := g.EdgeVotingRetrieve([]string{"alice"}, 5)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk1", results[0].ChunkID)
	assert.InDelta(t, 0.5, results[0].Score, 1e-9, "vote equals the mention edge weight")
}

func TestEdgeVotingRetrieveTwoHops(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	alice := g.AddEntity("Alice", "person", "")
	paris := g.AddEntity("Paris", "place", "")
	g.AddRelationship(alice, paris, "visited", 0.8)
	g.AddChunkNode("chunk_paris", "", []string{paris})

	// Alice -> Paris (0.8) -> chunk_paris (0.5) = 0.4.
	results := g.EdgeVotingRetrieve([]string{"alice"}, 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "chunk_paris", results[0].ChunkID)
	assert.InDelta(t, 0.4, results[0].Score, 1e-9)
}

func TestEdgeVotingBelowThresholdReturnsEmpty(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	a := g.AddEntity("alpha", "concept", "")
	b := g.AddEntity("beta", "concept", "")
	g.AddRelationship(a, b, "related", 0.05)
	g.AddChunkNode("chunk1", "", []string{b})

	// alpha -> beta (0.05) -> chunk1 (0.5) = 0.025, below threshold.
	results := g.EdgeVotingRetrieve([]string{"alpha"}, 5)
	assert.Empty(t, results, "votes below threshold yield an empty result, never an error")
}

func TestRemoveChunkNode(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	alice := g.AddEntity("Alice", "person", "")
	g.AddChunkNode("chunk1", "", []string{alice})
	require.Equal(t, 1, g.GetEntityDegree(alice))

	g.RemoveChunkNode("chunk1")
	assert.Equal(t, 0, g.GetEntityDegree(alice))
	assert.Empty(t, g.TopologyRetrieve([]string{"alice"}, 5))

	// Removing again is a no-op.
	g.RemoveChunkNode("chunk1")
}

func TestExportImportRoundTrip(t *testing.T) {
	g := graph.NewKnowledgeGraph()

	alice := g.AddEntity("Alice", "person", "tester")
	paris := g.AddEntity("Paris", "place", "")
	g.AddRelationship(alice, paris, "visited", 0.8)
	g.AddChunkNode("chunk1", "", []string{alice})

	data, err := g.Export()
	require.NoError(t, err)

	restored := graph.NewKnowledgeGraph()
	require.NoError(t, restored.Import(data))

	assert.Equal(t, 2, restored.EntityCount())
	assert.Equal(t, g.GetEntityDegree(alice), restored.GetEntityDegree(alice))

	results := restored.TopologyRetrieve([]string{"alice"}, 5)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk1", results[0].ChunkID)

	// New entities after import must not collide with restored ids.
	newID := restored.AddEntity("Bob", "person", "")
	assert.NotEqual(t, alice, newID)
	assert.NotEqual(t, paris, newID)
}

func TestImportMalformed(t *testing.T) {
	g := graph.NewKnowledgeGraph()
	g.AddEntity("Alice", "person", "")

	err := g.Import([]byte("{not json"))
	assert.Error(t, err)
	assert.Equal(t, 1, g.EntityCount(), "failed import leaves the graph untouched")
}

func TestReset(t *testing.T) {
	g := graph.NewKnowledgeGraph()
	alice := g.AddEntity("Alice", "person", "")
	g.AddChunkNode("chunk1", "alice was here", []string{alice})

	g.Reset()

	assert.Equal(t, 0, g.EntityCount())
	assert.Nil(t, g.GetEntity(alice))
	assert.Empty(t, g.TopologyRetrieve([]string{"alice"}, 5))

	// Entity ids restart from scratch after a reset.
	assert.Equal(t, alice, g.AddEntity("Bob", "person", ""))
}

func TestAddChunkAssociation(t *testing.T) {
	g := graph.NewKnowledgeGraph()
	g.AddChunkNode("chunk1", "first", nil)
	g.AddChunkNode("chunk2", "second", nil)

	assert.True(t, g.AddChunkAssociation("chunk1", "chunk2", 0.9))
	assert.Equal(t, 1, g.GetEntityDegree("chunk1"))
	assert.Equal(t, 1, g.GetEntityDegree("chunk2"))

	// Duplicate, self, and unknown-chunk associations are rejected.
	assert.False(t, g.AddChunkAssociation("chunk1", "chunk2", 0.9))
	assert.False(t, g.AddChunkAssociation("chunk1", "chunk1", 0.9))
	assert.False(t, g.AddChunkAssociation("chunk1", "chunk3", 0.9))
}
