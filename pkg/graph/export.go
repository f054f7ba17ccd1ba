package graph

import "encoding/json"

// export is the serialized form of the graph.
type export struct {
	Entities   []Entity                   `json:"entities"`
	ChunkNodes []ChunkNode                `json:"chunk_nodes"`
	Edges      map[string]map[string]edge `json:"edges"`
	NextID     int                        `json:"next_entity_id"`
}

// Export serializes the whole graph to JSON for inclusion in a continuity
// snapshot.
func (g *KnowledgeGraph) Export() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := export{
		Entities:   make([]Entity, 0, len(g.entities)),
		ChunkNodes: make([]ChunkNode, 0, len(g.chunkNodes)),
		Edges:      g.edges,
		NextID:     g.nextEntityID,
	}
	for _, entity := range g.entities {
		out.Entities = append(out.Entities, *entity)
	}
	for _, node := range g.chunkNodes {
		out.ChunkNodes = append(out.ChunkNodes, *node)
	}

	return json.Marshal(out)
}

// Import replaces the graph's contents with previously exported state.
// Malformed payloads leave the graph untouched.
func (g *KnowledgeGraph) Import(data []byte) error {
	var in export
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.entities = make(map[string]*Entity, len(in.Entities))
	g.byName = make(map[string]string, len(in.Entities))
	for i := range in.Entities {
		entity := in.Entities[i]
		g.entities[entity.ID] = &entity
		g.byName[entity.Name] = entity.ID
	}

	g.chunkNodes = make(map[string]*ChunkNode, len(in.ChunkNodes))
	for i := range in.ChunkNodes {
		node := in.ChunkNodes[i]
		g.chunkNodes[node.ChunkID] = &node
	}

	g.edges = in.Edges
	if g.edges == nil {
		g.edges = make(map[string]map[string]edge)
	}
	g.nextEntityID = in.NextID

	return nil
}
