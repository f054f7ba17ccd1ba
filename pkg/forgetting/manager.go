// Package forgetting implements explicit memory removal with an
// append-only audit log, plus goal-driven importance reassessment.
package forgetting

import (
	"strings"
	"sync"
	"time"

	"github.com/engram-ai/engram-go/pkg/memory"
)

// Reassessment thresholds on the lexical relevance score.
const (
	upgradeRelevance   = 0.5
	downgradeRelevance = 0.1
)

// Store is the slice of the retrieval store forgetting operates on.
type Store interface {
	Snapshot() []*memory.Chunk
	SetStage(chunkID string, stage memory.Stage) bool
	Remove(chunkID string) bool
}

// Record is one entry in the forgetting log. Records are immutable and
// the log is append-only.
type Record struct {
	ChunkID   string    `json:"chunk_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Report summarizes one reassessment pass. TotalChunks always equals
// Upgraded + Downgraded + Unchanged.
type Report struct {
	TotalChunks int `json:"total_chunks"`
	Upgraded    int `json:"upgraded"`
	Downgraded  int `json:"downgraded"`
	Unchanged   int `json:"unchanged"`
}

// Manager removes chunks on request and keeps the audit trail.
type Manager struct {
	mu  sync.Mutex
	log []Record
}

// NewManager creates a manager with an empty forgetting log.
func NewManager() *Manager {
	return &Manager{}
}

// Forget removes the chunk and appends a log record. Returns false, and
// logs nothing, for unknown ids.
func (m *Manager) Forget(store Store, chunkID, reason string) bool {
	if !store.Remove(chunkID) {
		return false
	}

	m.mu.Lock()
	m.log = append(m.log, Record{
		ChunkID:   chunkID,
		Reason:    reason,
		Timestamp: time.Now(),
	})
	m.mu.Unlock()
	return true
}

// Log returns a copy of the forgetting log in append order.
func (m *Manager) Log() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.log))
	copy(out, m.log)
	return out
}

// Reassess recomputes each chunk's importance from lexical overlap with
// the active goals and recent topics, then moves its lifecycle stage:
// relevant chunks are promoted, irrelevant ones past half their stage TTL
// are demoted, the rest are left alone. A chunk whose stage cannot move
// further counts as unchanged.
func (m *Manager) Reassess(store Store, activeGoals, recentTopics []string) Report {
	vocabulary := buildVocabulary(activeGoals, recentTopics)
	now := time.Now()

	var report Report
	for _, chunk := range store.Snapshot() {
		report.TotalChunks++

		relevance := lexicalRelevance(chunk.Content, vocabulary)
		switch {
		case relevance >= upgradeRelevance && chunk.Stage.Promote() != chunk.Stage:
			if store.SetStage(chunk.ChunkID, chunk.Stage.Promote()) {
				report.Upgraded++
				continue
			}
		case relevance <= downgradeRelevance &&
			chunk.Age(now) > chunk.Stage.DefaultTTL()/2 &&
			chunk.Stage.Demote() != chunk.Stage:
			if store.SetStage(chunk.ChunkID, chunk.Stage.Demote()) {
				report.Downgraded++
				continue
			}
		}
		report.Unchanged++
	}
	return report
}

// buildVocabulary lowercases and merges goal and topic terms.
func buildVocabulary(activeGoals, recentTopics []string) map[string]bool {
	vocabulary := make(map[string]bool)
	for _, phrase := range activeGoals {
		for _, term := range strings.Fields(strings.ToLower(phrase)) {
			vocabulary[term] = true
		}
	}
	for _, phrase := range recentTopics {
		for _, term := range strings.Fields(strings.ToLower(phrase)) {
			vocabulary[term] = true
		}
	}
	return vocabulary
}

// lexicalRelevance is the fraction of content tokens found in the
// vocabulary. Empty content or an empty vocabulary scores 0.
func lexicalRelevance(content string, vocabulary map[string]bool) float64 {
	if len(vocabulary) == 0 {
		return 0
	}
	tokens := strings.Fields(strings.ToLower(content))
	if len(tokens) == 0 {
		return 0
	}

	matched := 0
	for _, token := range tokens {
		if vocabulary[token] {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}
