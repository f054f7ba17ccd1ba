// Package snapshot implements the versioned continuity snapshot codec:
// a whole-subsystem serialization format with deterministic schema
// migration between versions.
//
// Payloads are JSON with an embedded schema_version tag. Decoding never
// panics: malformed input at any stage yields nil rather than partial
// data.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"
)

// CurrentSchemaVersion is the version Encode produces.
const CurrentSchemaVersion = 3

// ContinuitySnapshot is the full exported state of the memory subsystem.
// The *JSON fields carry nested payloads opaquely, so the codec migrates
// the envelope without understanding every subsystem's internals.
type ContinuitySnapshot struct {
	// SchemaVersion is the payload's schema version tag.
	SchemaVersion int `json:"schema_version"`

	// Identity names the agent the snapshot belongs to.
	Identity string `json:"identity"`

	// CreatedAt is when the snapshot was taken.
	CreatedAt time.Time `json:"created_at"`

	// Notes is free-form operator text.
	Notes string `json:"notes,omitempty"`

	// RAGChunksJSON is the serialized chunk collection.
	RAGChunksJSON string `json:"rag_chunks_json"`

	// GraphJSON is the serialized knowledge graph.
	GraphJSON string `json:"graph_json,omitempty"`

	// EmotionalHistoryJSON is the serialized emotional state history.
	EmotionalHistoryJSON string `json:"emotional_history_json,omitempty"`

	// PersonalityTraitsJSON is the serialized personality trait vector.
	PersonalityTraitsJSON string `json:"personality_traits_json,omitempty"`

	// ConsolidationStatsJSON is the serialized consolidation stats.
	ConsolidationStatsJSON string `json:"consolidation_stats_json"`

	// ConstitutionalMemoryJSON is the serialized constitutional memory.
	ConstitutionalMemoryJSON string `json:"constitutional_memory_json"`
}

// MigrationResult is the outcome of DecodeWithMigration.
type MigrationResult struct {
	// Snapshot is the decoded, current-schema snapshot.
	Snapshot *ContinuitySnapshot

	// WasMigrated is true when the payload was older than the current
	// schema.
	WasMigrated bool

	// MigrationPath documents the versions traversed, e.g. "v1->v3".
	// Current-version payloads report "v3->v3".
	MigrationPath string

	// NormalizedPayload is the snapshot re-encoded at the current schema.
	NormalizedPayload []byte
}

// Encode serializes a snapshot, stamping the current schema version.
func Encode(s *ContinuitySnapshot) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot: nil snapshot")
	}
	stamped := *s
	stamped.SchemaVersion = CurrentSchemaVersion
	if stamped.ConsolidationStatsJSON == "" {
		stamped.ConsolidationStatsJSON = "{}"
	}
	if stamped.ConstitutionalMemoryJSON == "" {
		stamped.ConstitutionalMemoryJSON = "{}"
	}
	return json.Marshal(&stamped)
}

// Decode parses a current-schema payload. Malformed input returns nil,
// never an error or panic.
func Decode(payload []byte) *ContinuitySnapshot {
	result := DecodeWithMigration(payload)
	if result == nil {
		return nil
	}
	return result.Snapshot
}

// DecodeWithMigration parses a payload of any supported schema version
// and migrates it forward to the current schema:
//
//	v1->v2: memories_json becomes rag_chunks_json; missing consolidation
//	        stats default to "{}".
//	v2->v3: persona_json becomes personality_traits_json;
//	        constitutional_memory_json is added, defaulting to "{}".
//
// Migrations are deterministic field mappings applied in sequence, so a
// v1 payload reports the path "v1->v3". Corrupted or unparseable payloads
// at any stage return nil.
func DecodeWithMigration(payload []byte) *MigrationResult {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}

	version := schemaVersion(raw)
	if version < 1 || version > CurrentSchemaVersion {
		return nil
	}
	original := version

	if version == 1 {
		raw = migrateV1ToV2(raw)
		version = 2
	}
	if version == 2 {
		raw = migrateV2ToV3(raw)
		version = 3
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	var snapshot ContinuitySnapshot
	if err := json.Unmarshal(normalized, &snapshot); err != nil {
		return nil
	}
	snapshot.SchemaVersion = CurrentSchemaVersion

	normalized, err = json.Marshal(&snapshot)
	if err != nil {
		return nil
	}

	return &MigrationResult{
		Snapshot:          &snapshot,
		WasMigrated:       original < CurrentSchemaVersion,
		MigrationPath:     fmt.Sprintf("v%d->v%d", original, CurrentSchemaVersion),
		NormalizedPayload: normalized,
	}
}

// schemaVersion reads the schema_version tag; payloads without one are
// treated as v1 (the tag was introduced in v2).
func schemaVersion(raw map[string]json.RawMessage) int {
	tag, ok := raw["schema_version"]
	if !ok {
		return 1
	}
	var version int
	if err := json.Unmarshal(tag, &version); err != nil {
		return 0
	}
	return version
}

// migrateV1ToV2 renames memories_json to rag_chunks_json and defaults
// the consolidation stats.
func migrateV1ToV2(raw map[string]json.RawMessage) map[string]json.RawMessage {
	if memories, ok := raw["memories_json"]; ok {
		raw["rag_chunks_json"] = memories
		delete(raw, "memories_json")
	}
	if _, ok := raw["consolidation_stats_json"]; !ok {
		raw["consolidation_stats_json"] = json.RawMessage(`"{}"`)
	}
	raw["schema_version"] = json.RawMessage("2")
	return raw
}

// migrateV2ToV3 renames persona_json to personality_traits_json and adds
// the constitutional memory payload.
func migrateV2ToV3(raw map[string]json.RawMessage) map[string]json.RawMessage {
	if persona, ok := raw["persona_json"]; ok {
		raw["personality_traits_json"] = persona
		delete(raw, "persona_json")
	}
	if _, ok := raw["constitutional_memory_json"]; !ok {
		raw["constitutional_memory_json"] = json.RawMessage(`"{}"`)
	}
	raw["schema_version"] = json.RawMessage("3")
	return raw
}
