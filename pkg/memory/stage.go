package memory

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stage classifies a chunk's position in the memory lifecycle.
//
// Stages are ordered: Sensory < Working < Episodic < Semantic. Durability
// and default TTL both increase with the stage; semantic memories are the
// most durable and longest-lived.
type Stage int

const (
	// StageSensory holds raw, very short-lived impressions.
	StageSensory Stage = iota

	// StageWorking is the default stage for newly ingested content.
	StageWorking

	// StageEpisodic holds important or urgent experience memories.
	StageEpisodic

	// StageSemantic holds consolidated knowledge; explicit "knowledge"
	// content is placed here directly.
	StageSemantic
)

var stageNames = map[Stage]string{
	StageSensory:  "SENSORY",
	StageWorking:  "WORKING",
	StageEpisodic: "EPISODIC",
	StageSemantic: "SEMANTIC",
}

// String returns the stage name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ParseStage parses a stage name. Unknown names return an error so callers
// can skip or default bad records during deserialization.
func ParseStage(name string) (Stage, error) {
	for stage, stageName := range stageNames {
		if stageName == name {
			return stage, nil
		}
	}
	return StageWorking, fmt.Errorf("memory: unknown stage %q", name)
}

// DurabilityWeight returns how strongly the stage resists decay and
// forgetting. Strictly increasing with the stage.
func (s Stage) DurabilityWeight() float64 {
	switch s {
	case StageSensory:
		return 0.25
	case StageWorking:
		return 0.5
	case StageEpisodic:
		return 0.75
	case StageSemantic:
		return 1.0
	default:
		return 0.5
	}
}

// DefaultTTL returns the stage's default time-to-live. Strictly increasing
// with the stage; semantic memories have the longest TTL.
func (s Stage) DefaultTTL() time.Duration {
	switch s {
	case StageSensory:
		return 5 * time.Minute
	case StageWorking:
		return 24 * time.Hour
	case StageEpisodic:
		return 30 * 24 * time.Hour
	case StageSemantic:
		return 365 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Promote returns the next higher stage, capped at StageSemantic.
func (s Stage) Promote() Stage {
	if s >= StageSemantic {
		return StageSemantic
	}
	return s + 1
}

// Demote returns the next lower stage, capped at StageSensory.
func (s Stage) Demote() Stage {
	if s <= StageSensory {
		return StageSensory
	}
	return s - 1
}

// MarshalJSON encodes the stage as its name.
func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a stage name. Unknown names default to
// StageWorking rather than failing the surrounding record.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	stage, err := ParseStage(name)
	if err != nil {
		*s = StageWorking
		return nil
	}
	*s = stage
	return nil
}
