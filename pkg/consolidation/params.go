// Package consolidation implements the periodic memory reorganization
// pass and the sleep-cycle optimizer that tunes its thresholds.
//
// A consolidation run walks the chunk corpus in five phases: strengthen
// high-utility chunks, weaken marginal ones, forget the worst, connect
// semantically close chunks in the knowledge graph, and finally let the
// optimizer propose better thresholds for the next run.
package consolidation

import "math"

// Threshold ordering and perturbation constants.
const (
	// MinThresholdGap is the minimum separation enforced between
	// forget < consolidation < strengthen thresholds.
	MinThresholdGap = 0.05

	// PerturbationStd is the standard deviation of the Gaussian noise
	// applied to each tunable parameter.
	PerturbationStd = 0.05

	// MaxPerturbation caps the magnitude of any single perturbation.
	MaxPerturbation = 0.1
)

// Per-parameter bounds for the optimizer.
const (
	minForgetThreshold        = 0.05
	maxForgetThreshold        = 0.5
	minConsolidationThreshold = 0.2
	maxConsolidationThreshold = 0.8
	minStrengthenThreshold    = 0.5
	maxStrengthenThreshold    = 0.95
	minLearningRate           = 0.01
	maxLearningRate           = 0.5
	minConnectionSimilarity   = 0.5
	maxConnectionSimilarity   = 0.99
)

// TunableParams are the thresholds a consolidation pass runs with. The
// sleep-cycle optimizer perturbs them between runs.
type TunableParams struct {
	// StrengthenThreshold promotes chunks with qValue at or above it.
	StrengthenThreshold float64 `json:"strengthen_threshold"`

	// ConsolidationThreshold demotes chunks below it (but above the
	// forget threshold).
	ConsolidationThreshold float64 `json:"consolidation_threshold"`

	// ForgetThreshold removes chunks at or below it.
	ForgetThreshold float64 `json:"forget_threshold"`

	// ConnectionSimilarity is the minimum embedding similarity for two
	// chunks to gain a knowledge graph association.
	ConnectionSimilarity float64 `json:"connection_similarity"`

	// LearningRate is the feedback step size the optimizer co-tunes.
	LearningRate float64 `json:"learning_rate"`

	// MaxForgetPerCycle bounds removals per pass. Not perturbed.
	MaxForgetPerCycle int `json:"max_forget_per_cycle"`
}

// DefaultTunableParams returns the initial thresholds used before any
// optimization has run.
func DefaultTunableParams() TunableParams {
	return TunableParams{
		StrengthenThreshold:    0.7,
		ConsolidationThreshold: 0.4,
		ForgetThreshold:        0.2,
		ConnectionSimilarity:   0.8,
		LearningRate:           0.1,
		MaxForgetPerCycle:      10,
	}
}

// EnforceOrdering clamps every parameter into its bounds and restores the
// invariant forget < consolidation < strengthen with at least
// MinThresholdGap between neighbors. The forget threshold is the anchor;
// the upper thresholds are pushed up as needed.
func (p TunableParams) EnforceOrdering() TunableParams {
	p.ForgetThreshold = clamp(p.ForgetThreshold, minForgetThreshold, maxForgetThreshold)
	p.ConsolidationThreshold = clamp(p.ConsolidationThreshold, minConsolidationThreshold, maxConsolidationThreshold)
	p.StrengthenThreshold = clamp(p.StrengthenThreshold, minStrengthenThreshold, maxStrengthenThreshold)
	p.ConnectionSimilarity = clamp(p.ConnectionSimilarity, minConnectionSimilarity, maxConnectionSimilarity)
	p.LearningRate = clamp(p.LearningRate, minLearningRate, maxLearningRate)
	if p.MaxForgetPerCycle < 1 {
		p.MaxForgetPerCycle = 1
	}

	p.ConsolidationThreshold = math.Max(p.ConsolidationThreshold, p.ForgetThreshold+MinThresholdGap)
	p.StrengthenThreshold = math.Max(p.StrengthenThreshold, p.ConsolidationThreshold+MinThresholdGap)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
