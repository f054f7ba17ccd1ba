package consolidation

import (
	"math/rand"

	"github.com/engram-ai/engram-go/pkg/telemetry"
)

// FitnessWeights are the relative contributions of each fitness signal.
// They sum to 1.0.
type FitnessWeights struct {
	Quality      float64
	HitRate      float64
	QHealth      float64
	LatencyScore float64
}

// DefaultFitnessWeights returns the optimizer's default weighting.
func DefaultFitnessWeights() FitnessWeights {
	return FitnessWeights{
		Quality:      0.35,
		HitRate:      0.30,
		QHealth:      0.20,
		LatencyScore: 0.15,
	}
}

// Optimizer is the sleep-cycle hill climber: it perturbs the tunable
// parameters with Gaussian noise and accepts a candidate only when its
// fitness against recent telemetry improves on the current parameters.
//
// This is local search, not gradient descent: no global optimum is
// guaranteed, only monotonic improvement or a no-op per step.
type Optimizer struct {
	rng     *rand.Rand
	weights FitnessWeights
}

// NewOptimizer creates an optimizer with the given random seed. The same
// seed yields the same perturbation sequence, keeping runs reproducible.
func NewOptimizer(seed int64) *Optimizer {
	return &Optimizer{
		rng:     rand.New(rand.NewSource(seed)),
		weights: DefaultFitnessWeights(),
	}
}

// Perturb applies clamped Gaussian noise to each tunable threshold and
// re-enforces the threshold ordering. MaxForgetPerCycle is not perturbed.
func (o *Optimizer) Perturb(params TunableParams) TunableParams {
	candidate := params
	candidate.StrengthenThreshold += o.noise()
	candidate.ConsolidationThreshold += o.noise()
	candidate.ForgetThreshold += o.noise()
	candidate.ConnectionSimilarity += o.noise()
	candidate.LearningRate += o.noise()
	return candidate.EnforceOrdering()
}

// noise draws one Gaussian sample with std PerturbationStd, clamped to
// +-MaxPerturbation.
func (o *Optimizer) noise() float64 {
	return clamp(o.rng.NormFloat64()*PerturbationStd, -MaxPerturbation, MaxPerturbation)
}

// Fitness scores a parameter set against the current corpus and recent
// retrieval telemetry:
//   - quality: mean Q-value of the chunks the params would retain
//   - hitRate: fraction of recent retrievals that returned results
//   - qHealth: fraction of chunks at or above the consolidation threshold
//   - latencyScore: inverse of the mean retrieval latency
//
// The weighted sum lands in [0,1].
func (o *Optimizer) Fitness(params TunableParams, qValues []float64, events []telemetry.Event) float64 {
	quality := 0.0
	retainedQ := 0.0
	retained := 0
	healthy := 0
	for _, q := range qValues {
		if q > params.ForgetThreshold {
			retainedQ += q
			retained++
		}
		if q >= params.ConsolidationThreshold {
			healthy++
		}
	}
	if retained > 0 {
		quality = retainedQ / float64(retained)
	}

	qHealth := 0.0
	if len(qValues) > 0 {
		qHealth = float64(healthy) / float64(len(qValues))
	}

	hitRate := 0.0
	latencyScore := 0.0
	if len(events) > 0 {
		hits := 0
		totalLatency := 0.0
		for _, ev := range events {
			if ev.ResultCount > 0 {
				hits++
			}
			totalLatency += ev.LatencyMs
		}
		hitRate = float64(hits) / float64(len(events))
		latencyScore = 1.0 / (1.0 + totalLatency/float64(len(events))/100.0)
	}

	return o.weights.Quality*quality +
		o.weights.HitRate*hitRate +
		o.weights.QHealth*qHealth +
		o.weights.LatencyScore*latencyScore
}

// Optimize runs one hill-climbing step: perturb the current parameters,
// compare fitness, and keep whichever wins. The boolean reports whether
// the candidate was accepted.
func (o *Optimizer) Optimize(current TunableParams, qValues []float64, events []telemetry.Event) (TunableParams, bool) {
	current = current.EnforceOrdering()
	candidate := o.Perturb(current)

	if o.Fitness(candidate, qValues, events) > o.Fitness(current, qValues, events) {
		return candidate, true
	}
	return current, false
}
