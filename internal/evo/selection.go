package evo

import (
	"fmt"
	"math/rand"

	"agora/internal/world"
)

// SelectionWeights turns raw scores into roulette weights. Every score is
// shifted by the same amount so the minimum weight lands on 1, which keeps
// the worst performers selectable instead of starving them outright.
func SelectionWeights(agents []*world.Agent) []ScoredAgent {
	scored := make([]ScoredAgent, len(agents))
	if len(agents) == 0 {
		return scored
	}
	minScore := agents[0].Score
	for _, a := range agents[1:] {
		if a.Score < minScore {
			minScore = a.Score
		}
	}
	for i, a := range agents {
		scored[i] = ScoredAgent{Agent: a, Weight: float64(a.Score-minScore) + 1}
	}
	return scored
}

// RouletteSelector draws parents in proportion to their weights. When no
// weight survives postprocessing it degrades to a uniform draw rather than
// failing the generation.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) PickParent(rng *rand.Rand, scored []ScoredAgent) (*world.Agent, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("no scored agents to select from")
	}
	total := 0.0
	for _, s := range scored {
		total += s.Weight
	}
	if total <= 0 {
		return scored[rng.Intn(len(scored))].Agent, nil
	}
	pick := rng.Float64() * total
	acc := 0.0
	for _, s := range scored {
		acc += s.Weight
		if pick <= acc {
			return s.Agent, nil
		}
	}
	return scored[len(scored)-1].Agent, nil
}
