package evo

import (
	"agora/internal/world"
)

// ScoredAgent pairs an agent with its selection weight.
type ScoredAgent struct {
	Agent  *world.Agent
	Weight float64
}

// WeightPostprocessor adjusts selection weights after scoring and before
// parent selection.
type WeightPostprocessor interface {
	Name() string
	Process(scored []ScoredAgent) []ScoredAgent
}

type NoopPostprocessor struct{}

func (NoopPostprocessor) Name() string {
	return "none"
}

func (NoopPostprocessor) Process(scored []ScoredAgent) []ScoredAgent {
	return cloneScored(scored)
}

// CooperationPenaltyPostprocessor handicaps the cooperative strategies,
// scaling the weights of tit_for_tat and pavlov agents by one minus the
// configured rate.
type CooperationPenaltyPostprocessor struct {
	Rate float64
}

func (CooperationPenaltyPostprocessor) Name() string {
	return "cooperation_penalty"
}

func (p CooperationPenaltyPostprocessor) Process(scored []ScoredAgent) []ScoredAgent {
	out := cloneScored(scored)
	for i := range out {
		switch out[i].Agent.Strategy {
		case world.StrategyTitForTat, world.StrategyPavlov:
			out[i].Weight *= 1 - p.Rate
		}
	}
	return out
}

func cloneScored(scored []ScoredAgent) []ScoredAgent {
	out := make([]ScoredAgent, len(scored))
	copy(out, scored)
	return out
}
