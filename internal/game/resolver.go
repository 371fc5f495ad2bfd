// Package game resolves the pairwise games played between grid neighbors
// each turn.
package game

import (
	"agora/internal/world"
)

// Payoff values for one game, from the deciding agent's side.
const (
	PayoffMutualCooperation = 3
	PayoffSucker            = 0
	PayoffTemptation        = 5
	PayoffMutualDefection   = 1
)

// Payoffs returns both payoffs for a pair of simultaneous actions.
func Payoffs(mine, theirs world.Action) (int, int) {
	switch {
	case mine == world.Cooperate && theirs == world.Cooperate:
		return PayoffMutualCooperation, PayoffMutualCooperation
	case mine == world.Cooperate && theirs == world.Defect:
		return PayoffSucker, PayoffTemptation
	case mine == world.Defect && theirs == world.Cooperate:
		return PayoffTemptation, PayoffSucker
	default:
		return PayoffMutualDefection, PayoffMutualDefection
	}
}

// Play runs one game. Both agents decide from their histories before either
// outcome is recorded, so the moves are simultaneous.
func Play(a, b *world.Agent) (world.Action, world.Action) {
	actionA := a.Decide(b.ID())
	actionB := b.Decide(a.ID())
	payoffA, payoffB := Payoffs(actionA, actionB)
	a.RecordGame(b.ID(), actionA, actionB, payoffA)
	b.RecordGame(a.ID(), actionB, actionA, payoffB)
	return actionA, actionB
}

// Pair is an unordered adjacent pair, held with A.ID() < B.ID().
type Pair struct {
	A *world.Agent
	B *world.Agent
}

// AdjacentPairs enumerates every pair of neighboring agents exactly once,
// in a deterministic order.
func AdjacentPairs(g *world.Grid, torus bool) []Pair {
	var pairs []Pair
	seen := make(map[string]struct{})
	for _, a := range g.Agents() {
		for _, n := range g.Neighbors(a.Position(), torus) {
			b, ok := g.AgentAt(n)
			if !ok || a.ID() >= b.ID() {
				continue
			}
			key := a.ID() + "|" + b.ID()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pairs = append(pairs, Pair{A: a, B: b})
		}
	}
	return pairs
}

// ResolveTurn plays one game for every adjacent pair and returns how many
// games were played.
func ResolveTurn(g *world.Grid, torus bool) int {
	pairs := AdjacentPairs(g, torus)
	for _, p := range pairs {
		Play(p.A, p.B)
	}
	return len(pairs)
}
