// Package movement relocates agents between turns. Decisions are planned
// against a frozen view of the grid and applied afterwards, so the order
// agents are processed in cannot change what any of them saw.
package movement

import (
	"math/rand"

	"agora/internal/world"
)

// Move is one planned relocation.
type Move struct {
	AgentID string
	To      world.Position
}

// PlanMoves decides the turn's relocations against the pre-move grid. Each
// agent draws its move chance from its variant and picks a target uniformly
// among its empty neighbors; agents without one stay put. Agents are visited
// in sorted ID order so the draw sequence is reproducible for a fixed seed.
func PlanMoves(rng *rand.Rand, g *world.Grid, torus bool) []Move {
	var moves []Move
	for _, a := range g.Agents() {
		p := a.Movement.MoveProbability(a.Mobility, a.RecentPerformance())
		if rng.Float64() >= p {
			continue
		}
		empties := g.EmptyNeighbors(a.Position(), torus)
		if len(empties) == 0 {
			continue
		}
		moves = append(moves, Move{AgentID: a.ID(), To: empties[rng.Intn(len(empties))]})
	}
	return moves
}

// ApplyMoves commits planned moves one at a time. A move whose target was
// claimed by an earlier move in the same turn is dropped, leaving that agent
// in place, so two movers can never end up sharing a cell.
func ApplyMoves(g *world.Grid, moves []Move) int {
	applied := 0
	for _, m := range moves {
		if err := g.MoveAgent(m.AgentID, m.To); err != nil {
			continue
		}
		applied++
	}
	return applied
}

// Step plans and applies one turn of movement, returning how many agents
// relocated.
func Step(rng *rand.Rand, g *world.Grid, torus bool) int {
	return ApplyMoves(g, PlanMoves(rng, g, torus))
}
