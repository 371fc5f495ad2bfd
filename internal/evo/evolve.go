// Package evo replaces the population between generations: score-weighted
// parent selection, trait crossover, mutation, and random re-placement.
package evo

import (
	"fmt"
	"math/rand"

	"agora/internal/world"
)

const (
	// MutationRate is the per-offspring chance of any mutation at all.
	MutationRate = 0.05
	// MobilityMutationDelta bounds the uniform mobility perturbation.
	MobilityMutationDelta = 0.2
	// placementRetryFactor scales the random placement budget by the
	// population size.
	placementRetryFactor = 10
)

type Config struct {
	PenaltyEnabled    bool
	PenaltyRate       float64
	RandomizeMovement bool
}

func (c Config) postprocessor() WeightPostprocessor {
	if c.PenaltyEnabled {
		return CooperationPenaltyPostprocessor{Rate: c.PenaltyRate}
	}
	return NoopPostprocessor{}
}

// NextGeneration replaces the grid's population in place with exactly as
// many offspring as there were parents. Offspring start with empty
// histories and zero scores at freshly drawn positions.
func NextGeneration(rng *rand.Rand, g *world.Grid, cfg Config) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	n := g.Len()
	if n == 0 {
		return nil
	}

	scored := cfg.postprocessor().Process(SelectionWeights(g.Agents()))
	selector := RouletteSelector{}
	parents := make([]*world.Agent, 0, n)
	for i := 0; i < n; i++ {
		parent, err := selector.PickParent(rng, scored)
		if err != nil {
			return err
		}
		parents = append(parents, parent)
	}

	positions := assignPositions(rng, g, n)
	offspring := make([]*world.Agent, 0, n)
	for i := 0; i < n; i++ {
		child := spawn(rng, parents, positions[i], cfg)
		mutate(rng, child, cfg)
		offspring = append(offspring, child)
	}

	g.Clear()
	for _, child := range offspring {
		if err := g.AddAgent(child); err != nil {
			return fmt.Errorf("place offspring: %w", err)
		}
	}
	return nil
}

// spawn builds one offspring from two parents drawn uniformly from the
// selected pool, possibly the same one twice. With fewer than two parents
// available it falls back to a fresh random agent.
func spawn(rng *rand.Rand, parents []*world.Agent, pos world.Position, cfg Config) *world.Agent {
	id := world.NewID(rng)
	if len(parents) < 2 {
		return randomAgent(rng, id, pos, cfg)
	}
	p1 := parents[rng.Intn(len(parents))]
	p2 := parents[rng.Intn(len(parents))]
	strategy := p1.Strategy
	if rng.Intn(2) == 1 {
		strategy = p2.Strategy
	}
	movement := p1.Movement
	if cfg.RandomizeMovement && rng.Intn(2) == 1 {
		movement = p2.Movement
	}
	mobility := (p1.Mobility + p2.Mobility) / 2
	return world.NewAgent(id, pos, strategy, movement, mobility)
}

func randomAgent(rng *rand.Rand, id string, pos world.Position, cfg Config) *world.Agent {
	movement := world.MoveAdaptive
	if cfg.RandomizeMovement {
		movement = world.RandomMoveVariant(rng)
	}
	return world.NewAgent(id, pos, world.RandomStrategy(rng), movement, rng.Float64())
}

// mutate perturbs a fraction of offspring: an occasional strategy re-roll
// (which may land on the same strategy) and always a bounded mobility
// nudge for the mutated individual.
func mutate(rng *rand.Rand, a *world.Agent, cfg Config) {
	if rng.Float64() >= MutationRate {
		return
	}
	if rng.Float64() < 0.5 {
		a.Strategy = world.RandomStrategy(rng)
	}
	if cfg.RandomizeMovement && rng.Float64() < 0.5 {
		a.Movement = world.RandomMoveVariant(rng)
	}
	delta := (rng.Float64()*2 - 1) * MobilityMutationDelta
	a.Mobility = world.ClampMobility(a.Mobility + delta)
}

// assignPositions draws one cell per offspring. Random non-colliding draws
// run against a budget scaled by the population size; once spent, remaining
// offspring take free cells in row scan order, so placement terminates at
// any density and no two offspring share a cell.
func assignPositions(rng *rand.Rand, g *world.Grid, n int) []world.Position {
	claimed := make(map[world.Position]struct{}, n)
	out := make([]world.Position, 0, n)
	for budget := placementRetryFactor * n; len(out) < n && budget > 0; budget-- {
		p := world.Position{X: rng.Intn(g.Width()), Y: rng.Intn(g.Height())}
		if _, taken := claimed[p]; taken {
			continue
		}
		claimed[p] = struct{}{}
		out = append(out, p)
	}
	for y := 0; y < g.Height() && len(out) < n; y++ {
		for x := 0; x < g.Width() && len(out) < n; x++ {
			p := world.Position{X: x, Y: y}
			if _, taken := claimed[p]; taken {
				continue
			}
			claimed[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
