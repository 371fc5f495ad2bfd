// Package sim drives the turn and generation schedule over one grid world.
package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"agora/internal/evo"
	"agora/internal/game"
	"agora/internal/movement"
	"agora/internal/world"
)

// ErrGridCapacityExceeded reports a requested population larger than the
// number of cells.
var ErrGridCapacityExceeded = errors.New("agent count exceeds grid capacity")

// PlacementError reports that random placement ran out of retries before
// the whole population was placed.
type PlacementError struct {
	Requested int
	Placed    int
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("random placement incomplete: placed %d of %d agents", e.Placed, e.Requested)
}

// DefaultTurnsPerGeneration is used when the config leaves the generation
// length unset.
const DefaultTurnsPerGeneration = 10

// placementRetryFactor scales the random placement budget by the requested
// population size.
const placementRetryFactor = 10

type Config struct {
	TurnsPerGeneration int
	Torus              bool
	PenaltyEnabled     bool
	PenaltyRate        float64
	RandomizeMovement  bool
}

// Engine owns a grid and advances it turn by turn, evolving the population
// whenever a generation completes. All methods are safe for concurrent use.
type Engine struct {
	mu         sync.RWMutex
	cfg        Config
	rng        *rand.Rand
	grid       *world.Grid
	turn       int
	generation int
	completed  []Statistics
}

// New builds an engine with a freshly placed random population.
func New(width, height, agentCount int, cfg Config, rng *rand.Rand) (*Engine, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if agentCount < 0 {
		return nil, fmt.Errorf("agent count must be non-negative, got %d", agentCount)
	}
	if cfg.PenaltyRate < 0 || cfg.PenaltyRate > 1 {
		return nil, fmt.Errorf("penalty rate must be within [0,1], got %v", cfg.PenaltyRate)
	}
	if cfg.TurnsPerGeneration <= 0 {
		cfg.TurnsPerGeneration = DefaultTurnsPerGeneration
	}
	g, err := world.NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	if agentCount > g.Capacity() {
		return nil, fmt.Errorf("%d agents on %dx%d grid: %w", agentCount, width, height, ErrGridCapacityExceeded)
	}
	e := &Engine{cfg: cfg, rng: rng, grid: g}
	if err := e.populate(agentCount); err != nil {
		return nil, err
	}
	return e, nil
}

// populate scatters a fresh random population over empty cells, spending a
// bounded number of random draws before giving up.
func (e *Engine) populate(agentCount int) error {
	budget := placementRetryFactor * agentCount
	for placed := 0; placed < agentCount; placed++ {
		var pos world.Position
		found := false
		for budget > 0 {
			budget--
			candidate := world.Position{X: e.rng.Intn(e.grid.Width()), Y: e.rng.Intn(e.grid.Height())}
			if _, occupied := e.grid.AgentAt(candidate); occupied {
				continue
			}
			pos = candidate
			found = true
			break
		}
		if !found {
			return &PlacementError{Requested: agentCount, Placed: placed}
		}
		movementVariant := world.MoveAdaptive
		if e.cfg.RandomizeMovement {
			movementVariant = world.RandomMoveVariant(e.rng)
		}
		a := world.NewAgent(world.NewID(e.rng), pos, world.RandomStrategy(e.rng), movementVariant, e.rng.Float64())
		if err := e.grid.AddAgent(a); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) evoConfig() evo.Config {
	return evo.Config{
		PenaltyEnabled:    e.cfg.PenaltyEnabled,
		PenaltyRate:       e.cfg.PenaltyRate,
		RandomizeMovement: e.cfg.RandomizeMovement,
	}
}

// Step advances one turn: every adjacent pair plays one game, agents
// relocate, and when the turn closes out a generation the population is
// replaced. Returns statistics for the state the step left behind.
func (e *Engine) Step() (Statistics, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	game.ResolveTurn(e.grid, e.cfg.Torus)
	movement.Step(e.rng, e.grid, e.cfg.Torus)
	e.turn++
	if e.turn >= e.cfg.TurnsPerGeneration {
		e.completed = append(e.completed, computeStatistics(e.grid, e.generation, e.turn))
		if err := evo.NextGeneration(e.rng, e.grid, e.evoConfig()); err != nil {
			return Statistics{}, err
		}
		e.generation++
		e.turn = 0
	}
	return computeStatistics(e.grid, e.generation, e.turn), nil
}

// Statistics recomputes aggregates for the current state.
func (e *Engine) Statistics() Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return computeStatistics(e.grid, e.generation, e.turn)
}

// Agents returns snapshots of the population sorted by ID. Mutating them
// has no effect on the world.
func (e *Engine) Agents() []AgentSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return snapshotAgents(e.grid)
}

// GenerationHistory returns the end-of-generation statistics collected so
// far, oldest first. Each entry describes a generation just before its
// population was replaced.
func (e *Engine) GenerationHistory() []Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Statistics, len(e.completed))
	copy(out, e.completed)
	return out
}

func (e *Engine) Generation() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generation
}

func (e *Engine) Turn() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.turn
}

func (e *Engine) GridSize() (int, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grid.Width(), e.grid.Height()
}

// SetTorusTopology switches edge wrapping on or off for subsequent turns.
func (e *Engine) SetTorusTopology(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Torus = enabled
}

// SetStrategyPenalty reconfigures the selection handicap applied to
// cooperative strategies at the next evolution.
func (e *Engine) SetStrategyPenalty(enabled bool, rate float64) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("penalty rate must be within [0,1], got %v", rate)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.PenaltyEnabled = enabled
	e.cfg.PenaltyRate = rate
	return nil
}

// Reset throws away the world and places a fresh random population on the
// same grid under the same config, zeroing the turn and generation counters.
func (e *Engine) Reset(agentCount int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if agentCount < 0 {
		return fmt.Errorf("agent count must be non-negative, got %d", agentCount)
	}
	if agentCount > e.grid.Capacity() {
		return fmt.Errorf("%d agents on %dx%d grid: %w", agentCount, e.grid.Width(), e.grid.Height(), ErrGridCapacityExceeded)
	}
	e.grid.Clear()
	if err := e.populate(agentCount); err != nil {
		return err
	}
	e.turn = 0
	e.generation = 0
	e.completed = nil
	return nil
}
