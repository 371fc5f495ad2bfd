package world

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrPositionOccupied = errors.New("position already occupied")
	ErrAgentNotFound    = errors.New("agent not found")
)

// Grid holds the population and a cell index kept in lockstep: every agent
// occupies exactly one cell and no cell holds more than one agent.
type Grid struct {
	width  int
	height int
	agents map[string]*Agent
	cells  map[Position]string
}

func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", width, height)
	}
	return &Grid{
		width:  width,
		height: height,
		agents: make(map[string]*Agent),
		cells:  make(map[Position]string),
	}, nil
}

func (g *Grid) Width() int { return g.width }

func (g *Grid) Height() int { return g.height }

// Capacity is the number of cells, the hard ceiling on population size.
func (g *Grid) Capacity() int { return g.width * g.height }

// Len is the current population size.
func (g *Grid) Len() int { return len(g.agents) }

func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// Wrap maps a position onto the grid torus-style, folding either coordinate
// across the matching edge.
func (g *Grid) Wrap(p Position) Position {
	return Position{
		X: ((p.X % g.width) + g.width) % g.width,
		Y: ((p.Y % g.height) + g.height) % g.height,
	}
}

// Neighbors returns the Moore neighborhood of p. On a torus every cell has
// all eight neighbors, wrapped across the edges; on a bounded grid offsets
// falling outside are dropped, so corners keep three and edges five.
func (g *Grid) Neighbors(p Position, torus bool) []Position {
	out := make([]Position, 0, 8)
	for _, off := range mooreOffsets {
		n := Position{X: p.X + off[0], Y: p.Y + off[1]}
		if torus {
			out = append(out, g.Wrap(n))
			continue
		}
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// EmptyNeighbors returns the distinct unoccupied cells in the Moore
// neighborhood of p.
func (g *Grid) EmptyNeighbors(p Position, torus bool) []Position {
	neighbors := g.Neighbors(p, torus)
	out := make([]Position, 0, len(neighbors))
	seen := make(map[Position]struct{}, len(neighbors))
	for _, n := range neighbors {
		if _, occupied := g.cells[n]; occupied {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// AddAgent places an agent at its current position.
func (g *Grid) AddAgent(a *Agent) error {
	if _, exists := g.agents[a.ID()]; exists {
		return fmt.Errorf("agent %s already on grid", a.ID())
	}
	if !g.InBounds(a.Position()) {
		return fmt.Errorf("position (%d,%d) outside %dx%d grid", a.Position().X, a.Position().Y, g.width, g.height)
	}
	if _, occupied := g.cells[a.Position()]; occupied {
		return fmt.Errorf("add agent at (%d,%d): %w", a.Position().X, a.Position().Y, ErrPositionOccupied)
	}
	g.agents[a.ID()] = a
	g.cells[a.Position()] = a.ID()
	return nil
}

// MoveAgent relocates an agent to the target cell, refusing occupied cells
// so the one-agent-per-cell invariant survives every call.
func (g *Grid) MoveAgent(id string, to Position) error {
	a, ok := g.agents[id]
	if !ok {
		return fmt.Errorf("move agent %s: %w", id, ErrAgentNotFound)
	}
	if !g.InBounds(to) {
		return fmt.Errorf("position (%d,%d) outside %dx%d grid", to.X, to.Y, g.width, g.height)
	}
	if _, occupied := g.cells[to]; occupied {
		return fmt.Errorf("move agent %s to (%d,%d): %w", id, to.X, to.Y, ErrPositionOccupied)
	}
	delete(g.cells, a.pos)
	g.cells[to] = id
	a.pos = to
	return nil
}

func (g *Grid) Agent(id string) (*Agent, bool) {
	a, ok := g.agents[id]
	return a, ok
}

func (g *Grid) AgentAt(p Position) (*Agent, bool) {
	id, ok := g.cells[p]
	if !ok {
		return nil, false
	}
	return g.agents[id], true
}

// IDs returns every agent ID in sorted order. Iterating in this order keeps
// any randomized per-agent processing reproducible for a fixed seed.
func (g *Grid) IDs() []string {
	ids := make([]string, 0, len(g.agents))
	for id := range g.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Agents returns the population sorted by ID.
func (g *Grid) Agents() []*Agent {
	out := make([]*Agent, 0, len(g.agents))
	for _, id := range g.IDs() {
		out = append(out, g.agents[id])
	}
	return out
}

// Clear removes every agent, keeping the dimensions.
func (g *Grid) Clear() {
	g.agents = make(map[string]*Agent)
	g.cells = make(map[Position]string)
}
