package world

import (
	"math/rand"

	"github.com/google/uuid"
)

// HistoryCapacity bounds how many game records an agent retains. Once full,
// the oldest record is evicted regardless of opponent.
const HistoryCapacity = 10

// GameRecord is one completed game from the owning agent's point of view.
type GameRecord struct {
	OpponentID     string
	MyAction       Action
	OpponentAction Action
	Payoff         int
}

// Agent is one individual on the grid. Identity is the UUID; position is
// managed by the grid so the cell index never drifts from the agent.
type Agent struct {
	id       string
	pos      Position
	Strategy Strategy
	Movement MoveVariant
	Mobility float64
	Score    int
	history  []GameRecord
}

func NewAgent(id string, pos Position, strategy Strategy, movement MoveVariant, mobility float64) *Agent {
	return &Agent{
		id:       id,
		pos:      pos,
		Strategy: strategy,
		Movement: movement,
		Mobility: ClampMobility(mobility),
	}
}

// NewID draws a fresh UUID from the given source so identical seeds
// reproduce identical agent identities.
func NewID(rng *rand.Rand) string {
	id, _ := uuid.NewRandomFromReader(rng)
	return id.String()
}

func (a *Agent) ID() string { return a.id }

func (a *Agent) Position() Position { return a.pos }

// Decide picks this agent's next action against the given opponent.
func (a *Agent) Decide(opponentID string) Action {
	return a.Strategy.Decide(a.history, opponentID)
}

// RecordGame appends the outcome of one game, evicting the oldest record
// once the history is full, and adds the payoff to the running score.
func (a *Agent) RecordGame(opponentID string, mine, theirs Action, payoff int) {
	if len(a.history) >= HistoryCapacity {
		a.history = a.history[1:]
	}
	a.history = append(a.history, GameRecord{
		OpponentID:     opponentID,
		MyAction:       mine,
		OpponentAction: theirs,
		Payoff:         payoff,
	})
	a.Score += payoff
}

// History returns a copy of the retained game records, oldest first.
func (a *Agent) History() []GameRecord {
	out := make([]GameRecord, len(a.history))
	copy(out, a.history)
	return out
}

// CooperationRate is the fraction of this agent's own recorded actions that
// were Cooperate. With no history it reports the neutral 0.5.
func (a *Agent) CooperationRate() float64 {
	if len(a.history) == 0 {
		return 0.5
	}
	cooperated := 0
	for _, rec := range a.history {
		if rec.MyAction == Cooperate {
			cooperated++
		}
	}
	return float64(cooperated) / float64(len(a.history))
}

// RecentPerformance is the mean recorded payoff less the neutral baseline
// of 2: positive means the agent has been doing well, negative poorly.
// With no history it reports 0.
func (a *Agent) RecentPerformance() float64 {
	if len(a.history) == 0 {
		return 0
	}
	total := 0
	for _, rec := range a.history {
		total += rec.Payoff
	}
	return float64(total)/float64(len(a.history)) - 2.0
}

// lastAgainst finds the most recent record against the given opponent.
func lastAgainst(history []GameRecord, opponentID string) (GameRecord, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].OpponentID == opponentID {
			return history[i], true
		}
	}
	return GameRecord{}, false
}

// ClampMobility bounds a mobility value to the unit interval.
func ClampMobility(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
