package world

import (
	"fmt"
	"math/rand"
)

// Action is a single move in the pairwise game.
type Action int

const (
	Cooperate Action = iota
	Defect
)

func (a Action) String() string {
	if a == Defect {
		return "defect"
	}
	return "cooperate"
}

func (a Action) opposite() Action {
	if a == Cooperate {
		return Defect
	}
	return Cooperate
}

// Strategy is one of the closed set of behavioral variants an agent can carry.
type Strategy string

const (
	StrategyAllCooperate Strategy = "all_cooperate"
	StrategyAllDefect    Strategy = "all_defect"
	StrategyTitForTat    Strategy = "tit_for_tat"
	StrategyPavlov       Strategy = "pavlov"
)

// repeatThreshold is the minimum last payoff at which Pavlov repeats its
// previous action instead of switching.
const repeatThreshold = 3

// Strategies returns every variant in a fixed order.
func Strategies() []Strategy {
	return []Strategy{StrategyAllCooperate, StrategyAllDefect, StrategyTitForTat, StrategyPavlov}
}

func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown strategy: %s", name)
}

func RandomStrategy(rng *rand.Rand) Strategy {
	all := Strategies()
	return all[rng.Intn(len(all))]
}

// Decide picks the next action against the given opponent. Every variant
// cooperates on the first encounter with an opponent it has no record of.
func (s Strategy) Decide(history []GameRecord, opponentID string) Action {
	last, ok := lastAgainst(history, opponentID)
	if !ok {
		return Cooperate
	}
	switch s {
	case StrategyAllCooperate:
		return Cooperate
	case StrategyAllDefect:
		return Defect
	case StrategyTitForTat:
		return last.OpponentAction
	case StrategyPavlov:
		if last.Payoff >= repeatThreshold {
			return last.MyAction
		}
		return last.MyAction.opposite()
	}
	return Cooperate
}
