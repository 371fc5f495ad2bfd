package world

import (
	"fmt"
	"math/rand"
)

// MoveVariant selects how an agent turns mobility and recent performance
// into a per-turn relocation probability.
type MoveVariant string

const (
	// MoveAdaptive doubles the urge to move while losing and halves it
	// while winning.
	MoveAdaptive MoveVariant = "adaptive"
	// MoveRestless relocates every turn it can.
	MoveRestless MoveVariant = "restless"
	// MoveSessile never relocates.
	MoveSessile MoveVariant = "sessile"
	// MoveDrifting moves at its raw mobility, ignoring performance.
	MoveDrifting MoveVariant = "drifting"
	// MoveFleeing bolts at double mobility while losing and stays put
	// otherwise.
	MoveFleeing MoveVariant = "fleeing"
	// MoveSettling moves at its mobility until it starts winning, then
	// stays put.
	MoveSettling MoveVariant = "settling"
)

// MoveVariants returns every variant in a fixed order.
func MoveVariants() []MoveVariant {
	return []MoveVariant{MoveAdaptive, MoveRestless, MoveSessile, MoveDrifting, MoveFleeing, MoveSettling}
}

func ParseMoveVariant(name string) (MoveVariant, error) {
	for _, v := range MoveVariants() {
		if string(v) == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown movement variant: %s", name)
}

func RandomMoveVariant(rng *rand.Rand) MoveVariant {
	all := MoveVariants()
	return all[rng.Intn(len(all))]
}

// MoveProbability reports the chance of attempting a relocation this turn,
// always within [0, 1].
func (v MoveVariant) MoveProbability(mobility, performance float64) float64 {
	mobility = ClampMobility(mobility)
	switch v {
	case MoveRestless:
		return 1
	case MoveSessile:
		return 0
	case MoveDrifting:
		return mobility
	case MoveFleeing:
		if performance < 0 {
			return ClampMobility(2 * mobility)
		}
		return 0
	case MoveSettling:
		if performance <= 0 {
			return mobility
		}
		return 0
	}
	p := mobility
	if performance < 0 {
		p *= 2
	} else if performance > 0 {
		p *= 0.5
	}
	return ClampMobility(p)
}
