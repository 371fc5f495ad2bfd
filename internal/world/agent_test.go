package world

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestRecordGameBoundsHistoryAndAccumulatesScore(t *testing.T) {
	a := NewAgent("a", Position{0, 0}, StrategyTitForTat, MoveAdaptive, 0.5)
	for i := 0; i < HistoryCapacity+2; i++ {
		a.RecordGame(fmt.Sprintf("opp-%d", i), Cooperate, Cooperate, 3)
	}
	history := a.History()
	if len(history) != HistoryCapacity {
		t.Fatalf("expected history capped at %d, got %d", HistoryCapacity, len(history))
	}
	if history[0].OpponentID != "opp-2" {
		t.Fatalf("expected oldest records evicted, oldest is %s", history[0].OpponentID)
	}
	if a.Score != (HistoryCapacity+2)*3 {
		t.Fatalf("score must count evicted games too, got %d", a.Score)
	}
}

func TestCooperationRateDefaultsToHalf(t *testing.T) {
	a := NewAgent("a", Position{0, 0}, StrategyAllDefect, MoveAdaptive, 0.5)
	if got := a.CooperationRate(); got != 0.5 {
		t.Fatalf("expected 0.5 with empty history, got %v", got)
	}
	a.RecordGame("opp", Cooperate, Defect, 0)
	a.RecordGame("opp", Defect, Defect, 1)
	a.RecordGame("opp", Cooperate, Cooperate, 3)
	a.RecordGame("opp", Cooperate, Cooperate, 3)
	if got := a.CooperationRate(); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
}

func TestRecentPerformanceCentersOnBaseline(t *testing.T) {
	a := NewAgent("a", Position{0, 0}, StrategyPavlov, MoveAdaptive, 0.5)
	if got := a.RecentPerformance(); got != 0 {
		t.Fatalf("expected 0 with empty history, got %v", got)
	}
	a.RecordGame("opp", Cooperate, Cooperate, 3)
	a.RecordGame("opp", Defect, Cooperate, 5)
	if got := a.RecentPerformance(); got != 2.0 {
		t.Fatalf("expected mean 4 minus baseline 2, got %v", got)
	}
	b := NewAgent("b", Position{1, 0}, StrategyPavlov, MoveAdaptive, 0.5)
	b.RecordGame("opp", Cooperate, Defect, 0)
	b.RecordGame("opp", Defect, Defect, 1)
	if got := b.RecentPerformance(); got != -1.5 {
		t.Fatalf("expected -1.5 for a losing streak, got %v", got)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	a := NewAgent("a", Position{0, 0}, StrategyTitForTat, MoveAdaptive, 0.5)
	a.RecordGame("opp", Cooperate, Cooperate, 3)
	history := a.History()
	history[0].Payoff = 99
	if a.History()[0].Payoff != 3 {
		t.Fatal("mutating the returned history leaked into the agent")
	}
}

func TestDecideUsesOwnHistory(t *testing.T) {
	a := NewAgent("a", Position{0, 0}, StrategyTitForTat, MoveAdaptive, 0.5)
	a.RecordGame("opp", Cooperate, Defect, 0)
	if got := a.Decide("opp"); got != Defect {
		t.Fatalf("expected tit_for_tat to mirror Defect, got %v", got)
	}
	if got := a.Decide("stranger"); got != Cooperate {
		t.Fatalf("expected Cooperate against unknown opponent, got %v", got)
	}
}

func TestNewAgentClampsMobility(t *testing.T) {
	a := NewAgent("a", Position{0, 0}, StrategyAllCooperate, MoveAdaptive, 1.7)
	if a.Mobility != 1 {
		t.Fatalf("expected mobility clamped to 1, got %v", a.Mobility)
	}
	b := NewAgent("b", Position{1, 0}, StrategyAllCooperate, MoveAdaptive, -0.3)
	if b.Mobility != 0 {
		t.Fatalf("expected mobility clamped to 0, got %v", b.Mobility)
	}
}

func TestNewIDIsReproducibleFromSeed(t *testing.T) {
	first := NewID(rand.New(rand.NewSource(7)))
	second := NewID(rand.New(rand.NewSource(7)))
	if first != second {
		t.Fatalf("expected identical ids for identical seeds, got %s and %s", first, second)
	}
	other := NewID(rand.New(rand.NewSource(8)))
	if first == other {
		t.Fatal("expected different seeds to yield different ids")
	}
}
