package world

import "testing"

func TestMoveProbabilityByVariant(t *testing.T) {
	cases := []struct {
		variant     MoveVariant
		mobility    float64
		performance float64
		want        float64
	}{
		{MoveAdaptive, 0.4, -1.0, 0.8},
		{MoveAdaptive, 0.4, 1.0, 0.2},
		{MoveAdaptive, 0.4, 0.0, 0.4},
		{MoveAdaptive, 0.8, -1.0, 1.0},
		{MoveRestless, 0.0, 2.0, 1.0},
		{MoveSessile, 1.0, -2.0, 0.0},
		{MoveDrifting, 0.3, -2.0, 0.3},
		{MoveDrifting, 0.3, 2.0, 0.3},
		{MoveFleeing, 0.3, -0.5, 0.6},
		{MoveFleeing, 0.7, -0.5, 1.0},
		{MoveFleeing, 0.9, 0.5, 0.0},
		{MoveSettling, 0.6, -0.5, 0.6},
		{MoveSettling, 0.6, 0.0, 0.6},
		{MoveSettling, 0.6, 0.5, 0.0},
	}
	for _, tc := range cases {
		got := tc.variant.MoveProbability(tc.mobility, tc.performance)
		if got != tc.want {
			t.Fatalf("%s mobility=%v performance=%v: expected %v, got %v",
				tc.variant, tc.mobility, tc.performance, tc.want, got)
		}
	}
}

func TestMoveProbabilityStaysInUnitInterval(t *testing.T) {
	for _, v := range MoveVariants() {
		for _, mobility := range []float64{-0.5, 0, 0.5, 1, 1.5} {
			for _, perf := range []float64{-3, 0, 3} {
				p := v.MoveProbability(mobility, perf)
				if p < 0 || p > 1 {
					t.Fatalf("%s mobility=%v perf=%v: probability %v out of range", v, mobility, perf, p)
				}
			}
		}
	}
}

func TestParseMoveVariantRoundTrips(t *testing.T) {
	for _, v := range MoveVariants() {
		parsed, err := ParseMoveVariant(string(v))
		if err != nil {
			t.Fatalf("parse %s: %v", v, err)
		}
		if parsed != v {
			t.Fatalf("expected %s, got %s", v, parsed)
		}
	}
	if _, err := ParseMoveVariant("teleporting"); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}
