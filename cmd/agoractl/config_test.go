package main

import (
	"testing"

	"agora/internal/config"
)

func sampleProfile() config.Config {
	return config.Config{
		Label: "trial",
		Seed:  7,
		Grid:  config.GridConfig{Width: 18, Height: 12, Torus: true},
		Population: config.PopulationConfig{
			Agents:            40,
			RandomizeMovement: true,
		},
		Schedule: config.ScheduleConfig{TurnsPerGeneration: 4, Generations: 6},
		Penalty:  config.PenaltyConfig{Enabled: true, Rate: 0.3},
	}
}

func TestRequestFromProfileMapsAllFields(t *testing.T) {
	req := requestFromProfile(sampleProfile())

	if req.Label != "trial" || req.Seed != 7 {
		t.Fatalf("unexpected label/seed: %+v", req)
	}
	if req.Width != 18 || req.Height != 12 || !req.Torus {
		t.Fatalf("unexpected grid mapping: %+v", req)
	}
	if req.Agents != 40 || !req.RandomizeMovement {
		t.Fatalf("unexpected population mapping: %+v", req)
	}
	if req.TurnsPerGeneration != 4 || req.Generations != 6 {
		t.Fatalf("unexpected schedule mapping: %+v", req)
	}
	if !req.PenaltyEnabled || req.PenaltyRate != 0.3 {
		t.Fatalf("unexpected penalty mapping: %+v", req)
	}
}

func TestOverrideFromFlagsAppliesOnlySetFlags(t *testing.T) {
	req := requestFromProfile(sampleProfile())

	err := overrideFromFlags(&req, map[string]bool{"gens": true, "seed": true, "penalty": true}, map[string]any{
		"label":   "flag-label",
		"gens":    11,
		"seed":    int64(99),
		"penalty": false,
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}

	if req.Generations != 11 || req.Seed != 99 {
		t.Fatalf("expected set flags to override, got gens=%d seed=%d", req.Generations, req.Seed)
	}
	if req.PenaltyEnabled {
		t.Fatal("expected penalty flag to override profile")
	}
	if req.Label != "trial" {
		t.Fatalf("expected unset label flag to keep profile value, got %s", req.Label)
	}
	if req.Width != 18 || req.Agents != 40 {
		t.Fatalf("expected untouched fields to keep profile values: %+v", req)
	}
}

func TestOverrideFromFlagsIgnoresUnknownNames(t *testing.T) {
	req := requestFromProfile(sampleProfile())
	want := req

	err := overrideFromFlags(&req, map[string]bool{"addr": true, "step-ms": true}, map[string]any{
		"width": 50,
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if req != want {
		t.Fatalf("expected request unchanged, got %+v", req)
	}
}
