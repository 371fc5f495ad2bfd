package main

import (
	"agora/internal/config"
	agoraapi "agora/pkg/agora"
)

func requestFromProfile(cfg config.Config) agoraapi.RunRequest {
	return agoraapi.RunRequest{
		Label:              cfg.Label,
		Width:              cfg.Grid.Width,
		Height:             cfg.Grid.Height,
		Agents:             cfg.Population.Agents,
		TurnsPerGeneration: cfg.Schedule.TurnsPerGeneration,
		Generations:        cfg.Schedule.Generations,
		Seed:               cfg.Seed,
		Torus:              cfg.Grid.Torus,
		PenaltyEnabled:     cfg.Penalty.Enabled,
		PenaltyRate:        cfg.Penalty.Rate,
		RandomizeMovement:  cfg.Population.RandomizeMovement,
	}
}

// overrideFromFlags applies explicitly set flags on top of a profile-backed
// request, so command-line values always win over the profile file.
func overrideFromFlags(req *agoraapi.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "label":
			req.Label = v.(string)
		case "width":
			req.Width = v.(int)
		case "height":
			req.Height = v.(int)
		case "agents":
			req.Agents = v.(int)
		case "turns":
			req.TurnsPerGeneration = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "torus":
			req.Torus = v.(bool)
		case "penalty":
			req.PenaltyEnabled = v.(bool)
		case "penalty-rate":
			req.PenaltyRate = v.(float64)
		case "randomize-movement":
			req.RandomizeMovement = v.(bool)
		}
	}
	return nil
}
