// Package config loads run profiles from YAML, merged over embedded
// defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config describes one simulation run profile.
type Config struct {
	Label      string           `yaml:"label"`
	Seed       int64            `yaml:"seed"`
	Grid       GridConfig       `yaml:"grid"`
	Population PopulationConfig `yaml:"population"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Penalty    PenaltyConfig    `yaml:"penalty"`
}

// GridConfig holds world dimensions and topology.
type GridConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	Torus  bool `yaml:"torus"`
}

// PopulationConfig holds initial population parameters.
type PopulationConfig struct {
	Agents            int  `yaml:"agents"`
	RandomizeMovement bool `yaml:"randomize_movement"`
}

// ScheduleConfig holds the turn and generation schedule.
type ScheduleConfig struct {
	TurnsPerGeneration int `yaml:"turns_per_generation"`
	Generations        int `yaml:"generations"`
}

// PenaltyConfig holds the cooperative-strategy selection handicap.
type PenaltyConfig struct {
	Enabled bool    `yaml:"enabled"`
	Rate    float64 `yaml:"rate"`
}

// Default returns the embedded default profile.
func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Load reads a profile from a YAML file, merging it over the embedded
// defaults. Fields absent from the file keep their default values. An
// empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading profile: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing profile: %w", err)
		}
	}

	return cfg, nil
}

// Validate applies the same constraints the engine constructor enforces,
// so a bad profile fails before any work starts.
func (c Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if c.Population.Agents < 0 {
		return fmt.Errorf("agent count must be non-negative, got %d", c.Population.Agents)
	}
	if c.Population.Agents > c.Grid.Width*c.Grid.Height {
		return fmt.Errorf("%d agents exceed %dx%d grid capacity", c.Population.Agents, c.Grid.Width, c.Grid.Height)
	}
	if c.Schedule.TurnsPerGeneration < 0 {
		return fmt.Errorf("turns per generation must be non-negative, got %d", c.Schedule.TurnsPerGeneration)
	}
	if c.Schedule.Generations <= 0 {
		return fmt.Errorf("generations must be positive, got %d", c.Schedule.Generations)
	}
	if c.Penalty.Rate < 0 || c.Penalty.Rate > 1 {
		return fmt.Errorf("penalty rate must be within [0,1], got %v", c.Penalty.Rate)
	}
	return nil
}
