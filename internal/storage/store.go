package storage

import (
	"context"

	"agora/internal/model"
)

// Store defines persistence operations for simulation runs and their
// outcomes.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	SaveGenerationHistory(ctx context.Context, runID string, history []model.GenerationRecord) error
	GetGenerationHistory(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error)
	SaveFinalPopulation(ctx context.Context, runID string, agents []model.AgentRecord) error
	GetFinalPopulation(ctx context.Context, runID string) ([]model.AgentRecord, bool, error)
}
