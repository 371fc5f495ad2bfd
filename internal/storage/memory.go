package storage

import (
	"context"
	"sync"

	"agora/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	runs        map[string]model.RunRecord
	history     map[string][]model.GenerationRecord
	populations map[string][]model.AgentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.history = make(map[string][]model.GenerationRecord)
	s.populations = make(map[string][]model.AgentRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) SaveGenerationHistory(_ context.Context, runID string, history []model.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = copyHistory(history)
	return nil
}

func (s *MemoryStore) GetGenerationHistory(_ context.Context, runID string) ([]model.GenerationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return copyHistory(history), true, nil
}

func (s *MemoryStore) SaveFinalPopulation(_ context.Context, runID string, agents []model.AgentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.AgentRecord, len(agents))
	copy(copied, agents)
	s.populations[runID] = copied
	return nil
}

func (s *MemoryStore) GetFinalPopulation(_ context.Context, runID string) ([]model.AgentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents, ok := s.populations[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.AgentRecord, len(agents))
	copy(copied, agents)
	return copied, true, nil
}

// copyHistory clones generation records including their count maps, so a
// caller mutating what it saved or loaded cannot reach the stored state.
func copyHistory(history []model.GenerationRecord) []model.GenerationRecord {
	copied := make([]model.GenerationRecord, 0, len(history))
	for _, generation := range history {
		generation.StrategyCounts = copyCounts(generation.StrategyCounts)
		generation.MovementCounts = copyCounts(generation.MovementCounts)
		copied = append(copied, generation)
	}
	return copied
}

func copyCounts(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
