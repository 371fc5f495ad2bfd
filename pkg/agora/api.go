// Package agora is the public façade over the simulation engine, the
// run store and the artifact writer.
package agora

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"agora/internal/model"
	"agora/internal/sim"
	"agora/internal/stats"
	"agora/internal/storage"
	"agora/internal/world"
)

const (
	defaultExportsDir = "exports"
	defaultDBPath     = "agora.db"

	defaultLabel       = "agora"
	defaultWidth       = 30
	defaultHeight      = 30
	defaultAgents      = 120
	defaultGenerations = 50
	defaultSeed        = 1
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
}

// Client bundles a run store with an artifact directory. The zero
// Options value selects the build's preferred store backend, agora.db
// and ./exports.
type Client struct {
	store       storage.Store
	initialized bool

	exportsDir string
}

// SimulationParams configures a directly driven simulation. Zero values
// for dimensions, population and seed are replaced by defaults.
type SimulationParams struct {
	Width              int
	Height             int
	Agents             int
	TurnsPerGeneration int
	Generations        int
	Seed               int64
	Torus              bool
	PenaltyEnabled     bool
	PenaltyRate        float64
	RandomizeMovement  bool
}

// RunRequest configures one batch run.
type RunRequest struct {
	Label              string
	Width              int
	Height             int
	Agents             int
	TurnsPerGeneration int
	Generations        int
	Seed               int64
	Torus              bool
	PenaltyEnabled     bool
	PenaltyRate        float64
	RandomizeMovement  bool
}

// RunResult summarizes a completed batch run.
type RunResult struct {
	RunID               string
	ArtifactsDir        string
	Generations         int
	FinalPopulation     int
	FinalAvgCooperation float64
	FinalAvgScore       float64
	DominantStrategy    string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID               string
	CreatedAtUTC        string
	Label               string
	Seed                int64
	Width               int
	Height              int
	Agents              int
	Generations         int
	FinalPopulation     int
	FinalAvgCooperation float64
	FinalAvgScore       float64
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Simulation is a directly driven world: the caller decides when to
// step and reads state between steps.
type Simulation struct {
	engine *sim.Engine
}

// NewSimulation builds a seeded world. Identical params always produce
// an identical simulation.
func NewSimulation(params SimulationParams) (*Simulation, error) {
	applySimulationDefaults(&params)

	rng := rand.New(rand.NewSource(params.Seed))
	engine, err := sim.New(params.Width, params.Height, params.Agents, sim.Config{
		TurnsPerGeneration: params.TurnsPerGeneration,
		Torus:              params.Torus,
		PenaltyEnabled:     params.PenaltyEnabled,
		PenaltyRate:        params.PenaltyRate,
		RandomizeMovement:  params.RandomizeMovement,
	}, rng)
	if err != nil {
		return nil, err
	}
	return &Simulation{engine: engine}, nil
}

func applySimulationDefaults(params *SimulationParams) {
	if params.Width <= 0 {
		params.Width = defaultWidth
	}
	if params.Height <= 0 {
		params.Height = defaultHeight
	}
	if params.Agents <= 0 {
		params.Agents = defaultAgents
	}
	if params.TurnsPerGeneration <= 0 {
		params.TurnsPerGeneration = sim.DefaultTurnsPerGeneration
	}
	if params.Generations <= 0 {
		params.Generations = defaultGenerations
	}
	if params.Seed == 0 {
		params.Seed = defaultSeed
	}
}

func (s *Simulation) Step() (sim.Statistics, error) {
	return s.engine.Step()
}

func (s *Simulation) Statistics() sim.Statistics {
	return s.engine.Statistics()
}

func (s *Simulation) Agents() []sim.AgentSnapshot {
	return s.engine.Agents()
}

func (s *Simulation) GenerationHistory() []sim.Statistics {
	return s.engine.GenerationHistory()
}

func (s *Simulation) Generation() int {
	return s.engine.Generation()
}

func (s *Simulation) Turn() int {
	return s.engine.Turn()
}

func (s *Simulation) GridSize() (int, int) {
	return s.engine.GridSize()
}

func (s *Simulation) SetTorusTopology(enabled bool) {
	s.engine.SetTorusTopology(enabled)
}

func (s *Simulation) SetStrategyPenalty(enabled bool, rate float64) error {
	return s.engine.SetStrategyPenalty(enabled, rate)
}

func (s *Simulation) Reset(agentCount int) error {
	return s.engine.Reset(agentCount)
}

// Run executes a full batch: N generations of turns, persisted through
// the store, with run artifacts written under the exports directory.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if req.Label == "" {
		req.Label = defaultLabel
	}
	params := SimulationParams{
		Width:              req.Width,
		Height:             req.Height,
		Agents:             req.Agents,
		TurnsPerGeneration: req.TurnsPerGeneration,
		Generations:        req.Generations,
		Seed:               req.Seed,
		Torus:              req.Torus,
		PenaltyEnabled:     req.PenaltyEnabled,
		PenaltyRate:        req.PenaltyRate,
		RandomizeMovement:  req.RandomizeMovement,
	}
	applySimulationDefaults(&params)

	if err := c.ensureStore(ctx); err != nil {
		return RunResult{}, err
	}

	simulation, err := NewSimulation(params)
	if err != nil {
		return RunResult{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%d", req.Label, params.Seed, now.Unix())

	totalTurns := params.Generations * params.TurnsPerGeneration
	for turn := 0; turn < totalTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		if _, err := simulation.Step(); err != nil {
			return RunResult{}, err
		}
	}

	history := buildGenerationRecords(runID, simulation.GenerationHistory())
	population := buildAgentRecords(simulation.Agents())
	run := buildRunRecord(runID, params, req, history, now)

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunResult{}, err
	}
	if err := c.store.SaveGenerationHistory(ctx, runID, history); err != nil {
		return RunResult{}, err
	}
	if err := c.store.SaveFinalPopulation(ctx, runID, population); err != nil {
		return RunResult{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.exportsDir, stats.RunArtifacts{
		Run:             run,
		History:         history,
		FinalPopulation: population,
	})
	if err != nil {
		return RunResult{}, err
	}
	if err := stats.AppendRunIndex(c.exportsDir, stats.RunIndexEntry{
		RunID:               runID,
		Label:               req.Label,
		Seed:                params.Seed,
		Width:               params.Width,
		Height:              params.Height,
		Agents:              params.Agents,
		Generations:         params.Generations,
		FinalPopulation:     run.FinalPopulation,
		FinalAvgCooperation: run.FinalAvgCooperation,
		FinalAvgScore:       run.FinalAvgScore,
		CreatedAtUTC:        run.CreatedAtUTC,
	}); err != nil {
		return RunResult{}, err
	}

	summary := stats.SummarizeRun(runID, history)
	return RunResult{
		RunID:               runID,
		ArtifactsDir:        filepath.Clean(runDir),
		Generations:         params.Generations,
		FinalPopulation:     run.FinalPopulation,
		FinalAvgCooperation: run.FinalAvgCooperation,
		FinalAvgScore:       run.FinalAvgScore,
		DominantStrategy:    summary.DominantStrategy,
	}, nil
}

// buildRunRecord derives the run's headline numbers from the last
// completed generation, where scores reflect games actually played.
func buildRunRecord(runID string, params SimulationParams, req RunRequest, history []model.GenerationRecord, now time.Time) model.RunRecord {
	run := model.RunRecord{
		VersionedRecord:    stampedRecord(),
		ID:                 runID,
		Label:              req.Label,
		Seed:               params.Seed,
		Width:              params.Width,
		Height:             params.Height,
		Agents:             params.Agents,
		TurnsPerGeneration: params.TurnsPerGeneration,
		Generations:        params.Generations,
		Torus:              params.Torus,
		PenaltyEnabled:     params.PenaltyEnabled,
		PenaltyRate:        params.PenaltyRate,
		RandomizeMovement:  params.RandomizeMovement,
		CreatedAtUTC:       now.Format(time.RFC3339Nano),
	}
	if len(history) > 0 {
		last := history[len(history)-1]
		run.FinalPopulation = last.Population
		run.FinalAvgCooperation = last.AvgCooperation
		run.FinalAvgScore = last.AvgScore
	}
	return run
}

func buildGenerationRecords(runID string, history []sim.Statistics) []model.GenerationRecord {
	records := make([]model.GenerationRecord, 0, len(history))
	for _, s := range history {
		records = append(records, model.GenerationRecord{
			VersionedRecord: stampedRecord(),
			RunID:           runID,
			Generation:      s.Generation,
			Population:      s.TotalAgents,
			StrategyCounts:  s.StrategyCounts,
			MovementCounts:  s.MovementCounts,
			AvgCooperation:  s.AvgCooperation,
			AvgMobility:     s.AvgMobility,
			AvgScore:        s.AvgScore,
		})
	}
	return records
}

func buildAgentRecords(snapshots []sim.AgentSnapshot) []model.AgentRecord {
	records := make([]model.AgentRecord, 0, len(snapshots))
	for _, snapshot := range snapshots {
		records = append(records, model.AgentRecord{
			VersionedRecord: stampedRecord(),
			ID:              snapshot.ID,
			X:               snapshot.X,
			Y:               snapshot.Y,
			Strategy:        snapshot.Strategy,
			Movement:        snapshot.Movement,
			Mobility:        snapshot.Mobility,
			Score:           snapshot.Score,
			CooperationRate: snapshot.CooperationRate,
		})
	}
	return records
}

func stampedRecord() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.exportsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:               e.RunID,
			CreatedAtUTC:        e.CreatedAtUTC,
			Label:               e.Label,
			Seed:                e.Seed,
			Width:               e.Width,
			Height:              e.Height,
			Agents:              e.Agents,
			Generations:         e.Generations,
			FinalPopulation:     e.FinalPopulation,
			FinalAvgCooperation: e.FinalAvgCooperation,
			FinalAvgScore:       e.FinalAvgScore,
		})
	}
	return out, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.GenerationRecord, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.exportsDir)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = entries[0].RunID
	}
	if runID == "" {
		return nil, errors.New("history requires run id or latest")
	}

	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetGenerationHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generation history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	out := make([]model.GenerationRecord, len(history))
	copy(out, history)
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		return ExportSummary{}, errors.New("output directory is required")
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.exportsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.exportsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Strategies lists the strategy variant names agents can carry.
func Strategies() []string {
	out := make([]string, 0, len(world.Strategies()))
	for _, s := range world.Strategies() {
		out = append(out, string(s))
	}
	return out
}

// MoveVariants lists the movement variant names agents can carry.
func MoveVariants() []string {
	out := make([]string, 0, len(world.MoveVariants()))
	for _, v := range world.MoveVariants() {
		out = append(out, string(v))
	}
	return out
}
