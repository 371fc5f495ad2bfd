package stats

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"agora/internal/model"
)

func sampleHistory(runID string) []model.GenerationRecord {
	return []model.GenerationRecord{
		{
			RunID:          runID,
			Generation:     0,
			Population:     100,
			StrategyCounts: map[string]int{"all_cooperate": 25, "all_defect": 25, "tit_for_tat": 25, "pavlov": 25},
			MovementCounts: map[string]int{"adaptive": 100},
			AvgCooperation: 0.5,
			AvgMobility:    0.5,
			AvgScore:       18,
		},
		{
			RunID:          runID,
			Generation:     1,
			Population:     100,
			StrategyCounts: map[string]int{"all_cooperate": 20, "all_defect": 15, "tit_for_tat": 40, "pavlov": 25},
			MovementCounts: map[string]int{"adaptive": 100},
			AvgCooperation: 0.6,
			AvgMobility:    0.48,
			AvgScore:       22,
		},
		{
			RunID:          runID,
			Generation:     2,
			Population:     100,
			StrategyCounts: map[string]int{"all_cooperate": 18, "all_defect": 10, "tit_for_tat": 47, "pavlov": 25},
			MovementCounts: map[string]int{"adaptive": 100},
			AvgCooperation: 0.7,
			AvgMobility:    0.46,
			AvgScore:       26,
		},
	}
}

func TestWriteAndExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	runID := "run-123"
	artifacts := RunArtifacts{
		Run: model.RunRecord{
			ID:                 runID,
			Label:              "baseline",
			Seed:               1,
			Width:              30,
			Height:             30,
			Agents:             100,
			TurnsPerGeneration: 10,
			Generations:        3,
		},
		History: sampleHistory(runID),
		FinalPopulation: []model.AgentRecord{
			{ID: "a1", X: 3, Y: 4, Strategy: "tit_for_tat", Movement: "adaptive", Mobility: 0.5, Score: 27, CooperationRate: 0.8},
		},
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	for _, file := range []string{"run.json", "generations.csv", "population.json", "summary.json"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	exportedDir, err := ExportRunArtifacts(baseDir, runID, outDir)
	if err != nil {
		t.Fatalf("export artifacts: %v", err)
	}

	for _, file := range []string{"run.json", "generations.csv", "population.json", "summary.json"} {
		if _, err := os.Stat(filepath.Join(exportedDir, file)); err != nil {
			t.Fatalf("expected exported file %s: %v", file, err)
		}
	}

	run, ok, err := ReadRunRecord(baseDir, runID)
	if err != nil {
		t.Fatalf("read run record: %v", err)
	}
	if !ok {
		t.Fatal("expected run record to exist")
	}
	if run.Label != "baseline" || run.Agents != 100 {
		t.Fatalf("unexpected run record: %+v", run)
	}

	agents, ok, err := ReadFinalPopulation(baseDir, runID)
	if err != nil || !ok {
		t.Fatalf("read final population: ok=%v err=%v", ok, err)
	}
	if len(agents) != 1 || agents[0].ID != "a1" {
		t.Fatalf("unexpected final population: %+v", agents)
	}
}

func TestExportRunArtifactsMissingRun(t *testing.T) {
	baseDir := t.TempDir()
	if _, err := ExportRunArtifacts(baseDir, "absent", t.TempDir()); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestReadCooperationSeries(t *testing.T) {
	baseDir := t.TempDir()
	runID := "run-series"

	_, err := WriteRunArtifacts(baseDir, RunArtifacts{
		Run:     model.RunRecord{ID: runID},
		History: sampleHistory(runID),
	})
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	series, ok, err := ReadCooperationSeries(baseDir, runID)
	if err != nil {
		t.Fatalf("read series: %v", err)
	}
	if !ok {
		t.Fatal("expected series to exist")
	}
	want := []float64{0.5, 0.6, 0.7}
	if len(series) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(series))
	}
	for i := range want {
		if series[i] != want[i] {
			t.Fatalf("point %d: got %v want %v", i, series[i], want[i])
		}
	}

	_, ok, err = ReadCooperationSeries(baseDir, "absent")
	if err != nil {
		t.Fatalf("read missing series: %v", err)
	}
	if ok {
		t.Fatal("expected missing series to report absent")
	}
}

func TestSummarizeRun(t *testing.T) {
	runID := "run-summary"
	summary := SummarizeRun(runID, sampleHistory(runID))

	if summary.Generations != 3 {
		t.Fatalf("expected 3 generations, got %d", summary.Generations)
	}
	if summary.InitialCooperation != 0.5 || summary.FinalCooperation != 0.7 {
		t.Fatalf("unexpected endpoints: %+v", summary)
	}
	if summary.CooperationMin != 0.5 || summary.CooperationMax != 0.7 {
		t.Fatalf("unexpected bounds: %+v", summary)
	}
	if math.Abs(summary.CooperationMean-0.6) > 1e-9 {
		t.Fatalf("expected mean 0.6, got %v", summary.CooperationMean)
	}
	wantStd := math.Sqrt(0.02 / 3)
	if math.Abs(summary.CooperationStd-wantStd) > 1e-9 {
		t.Fatalf("expected std %v, got %v", wantStd, summary.CooperationStd)
	}
	if summary.DominantStrategy != "tit_for_tat" {
		t.Fatalf("expected tit_for_tat dominant, got %q", summary.DominantStrategy)
	}
}

func TestSummarizeRunEmptyHistory(t *testing.T) {
	summary := SummarizeRun("empty", nil)
	if summary.Generations != 0 {
		t.Fatalf("expected 0 generations, got %d", summary.Generations)
	}
	if summary.DominantStrategy != "" {
		t.Fatalf("expected no dominant strategy, got %q", summary.DominantStrategy)
	}
}

func TestSummarizeRunTiedStrategiesOmitDominant(t *testing.T) {
	history := []model.GenerationRecord{
		{
			RunID:          "tied",
			Generation:     0,
			Population:     40,
			StrategyCounts: map[string]int{"all_cooperate": 15, "all_defect": 15, "tit_for_tat": 6, "pavlov": 4},
			AvgCooperation: 0.5,
		},
	}

	summary := SummarizeRun("tied", history)
	if summary.DominantStrategy != "" {
		t.Fatalf("expected tied counts to omit dominant strategy, got %q", summary.DominantStrategy)
	}
}

func TestRunIndexAppendListAndUpsert(t *testing.T) {
	baseDir := t.TempDir()

	err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID:               "run-1",
		Label:               "baseline",
		Seed:                1,
		Width:               30,
		Height:              30,
		Agents:              120,
		Generations:         50,
		FinalPopulation:     120,
		FinalAvgCooperation: 0.58,
		CreatedAtUTC:        "2026-02-10T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("append run-1: %v", err)
	}

	err = AppendRunIndex(baseDir, RunIndexEntry{
		RunID:               "run-2",
		Label:               "penalty",
		Seed:                2,
		Width:               30,
		Height:              30,
		Agents:              120,
		Generations:         50,
		FinalPopulation:     120,
		FinalAvgCooperation: 0.64,
		CreatedAtUTC:        "2026-02-10T11:00:00Z",
	})
	if err != nil {
		t.Fatalf("append run-2: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-2" || entries[1].RunID != "run-1" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	err = AppendRunIndex(baseDir, RunIndexEntry{
		RunID:               "run-1",
		Label:               "baseline",
		Seed:                1,
		Width:               30,
		Height:              30,
		Agents:              120,
		Generations:         50,
		FinalPopulation:     120,
		FinalAvgCooperation: 0.71,
		CreatedAtUTC:        "2026-02-10T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("upsert run-1: %v", err)
	}

	entries, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list after upsert: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after upsert, got %d", len(entries))
	}
	if entries[0].RunID != "run-1" || entries[0].FinalAvgCooperation != 0.71 {
		t.Fatalf("unexpected upsert result: %+v", entries[0])
	}
}

func TestRunIndexEqualTimestampPrefersLaterAppend(t *testing.T) {
	baseDir := t.TempDir()
	ts := "2026-02-10T12:00:00Z"

	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "run-a", CreatedAtUTC: ts}); err != nil {
		t.Fatalf("append run-a: %v", err)
	}
	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "run-b", CreatedAtUTC: ts}); err != nil {
		t.Fatalf("append run-b: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-b" {
		t.Fatalf("expected latest appended run-b first, got %+v", entries)
	}
}

func TestReadRunSummary(t *testing.T) {
	baseDir := t.TempDir()
	runID := "run-read-summary"

	if _, ok, err := ReadRunSummary(baseDir, runID); err != nil || ok {
		t.Fatalf("expected missing summary; ok=%t err=%v", ok, err)
	}

	_, err := WriteRunArtifacts(baseDir, RunArtifacts{
		Run:     model.RunRecord{ID: runID},
		History: sampleHistory(runID),
	})
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	summary, ok, err := ReadRunSummary(baseDir, runID)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !ok {
		t.Fatal("expected summary to exist")
	}
	if summary.RunID != runID || summary.Generations != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
