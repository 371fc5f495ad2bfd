package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"agora/internal/model"
)

const runIndexFile = "run_index.json"

var strategyColumns = []string{"all_cooperate", "all_defect", "tit_for_tat", "pavlov"}

// RunArtifacts bundles everything a finished run leaves on disk.
type RunArtifacts struct {
	Run             model.RunRecord          `json:"run"`
	History         []model.GenerationRecord `json:"history"`
	FinalPopulation []model.AgentRecord      `json:"final_population"`
}

// RunSummary condenses a generation history into headline numbers.
type RunSummary struct {
	RunID              string  `json:"run_id"`
	Generations        int     `json:"generations"`
	InitialCooperation float64 `json:"initial_cooperation"`
	FinalCooperation   float64 `json:"final_cooperation"`
	CooperationMean    float64 `json:"cooperation_mean"`
	CooperationStd     float64 `json:"cooperation_std"`
	CooperationMin     float64 `json:"cooperation_min"`
	CooperationMax     float64 `json:"cooperation_max"`
	ScoreMean          float64 `json:"score_mean"`
	ScoreStd           float64 `json:"score_std"`
	DominantStrategy   string  `json:"dominant_strategy,omitempty"`
}

type RunIndexEntry struct {
	RunID               string  `json:"run_id"`
	Label               string  `json:"label"`
	Seed                int64   `json:"seed"`
	Width               int     `json:"width"`
	Height              int     `json:"height"`
	Agents              int     `json:"agents"`
	Generations         int     `json:"generations"`
	FinalPopulation     int     `json:"final_population"`
	FinalAvgCooperation float64 `json:"final_avg_cooperation"`
	FinalAvgScore       float64 `json:"final_avg_score"`
	CreatedAtUTC        string  `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run.json"), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeGenerationsCSV(filepath.Join(runDir, "generations.csv"), artifacts.History); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "population.json"), artifacts.FinalPopulation); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), SummarizeRun(artifacts.Run.ID, artifacts.History)); err != nil {
		return "", err
	}

	return runDir, nil
}

func writeGenerationsCSV(path string, history []model.GenerationRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"generation", "population"}
	header = append(header, strategyColumns...)
	header = append(header, "avg_cooperation", "avg_mobility", "avg_score")
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, record := range history {
		row := []string{
			strconv.Itoa(record.Generation),
			strconv.Itoa(record.Population),
		}
		for _, strategy := range strategyColumns {
			row = append(row, strconv.Itoa(record.StrategyCounts[strategy]))
		}
		row = append(row,
			strconv.FormatFloat(record.AvgCooperation, 'f', -1, 64),
			strconv.FormatFloat(record.AvgMobility, 'f', -1, 64),
			strconv.FormatFloat(record.AvgScore, 'f', -1, 64),
		)
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SummarizeRun computes aggregate statistics over a run's generation
// history. The dominant strategy is taken from the last generation.
func SummarizeRun(runID string, history []model.GenerationRecord) RunSummary {
	summary := RunSummary{RunID: runID, Generations: len(history)}
	if len(history) == 0 {
		return summary
	}

	cooperation := make([]float64, 0, len(history))
	scores := make([]float64, 0, len(history))
	for _, record := range history {
		cooperation = append(cooperation, record.AvgCooperation)
		scores = append(scores, record.AvgScore)
	}

	summary.InitialCooperation = cooperation[0]
	summary.FinalCooperation = cooperation[len(cooperation)-1]
	summary.CooperationMean, summary.CooperationStd = seriesStats(cooperation)
	summary.ScoreMean, summary.ScoreStd = seriesStats(scores)

	summary.CooperationMin = cooperation[0]
	summary.CooperationMax = cooperation[0]
	for _, value := range cooperation[1:] {
		if value < summary.CooperationMin {
			summary.CooperationMin = value
		}
		if value > summary.CooperationMax {
			summary.CooperationMax = value
		}
	}

	summary.DominantStrategy = dominantStrategy(history[len(history)-1].StrategyCounts)
	return summary
}

// dominantStrategy returns the strictly most common strategy, or an
// empty string when the top count is shared.
func dominantStrategy(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	bestCount := 0
	tied := false
	for _, name := range names {
		switch {
		case counts[name] > bestCount:
			best = name
			bestCount = counts[name]
			tied = false
		case counts[name] == bestCount && bestCount > 0:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return best
}

// seriesStats returns the mean and population standard deviation.
func seriesStats(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	mean := sum / float64(len(values))

	sum = 0.0
	for _, value := range values {
		diff := mean - value
		sum += diff * diff
	}
	return mean, math.Sqrt(sum / float64(len(values)))
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{"run.json", "generations.csv", "population.json", "summary.json"}
	for _, file := range files {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunRecord(baseDir, runID string) (model.RunRecord, bool, error) {
	path := filepath.Join(baseDir, runID, "run.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}

	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

func ReadFinalPopulation(baseDir, runID string) ([]model.AgentRecord, bool, error) {
	path := filepath.Join(baseDir, runID, "population.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var agents []model.AgentRecord
	if err := json.Unmarshal(data, &agents); err != nil {
		return nil, false, err
	}
	return agents, true, nil
}

func ReadRunSummary(baseDir, runID string) (RunSummary, bool, error) {
	path := filepath.Join(baseDir, runID, "summary.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunSummary{}, false, nil
		}
		return RunSummary{}, false, err
	}

	var summary RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return RunSummary{}, false, err
	}
	return summary, true, nil
}

// ReadCooperationSeries extracts the avg_cooperation column from a run's
// generations.csv.
func ReadCooperationSeries(baseDir, runID string) ([]float64, bool, error) {
	path := filepath.Join(baseDir, runID, "generations.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}

	column := -1
	for i, name := range header {
		if name == "avg_cooperation" {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, false, fmt.Errorf("generations csv is missing the avg_cooperation column")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) <= column {
			return nil, false, fmt.Errorf("generations csv row has %d columns, want at least %d", len(record), column+1)
		}
		value, err := strconv.ParseFloat(record[column], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
