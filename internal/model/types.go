package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type AgentRecord struct {
	VersionedRecord
	ID              string  `json:"id"`
	X               int     `json:"x"`
	Y               int     `json:"y"`
	Strategy        string  `json:"strategy"`
	Movement        string  `json:"movement"`
	Mobility        float64 `json:"mobility"`
	Score           int     `json:"score"`
	CooperationRate float64 `json:"cooperation_rate"`
}

type GenerationRecord struct {
	VersionedRecord
	RunID          string         `json:"run_id"`
	Generation     int            `json:"generation"`
	Population     int            `json:"population"`
	StrategyCounts map[string]int `json:"strategy_counts"`
	MovementCounts map[string]int `json:"movement_counts"`
	AvgCooperation float64        `json:"avg_cooperation"`
	AvgMobility    float64        `json:"avg_mobility"`
	AvgScore       float64        `json:"avg_score"`
}

type RunRecord struct {
	VersionedRecord
	ID                  string  `json:"id"`
	Label               string  `json:"label"`
	Seed                int64   `json:"seed"`
	Width               int     `json:"width"`
	Height              int     `json:"height"`
	Agents              int     `json:"agents"`
	TurnsPerGeneration  int     `json:"turns_per_generation"`
	Generations         int     `json:"generations"`
	Torus               bool    `json:"torus"`
	PenaltyEnabled      bool    `json:"penalty_enabled"`
	PenaltyRate         float64 `json:"penalty_rate"`
	RandomizeMovement   bool    `json:"randomize_movement"`
	FinalPopulation     int     `json:"final_population"`
	FinalAvgCooperation float64 `json:"final_avg_cooperation"`
	FinalAvgScore       float64 `json:"final_avg_score"`
	CreatedAtUTC        string  `json:"created_at_utc"`
}
