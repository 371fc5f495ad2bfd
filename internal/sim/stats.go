package sim

import (
	"agora/internal/world"
)

// Statistics is one aggregate snapshot of the population.
type Statistics struct {
	Generation     int            `json:"generation"`
	Turn           int            `json:"turn"`
	TotalAgents    int            `json:"total_agents"`
	StrategyCounts map[string]int `json:"strategy_counts"`
	MovementCounts map[string]int `json:"movement_counts"`
	AvgCooperation float64        `json:"avg_cooperation"`
	AvgMobility    float64        `json:"avg_mobility"`
	AvgScore       float64        `json:"avg_score"`
}

// AgentSnapshot is a read-only copy of one agent's observable state.
type AgentSnapshot struct {
	ID              string  `json:"id"`
	X               int     `json:"x"`
	Y               int     `json:"y"`
	Strategy        string  `json:"strategy"`
	Movement        string  `json:"movement"`
	Mobility        float64 `json:"mobility"`
	Score           int     `json:"score"`
	CooperationRate float64 `json:"cooperation_rate"`
}

// computeStatistics aggregates the grid. Count maps carry every known
// variant, including zeroes, so downstream consumers see stable keys.
func computeStatistics(g *world.Grid, generation, turn int) Statistics {
	stats := Statistics{
		Generation:     generation,
		Turn:           turn,
		TotalAgents:    g.Len(),
		StrategyCounts: make(map[string]int, len(world.Strategies())),
		MovementCounts: make(map[string]int, len(world.MoveVariants())),
	}
	for _, s := range world.Strategies() {
		stats.StrategyCounts[string(s)] = 0
	}
	for _, v := range world.MoveVariants() {
		stats.MovementCounts[string(v)] = 0
	}
	if g.Len() == 0 {
		return stats
	}
	var coop, mobility, score float64
	for _, a := range g.Agents() {
		stats.StrategyCounts[string(a.Strategy)]++
		stats.MovementCounts[string(a.Movement)]++
		coop += a.CooperationRate()
		mobility += a.Mobility
		score += float64(a.Score)
	}
	n := float64(g.Len())
	stats.AvgCooperation = coop / n
	stats.AvgMobility = mobility / n
	stats.AvgScore = score / n
	return stats
}

func snapshotAgents(g *world.Grid) []AgentSnapshot {
	out := make([]AgentSnapshot, 0, g.Len())
	for _, a := range g.Agents() {
		out = append(out, AgentSnapshot{
			ID:              a.ID(),
			X:               a.Position().X,
			Y:               a.Position().Y,
			Strategy:        string(a.Strategy),
			Movement:        string(a.Movement),
			Mobility:        a.Mobility,
			Score:           a.Score,
			CooperationRate: a.CooperationRate(),
		})
	}
	return out
}
