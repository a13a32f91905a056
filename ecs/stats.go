package ecs

import "time"

// ManagerStats is a snapshot of an EntityManager's population and system timings.
type ManagerStats struct {
	Frames          int64
	EntityCount     int
	ComponentTypes  int
	DrawableTypes   int
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	State          SystemState
	EntityCount    int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

// Stats returns statistics about the population and system execution.
func (m *EntityManager) Stats() *ManagerStats {
	stats := &ManagerStats{
		Frames:         m.frames,
		EntityCount:    m.population.len(),
		ComponentTypes: m.components.Count(),
		DrawableTypes:  m.drawables.Count(),
		SystemCount:    m.systems.Len(),
		Systems:        make([]SystemStats, len(m.systems.entries)),
	}

	var totalExecs int64
	for i, entry := range m.systems.entries {
		internal := entry.stats
		avgDuration := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		stats.Systems[i] = SystemStats{
			Name:           entry.name,
			State:          entry.state,
			EntityCount:    viewLen(entry.view),
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
