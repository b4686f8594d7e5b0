package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCompletionRate(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		planned   int
		want      int
	}{
		{"zero planned yields zero", 5, 0, 0},
		{"nothing completed", 0, 12, 0},
		{"exact percentage", 6, 12, 50},
		{"8.33 rounds down", 1, 12, 8},
		{"12.5 rounds up", 1, 8, 13},
		{"66.67 rounds up", 2, 3, 67},
		{"overachieving exceeds hundred", 15, 12, 125},
		{"complete", 12, 12, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := &WorkoutPlan{
				Progress: PlanProgress{
					TotalSessionsCompleted: tt.completed,
					TotalSessionsPlanned:   tt.planned,
				},
			}
			got := plan.CalculateCompletionRate()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, plan.Progress.CompletionRate)
		})
	}
}

func TestPlanStats(t *testing.T) {
	plan := &WorkoutPlan{
		Frequency:   "3x",
		IsActive:    true,
		CurrentWeek: 3,
		TotalWeeks:  8,
		Progress: PlanProgress{
			TotalSessionsCompleted: 7,
			TotalSessionsPlanned:   24,
			CompletionRate:         29,
		},
	}
	stats := plan.Stats()
	assert.Equal(t, 24, stats.TotalSessions)
	assert.Equal(t, 7, stats.CompletedSessions)
	assert.Equal(t, 29, stats.CompletionRate)
	assert.Equal(t, 3, stats.CurrentWeek)
	assert.Equal(t, 8, stats.TotalWeeks)
	assert.Equal(t, "3x", stats.Frequency)
	assert.True(t, stats.IsActive)
}
