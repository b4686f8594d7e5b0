package domain

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanProgress holds the denormalized completion counters for a plan.
// TotalSessionsPlanned is a baseline set when sessions are scheduled into the
// plan (create/update); TotalSessionsCompleted and CompletionRate are mutated
// only through WorkoutPlanRepository.MarkSessionCompleted.
type PlanProgress struct {
	TotalSessionsCompleted int `bson:"totalSessionsCompleted" json:"totalSessionsCompleted"`
	TotalSessionsPlanned   int `bson:"totalSessionsPlanned" json:"totalSessionsPlanned"`
	CompletionRate         int `bson:"completionRate" json:"completionRate"` // 0-100
}

// LastCompletedSession points at the most recently completed session.
type LastCompletedSession struct {
	Session     primitive.ObjectID `bson:"session" json:"sessionId"`
	CompletedAt time.Time          `bson:"completedAt" json:"completedAt"`
	Week        int                `bson:"week" json:"week"`
}

// WorkoutPlan is a multi-week workout program assigned by a trainer to a
// client. Sessions are referenced by id; logs reference the plan back.
type WorkoutPlan struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	ClientID    primitive.ObjectID   `bson:"client" json:"clientId"`
	TrainerID   primitive.ObjectID   `bson:"trainer" json:"trainerId"`
	Frequency   string               `bson:"frequency" json:"frequency"` // "3x", "4x", "5x"
	SessionIDs  []primitive.ObjectID `bson:"sessions" json:"sessionIds"`
	StartDate   time.Time            `bson:"startDate" json:"startDate"`
	EndDate     *time.Time           `bson:"endDate,omitempty" json:"endDate,omitempty"`
	IsActive    bool                 `bson:"isActive" json:"isActive"`
	Goals       []string             `bson:"goals,omitempty" json:"goals,omitempty"`
	Level       string               `bson:"level,omitempty" json:"level,omitempty"`
	Notes       string               `bson:"notes,omitempty" json:"notes,omitempty"`

	CurrentWeek int `bson:"currentWeek" json:"currentWeek"` // >= 1
	TotalWeeks  int `bson:"totalWeeks" json:"totalWeeks"`   // 1-52

	LastCompletedSession *LastCompletedSession `bson:"lastCompletedSession,omitempty" json:"lastCompletedSession,omitempty"`
	Progress             PlanProgress          `bson:"progress" json:"progress"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CalculateCompletionRate recomputes Progress.CompletionRate from the
// counters and returns it. Zero planned sessions yields a zero rate.
func (p *WorkoutPlan) CalculateCompletionRate() int {
	if p.Progress.TotalSessionsPlanned == 0 {
		p.Progress.CompletionRate = 0
	} else {
		p.Progress.CompletionRate = int(math.Round(
			float64(p.Progress.TotalSessionsCompleted) / float64(p.Progress.TotalSessionsPlanned) * 100,
		))
	}
	return p.Progress.CompletionRate
}

// PlanStats is the plan-level summary exposed on the stats endpoint.
type PlanStats struct {
	TotalSessions     int    `json:"totalSessions"`
	CompletedSessions int    `json:"completedSessions"`
	CompletionRate    int    `json:"completionRate"`
	CurrentWeek       int    `json:"currentWeek"`
	TotalWeeks        int    `json:"totalWeeks"`
	Frequency         string `json:"frequency"`
	IsActive          bool   `json:"isActive"`
}

// Stats returns the summary for dashboards.
func (p *WorkoutPlan) Stats() PlanStats {
	return PlanStats{
		TotalSessions:     p.Progress.TotalSessionsPlanned,
		CompletedSessions: p.Progress.TotalSessionsCompleted,
		CompletionRate:    p.Progress.CompletionRate,
		CurrentWeek:       p.CurrentWeek,
		TotalWeeks:        p.TotalWeeks,
		Frequency:         p.Frequency,
		IsActive:          p.IsActive,
	}
}
