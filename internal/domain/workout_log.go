package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NonCompletionReason is the enumerated cause recorded when a scheduled
// session was skipped.
type NonCompletionReason string

const (
	ReasonInjury  NonCompletionReason = "injury"
	ReasonIllness NonCompletionReason = "illness"
	ReasonFatigue NonCompletionReason = "fatigue"
	ReasonNoTime  NonCompletionReason = "no_time"
	ReasonTravel  NonCompletionReason = "travel"
	ReasonOther   NonCompletionReason = "other"
)

// IsValid reports whether r is one of the enumerated reasons.
func (r NonCompletionReason) IsValid() bool {
	switch r {
	case ReasonInjury, ReasonIllness, ReasonFatigue, ReasonNoTime, ReasonTravel, ReasonOther:
		return true
	}
	return false
}

// ExerciseResult records what the client actually did for one prescribed
// exercise. Used only for rich logging, never for progress math.
type ExerciseResult struct {
	ExerciseID   primitive.ObjectID `bson:"exercise" json:"exerciseId"`
	AchievedSets int                `bson:"achievedSets,omitempty" json:"achievedSets,omitempty"`
	AchievedReps string             `bson:"achievedReps,omitempty" json:"achievedReps,omitempty"`
	Weight       string             `bson:"weight,omitempty" json:"weight,omitempty"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// WorkoutLog is a per-day record of whether a scheduled session was
// completed. At most one log exists per (client, plan, session, calendar
// day); the mongo repository enforces this with a unique compound index and
// resubmissions for the same day update the existing record.
type WorkoutLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID      primitive.ObjectID `bson:"client" json:"clientId"`
	TrainerID     primitive.ObjectID `bson:"trainer" json:"trainerId"` // denormalized from the plan
	WorkoutPlanID primitive.ObjectID `bson:"workoutPlan" json:"workoutPlanId"`
	SessionID     primitive.ObjectID `bson:"session" json:"sessionId"`

	Week      int       `bson:"week" json:"week"` // 1-based, elapsed weeks since plan start
	DayOfWeek DayOfWeek `bson:"dayOfWeek" json:"dayOfWeek"`
	// CompletedAt is the calendar day the record represents, normalized to
	// midnight UTC. The name is historical: it is set for missed days too.
	CompletedAt time.Time `bson:"completedAt" json:"completedAt"`

	IsCompleted         bool                `bson:"isCompleted" json:"isCompleted"`
	NonCompletionReason NonCompletionReason `bson:"nonCompletionReason,omitempty" json:"nonCompletionReason,omitempty"`
	NonCompletionNotes  string              `bson:"nonCompletionNotes,omitempty" json:"nonCompletionNotes,omitempty"`
	ProofImage          string              `bson:"proofImage,omitempty" json:"proofImage,omitempty"` // S3 object key

	// Rich logging detail, optional.
	ActualDuration int              `bson:"actualDuration,omitempty" json:"actualDuration,omitempty"` // minutes
	Exercises      []ExerciseResult `bson:"exercises,omitempty" json:"exercises,omitempty"`
	OverallNotes   string           `bson:"overallNotes,omitempty" json:"overallNotes,omitempty"`
	Difficulty     int              `bson:"difficulty,omitempty" json:"difficulty,omitempty"` // 1-10 subjective
	Energy         int              `bson:"energy,omitempty" json:"energy,omitempty"`
	Mood           int              `bson:"mood,omitempty" json:"mood,omitempty"`
	PainLevel      int              `bson:"painLevel,omitempty" json:"painLevel,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
