package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayOfWeek is a lowercase English weekday name, the scheduling key used
// throughout plans, logs and the calendar view.
type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

// IsValid reports whether d is one of the seven weekday values.
func (d DayOfWeek) IsValid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// ExercisePrescription is one exercise entry within a session template,
// with the sets/reps the trainer prescribed.
type ExercisePrescription struct {
	ExerciseID primitive.ObjectID `bson:"exercise" json:"exerciseId"`
	Sets       int                `bson:"sets" json:"sets"`
	Reps       string             `bson:"reps" json:"reps"` // e.g. "8-12", "to failure"
	Rest       string             `bson:"rest,omitempty" json:"rest,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// WorkoutSession is a scheduled workout template tied to a weekday within a
// plan. Sessions are replaced wholesale when the plan is updated; once a log
// references a session it is never edited in place.
type WorkoutSession struct {
	ID                primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	WorkoutPlanID     primitive.ObjectID     `bson:"workoutPlan" json:"workoutPlanId"`
	DayOfWeek         DayOfWeek              `bson:"dayOfWeek" json:"dayOfWeek"`
	Exercises         []ExercisePrescription `bson:"exercises" json:"exercises"`
	EstimatedDuration int                    `bson:"estimatedDuration,omitempty" json:"estimatedDuration,omitempty"` // minutes
	Difficulty        string                 `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	CreatedAt         time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time              `bson:"updatedAt" json:"updatedAt"`
}
