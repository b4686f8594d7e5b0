package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType distinguishes alert kinds.
type NotificationType string

const (
	NotificationWorkoutMissed NotificationType = "workout_missed"
)

// Notification is a stored alert for a trainer. Delivery (push, email) is an
// external concern; this core only persists the record.
type Notification struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RecipientID   primitive.ObjectID  `bson:"recipient" json:"recipientId"` // the trainer
	ClientID      primitive.ObjectID  `bson:"client" json:"clientId"`
	WorkoutLogID  primitive.ObjectID  `bson:"workoutLog" json:"workoutLogId"`
	WorkoutPlanID primitive.ObjectID  `bson:"workoutPlan" json:"workoutPlanId"`
	Type          NotificationType    `bson:"type" json:"type"`
	Message       string              `bson:"message" json:"message"`
	Reason        NonCompletionReason `bson:"reason,omitempty" json:"reason,omitempty"`
	Date          time.Time           `bson:"date" json:"date"` // the missed calendar day
	IsRead        bool                `bson:"isRead" json:"isRead"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}
