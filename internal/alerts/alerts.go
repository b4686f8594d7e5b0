// Package alerts is the dispatch side of the missed-workout notification
// contract. Alerts are persisted for the trainer's inbox; actual delivery
// (push, email) belongs to the messaging subsystem and is not handled here.
package alerts

import (
	"context"
	"fmt"
	"time"

	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutMissedAlert carries everything the trainer needs to follow up on a
// missed session.
type WorkoutMissedAlert struct {
	TrainerID     primitive.ObjectID
	ClientID      primitive.ObjectID
	WorkoutLogID  primitive.ObjectID
	WorkoutPlanID primitive.ObjectID
	Reason        domain.NonCompletionReason
	Date          time.Time
}

// Notifier dispatches alerts. Callers treat failures as best-effort: log and
// continue, never fail the primary operation.
type Notifier interface {
	WorkoutMissed(ctx context.Context, alert WorkoutMissedAlert) error
}

type storeNotifier struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
}

// NewStoreNotifier returns a Notifier that persists alerts as notification
// documents addressed to the trainer.
func NewStoreNotifier(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) Notifier {
	return &storeNotifier{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

func (n *storeNotifier) WorkoutMissed(ctx context.Context, alert WorkoutMissedAlert) error {
	clientName := "Client"
	if client, err := n.userRepo.GetByID(ctx, alert.ClientID); err == nil {
		clientName = client.FullName()
	}

	reason := alert.Reason
	if reason == "" {
		reason = "unspecified"
	}

	notification := &domain.Notification{
		RecipientID:   alert.TrainerID,
		ClientID:      alert.ClientID,
		WorkoutLogID:  alert.WorkoutLogID,
		WorkoutPlanID: alert.WorkoutPlanID,
		Type:          domain.NotificationWorkoutMissed,
		Message: fmt.Sprintf("%s missed the workout scheduled for %s (reason: %s)",
			clientName, alert.Date.Format("2006-01-02"), reason),
		Reason: alert.Reason,
		Date:   alert.Date,
	}

	_, err := n.notificationRepo.Create(ctx, notification)
	return err
}
