package repository

import (
	"context"
	"time"

	"gymplatform/backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	// ErrDuplicateKey signals a unique-index violation. For the workout log
	// day key this is a benign race: callers retry the write as an update.
	ErrDuplicateKey = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository exposes the identity records this core reads. User
// creation and credential handling live in the external auth service.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// PlanFilter narrows and paginates plan listings.
type PlanFilter struct {
	ClientID  primitive.ObjectID // zero value means unfiltered
	TrainerID primitive.ObjectID
	IsActive  *bool
	Frequency string
	Level     string
	Search    string // matches name or description, case-insensitive
	SortBy    string // defaults to createdAt
	SortAsc   bool
	Page      int
	Limit     int
}

// TrainerPlanStats aggregates a trainer's plans for their stats endpoint.
type TrainerPlanStats struct {
	TotalPlans        int64   `json:"totalPlans"`
	ActivePlans       int64   `json:"activePlans"`
	CompletedPlans    int64   `json:"completedPlans"` // completionRate == 100
	TotalClients      int     `json:"totalClients"`
	AvgCompletionRate float64 `json:"avgCompletionRate"`
}

// WorkoutPlanRepository defines the interface for interacting with workout
// plan documents. MarkSessionCompleted is the only mutation path for the
// progress counters; it must be atomic per document.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	GetActiveByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.WorkoutPlan, error)
	List(ctx context.Context, filter PlanFilter) ([]domain.WorkoutPlan, int64, error)
	Update(ctx context.Context, plan *domain.WorkoutPlan) error
	SetActive(ctx context.Context, planID, trainerID primitive.ObjectID, active bool) error
	// MarkSessionCompleted increments totalSessionsCompleted, recomputes the
	// completion rate and records the last completed session, all in one
	// atomic document update.
	MarkSessionCompleted(ctx context.Context, planID, sessionID primitive.ObjectID, week int, completedAt time.Time) error
	TrainerStats(ctx context.Context, trainerID primitive.ObjectID) (*TrainerPlanStats, error)
}

// WorkoutSessionRepository defines the interface for session templates.
// Sessions are replaced wholesale on plan update, never edited in place.
type WorkoutSessionRepository interface {
	CreateMany(ctx context.Context, sessions []domain.WorkoutSession) ([]primitive.ObjectID, error)
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutSession, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error
}

// LogFilter narrows and paginates a client's log history.
type LogFilter struct {
	ClientID  primitive.ObjectID
	Week      int // 0 means unfiltered
	DayOfWeek domain.DayOfWeek
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

// LogWindow scopes the aggregation engine's bounded fetch.
type LogWindow struct {
	ClientID    primitive.ObjectID
	TrainerID   primitive.ObjectID // zero value means unscoped
	Since       time.Time
	IsCompleted bool
}

// ClientLogStats aggregates a client's lifetime logging activity.
type ClientLogStats struct {
	TotalWorkouts     int64      `json:"totalWorkouts"`
	CompletedWorkouts int64      `json:"completedWorkouts"`
	AvgDuration       float64    `json:"avgDuration"`
	LastWorkout       *time.Time `json:"lastWorkout,omitempty"`
}

// WorkoutLogRepository defines the interface for per-day completion
// records. Create returns ErrDuplicateKey when a log already exists for the
// same (client, plan, session, day) key.
type WorkoutLogRepository interface {
	Create(ctx context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error)
	Update(ctx context.Context, log *domain.WorkoutLog) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error)
	// FindByDayKey looks up the single log for a client/plan/session on the
	// calendar day containing day.
	FindByDayKey(ctx context.Context, clientID, planID, sessionID primitive.ObjectID, day time.Time) (*domain.WorkoutLog, error)
	List(ctx context.Context, filter LogFilter) ([]domain.WorkoutLog, int64, error)
	ListWindow(ctx context.Context, window LogWindow) ([]domain.WorkoutLog, error)
	// ListRange returns all of a client's logs with completedAt in
	// [from, to], ordered ascending. Used by the calendar view.
	ListRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutLog, error)
	ClientStats(ctx context.Context, clientID primitive.ObjectID) (*ClientLogStats, error)
}

// NotificationRepository stores alert documents. Reads and delivery are the
// messaging subsystem's concern.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) (primitive.ObjectID, error)
}
