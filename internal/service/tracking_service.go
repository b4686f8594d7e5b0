package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gymplatform/backend/internal/alerts"
	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/repository"
	"gymplatform/backend/internal/schedule"
	"gymplatform/backend/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNoActivePlan       = errors.New("no active workout plan found")
	ErrPlanNotFound       = errors.New("workout plan not found")
	ErrSessionNotFound    = errors.New("workout session not found")
	ErrNoScheduledSession = errors.New("no session scheduled for this day of the week")
	ErrMissingReason      = errors.New("non-completion reason is required when the workout was not completed")
	ErrInvalidReason      = errors.New("invalid non-completion reason")
	ErrMissingNotes       = errors.New("notes are required when the non-completion reason is 'other'")
	ErrInvalidWeek        = errors.New("week must be 1 or greater")
)

// DailyStatusInput is the simplified submission path: the session and week
// are inferred from the calendar day and the client's active plan.
type DailyStatusInput struct {
	Date        *time.Time // nil means today
	IsCompleted bool
	Reason      domain.NonCompletionReason
	Notes       string
	ProofImage  string
}

// DailyStatusResult is the side-effect contract returned to the caller.
// TransitionedToMissed is true when a brand-new log is created as missed, or
// when an existing log flips from completed to missed; either way a trainer
// alert has already been dispatched (best effort).
type DailyStatusResult struct {
	Created              bool `json:"created"`
	TransitionedToMissed bool `json:"transitionedToMissed"`
	Week                 int  `json:"week"`
}

// SessionLogInput is the rich submission path with an explicit plan,
// session and week.
type SessionLogInput struct {
	PlanID         primitive.ObjectID
	SessionID      primitive.ObjectID
	Week           int
	IsCompleted    bool
	Reason         domain.NonCompletionReason
	Notes          string
	ProofImage     string
	ActualDuration int
	Exercises      []domain.ExerciseResult
	OverallNotes   string
	Difficulty     int
	Energy         int
	Mood           int
	PainLevel      int
}

// HistoryFilter narrows the paginated log history.
type HistoryFilter struct {
	Week      int
	DayOfWeek domain.DayOfWeek
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

// Pagination describes a result page.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// TrackingService owns the completion-recording protocol: the per-day log
// upsert, the progress counter updates it triggers, and the read side of the
// log history.
type TrackingService interface {
	RecordDailyStatus(ctx context.Context, clientID primitive.ObjectID, input DailyStatusInput) (*domain.WorkoutLog, DailyStatusResult, error)
	RecordSessionLog(ctx context.Context, clientID primitive.ObjectID, input SessionLogInput) (*domain.WorkoutLog, error)
	GetLogHistory(ctx context.Context, clientID primitive.ObjectID, filter HistoryFilter) ([]domain.WorkoutLog, Pagination, error)
	GetPlanStats(ctx context.Context, clientID, planID primitive.ObjectID) (*domain.PlanStats, error)
}

type trackingService struct {
	planRepo    repository.WorkoutPlanRepository
	sessionRepo repository.WorkoutSessionRepository
	logRepo     repository.WorkoutLogRepository
	notifier    alerts.Notifier
	fileStorage storage.FileStorage
}

// NewTrackingService creates a new instance of trackingService.
func NewTrackingService(
	planRepo repository.WorkoutPlanRepository,
	sessionRepo repository.WorkoutSessionRepository,
	logRepo repository.WorkoutLogRepository,
	notifier alerts.Notifier,
	fileStorage storage.FileStorage,
) TrackingService {
	return &trackingService{
		planRepo:    planRepo,
		sessionRepo: sessionRepo,
		logRepo:     logRepo,
		notifier:    notifier,
		fileStorage: fileStorage,
	}
}

// validateNonCompletion enforces the reason/notes rules shared by both
// submission paths.
func validateNonCompletion(isCompleted bool, reason domain.NonCompletionReason, notes string) error {
	if isCompleted {
		return nil
	}
	if reason == "" {
		return ErrMissingReason
	}
	if !reason.IsValid() {
		return ErrInvalidReason
	}
	if reason == domain.ReasonOther && notes == "" {
		return ErrMissingNotes
	}
	return nil
}

// RecordDailyStatus records (or overwrites) the completion status for one
// calendar day of the client's active plan. At most one log exists per
// client/plan/session/day: a resubmission updates the existing record.
func (s *trackingService) RecordDailyStatus(ctx context.Context, clientID primitive.ObjectID, input DailyStatusInput) (*domain.WorkoutLog, DailyStatusResult, error) {
	var result DailyStatusResult

	targetDate := time.Now().UTC()
	if input.Date != nil {
		targetDate = *input.Date
	}
	targetDate = schedule.StartOfDay(targetDate)
	dayName := schedule.WeekdayName(targetDate)

	plan, err := s.planRepo.GetActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, result, ErrNoActivePlan
		}
		return nil, result, err
	}

	session, err := s.scheduledSessionFor(ctx, plan.ID, dayName)
	if err != nil {
		return nil, result, err
	}

	if err := validateNonCompletion(input.IsCompleted, input.Reason, input.Notes); err != nil {
		return nil, result, err
	}

	week := schedule.WeekSinceStart(plan.StartDate, targetDate)
	result.Week = week

	existing, err := s.logRepo.FindByDayKey(ctx, clientID, plan.ID, session.ID, targetDate)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, result, err
	}

	if existing == nil {
		logEntry := &domain.WorkoutLog{
			ClientID:      clientID,
			TrainerID:     plan.TrainerID,
			WorkoutPlanID: plan.ID,
			SessionID:     session.ID,
			Week:          week,
			DayOfWeek:     dayName,
			CompletedAt:   targetDate,
			IsCompleted:   input.IsCompleted,
			ProofImage:    input.ProofImage,
		}
		if !input.IsCompleted {
			logEntry.NonCompletionReason = input.Reason
			if input.Reason == domain.ReasonOther {
				logEntry.NonCompletionNotes = input.Notes
			}
		}

		_, err := s.logRepo.Create(ctx, logEntry)
		if errors.Is(err, repository.ErrDuplicateKey) {
			// Lost a race with a concurrent submission for the same day;
			// retry as an update against the winner's record.
			existing, err = s.logRepo.FindByDayKey(ctx, clientID, plan.ID, session.ID, targetDate)
			if err != nil {
				return nil, result, err
			}
			return s.overwriteDailyLog(ctx, plan, session, existing, input, targetDate, week, dayName, result)
		}
		if err != nil {
			return nil, result, err
		}

		result.Created = true
		result.TransitionedToMissed = !input.IsCompleted

		if input.IsCompleted {
			if err := s.planRepo.MarkSessionCompleted(ctx, plan.ID, session.ID, week, time.Now().UTC()); err != nil {
				return nil, result, err
			}
		} else {
			s.dispatchMissedAlert(ctx, plan, logEntry)
		}
		return logEntry, result, nil
	}

	return s.overwriteDailyLog(ctx, plan, session, existing, input, targetDate, week, dayName, result)
}

// overwriteDailyLog is the resubmission path: the day already has a log and
// its completion fields are replaced in place.
func (s *trackingService) overwriteDailyLog(
	ctx context.Context,
	plan *domain.WorkoutPlan,
	session *domain.WorkoutSession,
	existing *domain.WorkoutLog,
	input DailyStatusInput,
	targetDate time.Time,
	week int,
	dayName domain.DayOfWeek,
	result DailyStatusResult,
) (*domain.WorkoutLog, DailyStatusResult, error) {
	wasCompleted := existing.IsCompleted

	existing.IsCompleted = input.IsCompleted
	existing.Week = week
	existing.DayOfWeek = dayName
	existing.CompletedAt = targetDate
	existing.NonCompletionReason = ""
	existing.NonCompletionNotes = ""
	if !input.IsCompleted {
		existing.NonCompletionReason = input.Reason
		if input.Reason == domain.ReasonOther {
			existing.NonCompletionNotes = input.Notes
		}
	}
	replacedProof := ""
	if input.ProofImage != "" {
		if existing.ProofImage != "" && existing.ProofImage != input.ProofImage {
			replacedProof = existing.ProofImage
		}
		existing.ProofImage = input.ProofImage
	}

	if err := s.logRepo.Update(ctx, existing); err != nil {
		return nil, result, err
	}

	if replacedProof != "" && s.fileStorage != nil {
		// Best effort: an orphaned object is not worth failing the
		// resubmission over.
		if err := s.fileStorage.DeleteObject(ctx, replacedProof); err != nil {
			log.Printf("WARN: Failed to delete replaced proof image %s: %v", replacedProof, err)
		}
	}

	result.TransitionedToMissed = wasCompleted && !input.IsCompleted

	if input.IsCompleted && !wasCompleted {
		// This completion has not been counted yet.
		if err := s.planRepo.MarkSessionCompleted(ctx, plan.ID, session.ID, week, time.Now().UTC()); err != nil {
			return nil, result, err
		}
	}
	if result.TransitionedToMissed {
		s.dispatchMissedAlert(ctx, plan, existing)
	}
	return existing, result, nil
}

// RecordSessionLog is the rich submission path. It always creates a new
// log: repeated rich submissions for the same session are kept as separate
// records, unlike the idempotent daily-status path.
func (s *trackingService) RecordSessionLog(ctx context.Context, clientID primitive.ObjectID, input SessionLogInput) (*domain.WorkoutLog, error) {
	plan, err := s.planRepo.GetByID(ctx, input.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.ClientID != clientID {
		return nil, ErrPlanNotFound
	}

	session, err := s.sessionRepo.GetByID(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.WorkoutPlanID != plan.ID {
		return nil, ErrSessionNotFound
	}

	if input.Week < 1 {
		return nil, ErrInvalidWeek
	}
	if err := validateNonCompletion(input.IsCompleted, input.Reason, input.Notes); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	logEntry := &domain.WorkoutLog{
		ClientID:      clientID,
		TrainerID:     plan.TrainerID,
		WorkoutPlanID: plan.ID,
		SessionID:     session.ID,
		Week:          input.Week,
		DayOfWeek:     session.DayOfWeek,
		// The rich path keeps the submission instant, so several detailed
		// logs for one session never collide on the day key.
		CompletedAt:    now,
		IsCompleted:    input.IsCompleted,
		ProofImage:     input.ProofImage,
		ActualDuration: input.ActualDuration,
		Exercises:      input.Exercises,
		OverallNotes:   input.OverallNotes,
		Difficulty:     input.Difficulty,
		Energy:         input.Energy,
		Mood:           input.Mood,
		PainLevel:      input.PainLevel,
	}
	if !input.IsCompleted {
		logEntry.NonCompletionReason = input.Reason
		if input.Reason == domain.ReasonOther {
			logEntry.NonCompletionNotes = input.Notes
		}
	}

	if _, err := s.logRepo.Create(ctx, logEntry); err != nil {
		return nil, err
	}

	if input.IsCompleted {
		if err := s.planRepo.MarkSessionCompleted(ctx, plan.ID, session.ID, input.Week, now); err != nil {
			return nil, err
		}
	} else {
		s.dispatchMissedAlert(ctx, plan, logEntry)
	}
	return logEntry, nil
}

// GetLogHistory returns a page of the client's workout history.
func (s *trackingService) GetLogHistory(ctx context.Context, clientID primitive.ObjectID, filter HistoryFilter) ([]domain.WorkoutLog, Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	logs, total, err := s.logRepo.List(ctx, repository.LogFilter{
		ClientID:  clientID,
		Week:      filter.Week,
		DayOfWeek: filter.DayOfWeek,
		From:      filter.From,
		To:        filter.To,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return nil, Pagination{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	pagination := Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
	return logs, pagination, nil
}

// GetPlanStats returns the plan-level progress summary for one of the
// client's own plans.
func (s *trackingService) GetPlanStats(ctx context.Context, clientID, planID primitive.ObjectID) (*domain.PlanStats, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.ClientID != clientID {
		return nil, ErrPlanNotFound
	}
	stats := plan.Stats()
	return &stats, nil
}

// scheduledSessionFor finds the plan's session template for a weekday.
func (s *trackingService) scheduledSessionFor(ctx context.Context, planID primitive.ObjectID, day domain.DayOfWeek) (*domain.WorkoutSession, error) {
	sessions, err := s.sessionRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].DayOfWeek == day {
			return &sessions[i], nil
		}
	}
	return nil, ErrNoScheduledSession
}

// dispatchMissedAlert notifies the trainer, best effort. A failed dispatch
// never fails the completion-recording operation.
func (s *trackingService) dispatchMissedAlert(ctx context.Context, plan *domain.WorkoutPlan, logEntry *domain.WorkoutLog) {
	alert := alerts.WorkoutMissedAlert{
		TrainerID:     plan.TrainerID,
		ClientID:      logEntry.ClientID,
		WorkoutLogID:  logEntry.ID,
		WorkoutPlanID: plan.ID,
		Reason:        logEntry.NonCompletionReason,
		Date:          logEntry.CompletedAt,
	}
	if err := s.notifier.WorkoutMissed(ctx, alert); err != nil {
		log.Printf("WARN: failed to dispatch missed-workout alert for log %s: %v", logEntry.ID.Hex(), err)
	}
}
