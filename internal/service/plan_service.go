package service

import (
	"context"
	"errors"
	"time"

	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/repository"
	"gymplatform/backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClientNotFound     = errors.New("client not found")
	ErrClientNotRole      = errors.New("user is not a client")
	ErrClientNotAssigned  = errors.New("client is not assigned to this trainer")
	ErrInvalidTotalWeeks  = errors.New("total weeks must be between 1 and 52")
	ErrNoSessions         = errors.New("a plan requires at least one session")
	ErrInvalidDayOfWeek   = errors.New("invalid day of week")
	ErrNoWorkoutScheduled = errors.New("no workout scheduled for today")
)

// SessionInput is one session template in a plan create/update request.
type SessionInput struct {
	DayOfWeek         domain.DayOfWeek
	Exercises         []domain.ExercisePrescription
	EstimatedDuration int
	Difficulty        string
}

// PlanInput carries everything a trainer submits to create or replace a
// plan. Sessions are replaced wholesale on update.
type PlanInput struct {
	Name        string
	Description string
	ClientID    primitive.ObjectID
	Frequency   string
	StartDate   time.Time
	EndDate     *time.Time
	Goals       []string
	Level       string
	Notes       string
	TotalWeeks  int
	Sessions    []SessionInput
}

// PlanListFilter narrows a trainer's plan listing.
type PlanListFilter struct {
	ClientID  primitive.ObjectID
	IsActive  *bool
	Frequency string
	Level     string
	Search    string
	SortBy    string
	SortAsc   bool
	Page      int
	Limit     int
}

// PlanWithSessions pairs a plan with its resolved session templates.
type PlanWithSessions struct {
	Plan     domain.WorkoutPlan      `json:"plan"`
	Sessions []domain.WorkoutSession `json:"sessions"`
}

// TodayWorkout is the client's schedule entry for the current day.
type TodayWorkout struct {
	Plan    *domain.WorkoutPlan    `json:"plan"`
	Session *domain.WorkoutSession `json:"session"`
	Week    int                    `json:"week"`
	Log     *domain.WorkoutLog     `json:"log,omitempty"` // today's log, if already recorded
}

// PlanService owns plan lifecycle: trainer-side CRUD and the client-side
// read paths.
type PlanService interface {
	CreatePlan(ctx context.Context, trainerID primitive.ObjectID, input PlanInput) (*PlanWithSessions, error)
	UpdatePlan(ctx context.Context, trainerID, planID primitive.ObjectID, input PlanInput) (*PlanWithSessions, error)
	SetPlanActive(ctx context.Context, trainerID, planID primitive.ObjectID, active bool) error
	GetTrainerPlans(ctx context.Context, trainerID primitive.ObjectID, filter PlanListFilter) ([]domain.WorkoutPlan, Pagination, error)
	GetTrainerPlan(ctx context.Context, trainerID, planID primitive.ObjectID) (*PlanWithSessions, error)
	GetClientPlans(ctx context.Context, clientID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetClientPlan(ctx context.Context, clientID, planID primitive.ObjectID) (*PlanWithSessions, error)
	GetTodayWorkout(ctx context.Context, clientID primitive.ObjectID) (*TodayWorkout, error)
	VerifyTrainerClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error
}

type planService struct {
	planRepo    repository.WorkoutPlanRepository
	sessionRepo repository.WorkoutSessionRepository
	logRepo     repository.WorkoutLogRepository
	userRepo    repository.UserRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.WorkoutPlanRepository,
	sessionRepo repository.WorkoutSessionRepository,
	logRepo repository.WorkoutLogRepository,
	userRepo repository.UserRepository,
) PlanService {
	return &planService{
		planRepo:    planRepo,
		sessionRepo: sessionRepo,
		logRepo:     logRepo,
		userRepo:    userRepo,
	}
}

func validatePlanInput(input PlanInput) error {
	if input.TotalWeeks < 1 || input.TotalWeeks > 52 {
		return ErrInvalidTotalWeeks
	}
	if len(input.Sessions) == 0 {
		return ErrNoSessions
	}
	for _, s := range input.Sessions {
		if !s.DayOfWeek.IsValid() {
			return ErrInvalidDayOfWeek
		}
	}
	return nil
}

// VerifyTrainerClient checks that clientID names a client assigned to the
// trainer.
func (s *planService) VerifyTrainerClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if !client.IsClient() {
		return ErrClientNotRole
	}
	if client.AssignedTrainer == nil || *client.AssignedTrainer != trainerID {
		return ErrClientNotAssigned
	}
	return nil
}

// CreatePlan creates a plan and its session templates for an assigned
// client. The planned-session baseline is sessions-per-week times the plan
// length in weeks.
func (s *planService) CreatePlan(ctx context.Context, trainerID primitive.ObjectID, input PlanInput) (*PlanWithSessions, error) {
	if err := validatePlanInput(input); err != nil {
		return nil, err
	}
	if err := s.VerifyTrainerClient(ctx, trainerID, input.ClientID); err != nil {
		return nil, err
	}

	plan := &domain.WorkoutPlan{
		Name:        input.Name,
		Description: input.Description,
		ClientID:    input.ClientID,
		TrainerID:   trainerID,
		Frequency:   input.Frequency,
		StartDate:   schedule.StartOfDay(input.StartDate),
		EndDate:     input.EndDate,
		IsActive:    true,
		Goals:       input.Goals,
		Level:       input.Level,
		Notes:       input.Notes,
		CurrentWeek: 1,
		TotalWeeks:  input.TotalWeeks,
		Progress: domain.PlanProgress{
			TotalSessionsPlanned: len(input.Sessions) * input.TotalWeeks,
		},
	}

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID

	sessions := buildSessions(planID, input.Sessions)
	sessionIDs, err := s.sessionRepo.CreateMany(ctx, sessions)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].ID = sessionIDs[i]
	}

	plan.SessionIDs = sessionIDs
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}

	return &PlanWithSessions{Plan: *plan, Sessions: sessions}, nil
}

// UpdatePlan replaces the plan's mutable fields and its whole session set.
// Progress counters are untouched except for the planned baseline, which is
// re-derived from the new schedule.
func (s *planService) UpdatePlan(ctx context.Context, trainerID, planID primitive.ObjectID, input PlanInput) (*PlanWithSessions, error) {
	if err := validatePlanInput(input); err != nil {
		return nil, err
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.TrainerID != trainerID {
		return nil, ErrPlanNotFound
	}

	if err := s.sessionRepo.DeleteByPlanID(ctx, planID); err != nil {
		return nil, err
	}
	sessions := buildSessions(planID, input.Sessions)
	sessionIDs, err := s.sessionRepo.CreateMany(ctx, sessions)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].ID = sessionIDs[i]
	}

	plan.Name = input.Name
	plan.Description = input.Description
	plan.Frequency = input.Frequency
	plan.StartDate = schedule.StartOfDay(input.StartDate)
	plan.EndDate = input.EndDate
	plan.Goals = input.Goals
	plan.Level = input.Level
	plan.Notes = input.Notes
	plan.TotalWeeks = input.TotalWeeks
	plan.SessionIDs = sessionIDs
	plan.Progress.TotalSessionsPlanned = len(input.Sessions) * input.TotalWeeks

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return &PlanWithSessions{Plan: *plan, Sessions: sessions}, nil
}

// SetPlanActive toggles the plan's active flag, scoped to the owning
// trainer.
func (s *planService) SetPlanActive(ctx context.Context, trainerID, planID primitive.ObjectID, active bool) error {
	err := s.planRepo.SetActive(ctx, planID, trainerID, active)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlanNotFound
	}
	return err
}

// GetTrainerPlans lists the trainer's plans with filtering and pagination.
func (s *planService) GetTrainerPlans(ctx context.Context, trainerID primitive.ObjectID, filter PlanListFilter) ([]domain.WorkoutPlan, Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	plans, total, err := s.planRepo.List(ctx, repository.PlanFilter{
		ClientID:  filter.ClientID,
		TrainerID: trainerID,
		IsActive:  filter.IsActive,
		Frequency: filter.Frequency,
		Level:     filter.Level,
		Search:    filter.Search,
		SortBy:    filter.SortBy,
		SortAsc:   filter.SortAsc,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return nil, Pagination{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return plans, Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}, nil
}

// GetTrainerPlan fetches one of the trainer's plans with its sessions.
func (s *planService) GetTrainerPlan(ctx context.Context, trainerID, planID primitive.ObjectID) (*PlanWithSessions, error) {
	return s.getPlanScoped(ctx, planID, func(p *domain.WorkoutPlan) bool { return p.TrainerID == trainerID })
}

// GetClientPlans lists all of the client's plans, newest first.
func (s *planService) GetClientPlans(ctx context.Context, clientID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	plans, _, err := s.planRepo.List(ctx, repository.PlanFilter{ClientID: clientID, Page: 1, Limit: 100})
	return plans, err
}

// GetClientPlan fetches one of the client's own plans with its sessions.
func (s *planService) GetClientPlan(ctx context.Context, clientID, planID primitive.ObjectID) (*PlanWithSessions, error) {
	return s.getPlanScoped(ctx, planID, func(p *domain.WorkoutPlan) bool { return p.ClientID == clientID })
}

func (s *planService) getPlanScoped(ctx context.Context, planID primitive.ObjectID, owns func(*domain.WorkoutPlan) bool) (*PlanWithSessions, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !owns(plan) {
		return nil, ErrPlanNotFound
	}
	sessions, err := s.sessionRepo.GetByPlanID(ctx, planID)
	if err != nil {
		return nil, err
	}
	return &PlanWithSessions{Plan: *plan, Sessions: sessions}, nil
}

// GetTodayWorkout resolves the client's active plan, the session scheduled
// for the current weekday, and today's log if one was already recorded.
func (s *planService) GetTodayWorkout(ctx context.Context, clientID primitive.ObjectID) (*TodayWorkout, error) {
	plan, err := s.planRepo.GetActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActivePlan
		}
		return nil, err
	}

	today := schedule.StartOfDay(time.Now().UTC())
	dayName := schedule.WeekdayName(today)

	sessions, err := s.sessionRepo.GetByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	var session *domain.WorkoutSession
	for i := range sessions {
		if sessions[i].DayOfWeek == dayName {
			session = &sessions[i]
			break
		}
	}
	if session == nil {
		return nil, ErrNoWorkoutScheduled
	}

	result := &TodayWorkout{
		Plan:    plan,
		Session: session,
		Week:    schedule.WeekSinceStart(plan.StartDate, today),
	}
	if logEntry, err := s.logRepo.FindByDayKey(ctx, clientID, plan.ID, session.ID, today); err == nil {
		result.Log = logEntry
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return result, nil
}

func buildSessions(planID primitive.ObjectID, inputs []SessionInput) []domain.WorkoutSession {
	sessions := make([]domain.WorkoutSession, len(inputs))
	for i, in := range inputs {
		sessions[i] = domain.WorkoutSession{
			WorkoutPlanID:     planID,
			DayOfWeek:         in.DayOfWeek,
			Exercises:         in.Exercises,
			EstimatedDuration: in.EstimatedDuration,
			Difficulty:        in.Difficulty,
		}
	}
	return sessions
}
