package service

import (
	"context"
	"math"
	"sort"
	"time"

	"gymplatform/backend/internal/alerts"
	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/repository"
	"gymplatform/backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes over the repository interfaces. They mirror the mongo
// implementations' contracts closely enough for service-level tests: the
// day-key uniqueness check, the atomic progress mutation, and plain
// filtering.

type fakePlanRepo struct {
	plans map[primitive.ObjectID]*domain.WorkoutPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.WorkoutPlan)}
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	if plan.CurrentWeek < 1 {
		plan.CurrentWeek = 1
	}
	cp := *plan
	r.plans[plan.ID] = &cp
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *plan
	return &cp, nil
}

func (r *fakePlanRepo) GetActiveByClient(_ context.Context, clientID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	for _, plan := range r.plans {
		if plan.ClientID == clientID && plan.IsActive {
			cp := *plan
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlanRepo) List(_ context.Context, filter repository.PlanFilter) ([]domain.WorkoutPlan, int64, error) {
	var out []domain.WorkoutPlan
	for _, plan := range r.plans {
		if filter.ClientID != primitive.NilObjectID && plan.ClientID != filter.ClientID {
			continue
		}
		if filter.TrainerID != primitive.NilObjectID && plan.TrainerID != filter.TrainerID {
			continue
		}
		if filter.IsActive != nil && plan.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, *plan)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, int64(len(out)), nil
}

func (r *fakePlanRepo) Update(_ context.Context, plan *domain.WorkoutPlan) error {
	stored, ok := r.plans[plan.ID]
	if !ok || stored.TrainerID != plan.TrainerID {
		return repository.ErrNotFound
	}
	stored.Name = plan.Name
	stored.Description = plan.Description
	stored.Frequency = plan.Frequency
	stored.SessionIDs = plan.SessionIDs
	stored.StartDate = plan.StartDate
	stored.EndDate = plan.EndDate
	stored.Goals = plan.Goals
	stored.Level = plan.Level
	stored.Notes = plan.Notes
	stored.TotalWeeks = plan.TotalWeeks
	stored.Progress.TotalSessionsPlanned = plan.Progress.TotalSessionsPlanned
	return nil
}

func (r *fakePlanRepo) SetActive(_ context.Context, planID, trainerID primitive.ObjectID, active bool) error {
	stored, ok := r.plans[planID]
	if !ok || stored.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	stored.IsActive = active
	return nil
}

func (r *fakePlanRepo) MarkSessionCompleted(_ context.Context, planID, sessionID primitive.ObjectID, week int, completedAt time.Time) error {
	stored, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Progress.TotalSessionsCompleted++
	if stored.Progress.TotalSessionsPlanned > 0 {
		stored.Progress.CompletionRate = int(math.Floor(
			float64(stored.Progress.TotalSessionsCompleted)/float64(stored.Progress.TotalSessionsPlanned)*100 + 0.5,
		))
	} else {
		stored.Progress.CompletionRate = 0
	}
	if week > stored.CurrentWeek {
		stored.CurrentWeek = week
	}
	stored.LastCompletedSession = &domain.LastCompletedSession{
		Session:     sessionID,
		CompletedAt: completedAt,
		Week:        week,
	}
	return nil
}

func (r *fakePlanRepo) TrainerStats(_ context.Context, trainerID primitive.ObjectID) (*repository.TrainerPlanStats, error) {
	stats := &repository.TrainerPlanStats{}
	clients := make(map[primitive.ObjectID]bool)
	var rateSum float64
	for _, plan := range r.plans {
		if plan.TrainerID != trainerID {
			continue
		}
		stats.TotalPlans++
		if plan.IsActive {
			stats.ActivePlans++
		}
		if plan.Progress.CompletionRate == 100 {
			stats.CompletedPlans++
		}
		clients[plan.ClientID] = true
		rateSum += float64(plan.Progress.CompletionRate)
	}
	stats.TotalClients = len(clients)
	if stats.TotalPlans > 0 {
		stats.AvgCompletionRate = rateSum / float64(stats.TotalPlans)
	}
	return stats, nil
}

type fakeSessionRepo struct {
	sessions []domain.WorkoutSession
}

func (r *fakeSessionRepo) CreateMany(_ context.Context, sessions []domain.WorkoutSession) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, len(sessions))
	for i := range sessions {
		sessions[i].ID = primitive.NewObjectID()
		ids[i] = sessions[i].ID
		r.sessions = append(r.sessions, sessions[i])
	}
	return ids, nil
}

func (r *fakeSessionRepo) GetByPlanID(_ context.Context, planID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	var out []domain.WorkoutSession
	for _, s := range r.sessions {
		if s.WorkoutPlanID == planID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	for _, s := range r.sessions {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) DeleteByPlanID(_ context.Context, planID primitive.ObjectID) error {
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		if s.WorkoutPlanID != planID {
			kept = append(kept, s)
		}
	}
	r.sessions = kept
	return nil
}

type fakeLogRepo struct {
	logs map[primitive.ObjectID]*domain.WorkoutLog
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{logs: make(map[primitive.ObjectID]*domain.WorkoutLog)}
}

func (r *fakeLogRepo) dayKeyTaken(log *domain.WorkoutLog) bool {
	for _, existing := range r.logs {
		if existing.ClientID == log.ClientID &&
			existing.WorkoutPlanID == log.WorkoutPlanID &&
			existing.SessionID == log.SessionID &&
			existing.CompletedAt.Equal(log.CompletedAt) {
			return true
		}
	}
	return false
}

func (r *fakeLogRepo) Create(_ context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error) {
	if r.dayKeyTaken(log) {
		return primitive.NilObjectID, repository.ErrDuplicateKey
	}
	log.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now
	cp := *log
	r.logs[log.ID] = &cp
	return log.ID, nil
}

func (r *fakeLogRepo) Update(_ context.Context, log *domain.WorkoutLog) error {
	if _, ok := r.logs[log.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *log
	cp.UpdatedAt = time.Now().UTC()
	r.logs[log.ID] = &cp
	return nil
}

func (r *fakeLogRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	log, ok := r.logs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *log
	return &cp, nil
}

func (r *fakeLogRepo) FindByDayKey(_ context.Context, clientID, planID, sessionID primitive.ObjectID, day time.Time) (*domain.WorkoutLog, error) {
	start := schedule.StartOfDay(day)
	end := schedule.EndOfDay(day)
	for _, log := range r.logs {
		if log.ClientID == clientID &&
			log.WorkoutPlanID == planID &&
			log.SessionID == sessionID &&
			!log.CompletedAt.Before(start) && !log.CompletedAt.After(end) {
			cp := *log
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeLogRepo) List(_ context.Context, filter repository.LogFilter) ([]domain.WorkoutLog, int64, error) {
	var out []domain.WorkoutLog
	for _, log := range r.logs {
		if log.ClientID != filter.ClientID {
			continue
		}
		if filter.Week != 0 && log.Week != filter.Week {
			continue
		}
		if filter.DayOfWeek != "" && log.DayOfWeek != filter.DayOfWeek {
			continue
		}
		if filter.From != nil && log.CompletedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && log.CompletedAt.After(*filter.To) {
			continue
		}
		out = append(out, *log)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	total := int64(len(out))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *fakeLogRepo) ListWindow(_ context.Context, window repository.LogWindow) ([]domain.WorkoutLog, error) {
	var out []domain.WorkoutLog
	for _, log := range r.logs {
		if log.ClientID != window.ClientID || log.IsCompleted != window.IsCompleted {
			continue
		}
		if window.TrainerID != primitive.NilObjectID && log.TrainerID != window.TrainerID {
			continue
		}
		if log.CompletedAt.Before(window.Since) {
			continue
		}
		out = append(out, *log)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (r *fakeLogRepo) ListRange(_ context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutLog, error) {
	var out []domain.WorkoutLog
	for _, log := range r.logs {
		if log.ClientID != clientID {
			continue
		}
		if log.CompletedAt.Before(from) || log.CompletedAt.After(to) {
			continue
		}
		out = append(out, *log)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (r *fakeLogRepo) ClientStats(_ context.Context, clientID primitive.ObjectID) (*repository.ClientLogStats, error) {
	stats := &repository.ClientLogStats{}
	var durationSum, durationCount float64
	for _, log := range r.logs {
		if log.ClientID != clientID {
			continue
		}
		stats.TotalWorkouts++
		if log.IsCompleted {
			stats.CompletedWorkouts++
			if stats.LastWorkout == nil || log.CompletedAt.After(*stats.LastWorkout) {
				t := log.CompletedAt
				stats.LastWorkout = &t
			}
		}
		if log.ActualDuration > 0 {
			durationSum += float64(log.ActualDuration)
			durationCount++
		}
	}
	if durationCount > 0 {
		stats.AvgDuration = durationSum / durationCount
	}
	return stats, nil
}

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

type fakeNotifier struct {
	alerts []alerts.WorkoutMissedAlert
	err    error
}

func (n *fakeNotifier) WorkoutMissed(_ context.Context, alert alerts.WorkoutMissedAlert) error {
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, alert)
	return nil
}

// --- FileStorage fake ---

type fakeFileStorage struct {
	deleted   []string
	deleteErr error
}

func (s *fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (s *fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (s *fakeFileStorage) DeleteObject(_ context.Context, objectKey string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, objectKey)
	return nil
}
