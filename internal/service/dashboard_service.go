package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/repository"
	"gymplatform/backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Calendar day statuses, in order of precedence.
const (
	DayStatusCompleted    = "completed"
	DayStatusNotCompleted = "not_completed"
	DayStatusPending      = "pending"
	DayStatusNoWorkout    = "no_workout"
)

// BuildCalendar materializes one entry per day, so the range is bounded.
const maxCalendarRangeDays = 366

// ErrCalendarRangeTooLarge is returned when the requested calendar range
// spans more than a year.
var ErrCalendarRangeTooLarge = errors.New("calendar range must not exceed one year")

// WeeklyBucket aggregates completion outcomes for one ISO week.
type WeeklyBucket struct {
	Period       string `json:"period"`
	Week         int    `json:"week"`
	Year         int    `json:"year"`
	Completed    int    `json:"completed"`
	NotCompleted int    `json:"notCompleted"`
}

// MonthlyBucket aggregates completion outcomes for one calendar month.
type MonthlyBucket struct {
	Period       string `json:"period"`
	Month        int    `json:"month"`
	MonthName    string `json:"monthName"`
	Year         int    `json:"year"`
	Completed    int    `json:"completed"`
	NotCompleted int    `json:"notCompleted"`
}

// SeriesStatistics are the summary numbers over the whole window.
type SeriesStatistics struct {
	TotalCompleted                int                        `json:"totalCompleted"`
	TotalNotCompleted             int                        `json:"totalNotCompleted"`
	TotalWorkouts                 int                        `json:"totalWorkouts"`
	CompletionRate                int                        `json:"completionRate"`
	AvgCompletedPerWeek           int                        `json:"avgCompletedPerWeek"`
	AvgCompletedPerMonth          int                        `json:"avgCompletedPerMonth"`
	MostCommonNonCompletionReason domain.NonCompletionReason `json:"mostCommonNonCompletionReason,omitempty"`
}

// SeriesPeriod describes the aggregation window.
type SeriesPeriod struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Months int       `json:"months"`
}

// TimeSeries is the dashboard payload: weekly and monthly completion buckets
// plus window-level statistics.
type TimeSeries struct {
	Weekly     []WeeklyBucket   `json:"weekly"`
	Monthly    []MonthlyBucket  `json:"monthly"`
	Statistics SeriesStatistics `json:"statistics"`
	Period     SeriesPeriod     `json:"period"`
}

// CalendarDay is one cell of the calendar view.
type CalendarDay struct {
	Date      string                 `json:"date"`
	DayOfWeek domain.DayOfWeek       `json:"dayOfWeek"`
	Scheduled *domain.WorkoutSession `json:"scheduledSession,omitempty"`
	Logs      []domain.WorkoutLog    `json:"logs"`
	Status    string                 `json:"status"`
}

// CalendarView is the per-day schedule/outcome overlay for a date range.
type CalendarView struct {
	Plan     *domain.WorkoutPlan `json:"plan,omitempty"`
	Calendar []CalendarDay       `json:"calendar"`
}

// ClientOverview is the all-time summary for a single client.
type ClientOverview struct {
	TotalPlans        int64      `json:"totalPlans"`
	ActivePlans       int64      `json:"activePlans"`
	TotalWorkouts     int64      `json:"totalWorkouts"`
	CompletedWorkouts int64      `json:"completedWorkouts"`
	CompletionRate    int        `json:"completionRate"`
	AvgDuration       float64    `json:"avgDuration"`
	LastWorkout       *time.Time `json:"lastWorkout,omitempty"`
}

// DashboardService builds the read-side views: time-series aggregation,
// calendar overlay, and per-client / per-trainer summaries.
type DashboardService interface {
	BuildTimeSeries(ctx context.Context, clientID primitive.ObjectID, trainerID primitive.ObjectID, months int) (*TimeSeries, error)
	BuildCalendar(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (*CalendarView, error)
	GetClientOverview(ctx context.Context, clientID primitive.ObjectID) (*ClientOverview, error)
	GetTrainerStats(ctx context.Context, trainerID primitive.ObjectID) (*repository.TrainerPlanStats, error)
}

type dashboardService struct {
	planRepo    repository.WorkoutPlanRepository
	sessionRepo repository.WorkoutSessionRepository
	logRepo     repository.WorkoutLogRepository
}

// NewDashboardService creates a new instance of dashboardService.
func NewDashboardService(
	planRepo repository.WorkoutPlanRepository,
	sessionRepo repository.WorkoutSessionRepository,
	logRepo repository.WorkoutLogRepository,
) DashboardService {
	return &dashboardService{
		planRepo:    planRepo,
		sessionRepo: sessionRepo,
		logRepo:     logRepo,
	}
}

// BuildTimeSeries aggregates the client's logs over the trailing window into
// weekly and monthly buckets. The window starts at the first day of the month
// `months` months before now. When trainerID is nonzero only logs recorded
// under that trainer's plans are counted.
func (s *dashboardService) BuildTimeSeries(ctx context.Context, clientID primitive.ObjectID, trainerID primitive.ObjectID, months int) (*TimeSeries, error) {
	if months < 1 {
		months = 6
	}
	now := time.Now().UTC()
	windowStart := time.Date(now.Year(), now.Month()-time.Month(months), 1, 0, 0, 0, 0, time.UTC)

	completed, err := s.logRepo.ListWindow(ctx, repository.LogWindow{
		ClientID:    clientID,
		TrainerID:   trainerID,
		Since:       windowStart,
		IsCompleted: true,
	})
	if err != nil {
		return nil, err
	}
	notCompleted, err := s.logRepo.ListWindow(ctx, repository.LogWindow{
		ClientID:    clientID,
		TrainerID:   trainerID,
		Since:       windowStart,
		IsCompleted: false,
	})
	if err != nil {
		return nil, err
	}

	weeklyMap := make(map[string]*WeeklyBucket)
	monthlyMap := make(map[string]*MonthlyBucket)

	bucket := func(logEntry *domain.WorkoutLog, done bool) {
		isoWeek := schedule.ISOWeek(logEntry.CompletedAt)
		// Buckets are keyed by the calendar year so week 1 spilling into the
		// previous December stays in one place on the chart.
		wk := fmt.Sprintf("%d-W%02d", logEntry.CompletedAt.Year(), isoWeek)
		w, ok := weeklyMap[wk]
		if !ok {
			w = &WeeklyBucket{Period: wk, Week: isoWeek, Year: logEntry.CompletedAt.Year()}
			weeklyMap[wk] = w
		}
		mk := fmt.Sprintf("%d-%02d", logEntry.CompletedAt.Year(), int(logEntry.CompletedAt.Month()))
		m, ok := monthlyMap[mk]
		if !ok {
			m = &MonthlyBucket{
				Period:    mk,
				Month:     int(logEntry.CompletedAt.Month()),
				MonthName: logEntry.CompletedAt.Month().String(),
				Year:      logEntry.CompletedAt.Year(),
			}
			monthlyMap[mk] = m
		}
		if done {
			w.Completed++
			m.Completed++
		} else {
			w.NotCompleted++
			m.NotCompleted++
		}
	}

	for i := range completed {
		bucket(&completed[i], true)
	}
	for i := range notCompleted {
		bucket(&notCompleted[i], false)
	}

	weekly := make([]WeeklyBucket, 0, len(weeklyMap))
	for _, w := range weeklyMap {
		weekly = append(weekly, *w)
	}
	sort.Slice(weekly, func(i, j int) bool { return weekly[i].Period < weekly[j].Period })

	monthly := make([]MonthlyBucket, 0, len(monthlyMap))
	for _, m := range monthlyMap {
		monthly = append(monthly, *m)
	}
	sort.Slice(monthly, func(i, j int) bool { return monthly[i].Period < monthly[j].Period })

	stats := SeriesStatistics{
		TotalCompleted:    len(completed),
		TotalNotCompleted: len(notCompleted),
		TotalWorkouts:     len(completed) + len(notCompleted),
	}
	if stats.TotalWorkouts > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.TotalCompleted) / float64(stats.TotalWorkouts) * 100))
	}
	if len(weekly) > 0 {
		stats.AvgCompletedPerWeek = int(math.Round(float64(stats.TotalCompleted) / float64(len(weekly))))
	}
	if len(monthly) > 0 {
		stats.AvgCompletedPerMonth = int(math.Round(float64(stats.TotalCompleted) / float64(len(monthly))))
	}
	stats.MostCommonNonCompletionReason = mostCommonReason(notCompleted)

	return &TimeSeries{
		Weekly:     weekly,
		Monthly:    monthly,
		Statistics: stats,
		Period: SeriesPeriod{
			Start:  windowStart,
			End:    now,
			Months: months,
		},
	}, nil
}

// mostCommonReason returns the modal non-completion reason; ties break to
// the lexicographically smallest reason so the result is deterministic.
func mostCommonReason(logs []domain.WorkoutLog) domain.NonCompletionReason {
	counts := make(map[domain.NonCompletionReason]int)
	for i := range logs {
		if logs[i].NonCompletionReason != "" {
			counts[logs[i].NonCompletionReason]++
		}
	}
	var best domain.NonCompletionReason
	bestCount := 0
	for reason, count := range counts {
		if count > bestCount || (count == bestCount && count > 0 && reason < best) {
			best = reason
			bestCount = count
		}
	}
	return best
}

// BuildCalendar overlays the active plan's schedule with the client's logs
// for each day in [from, to]. A client with no active plan gets an empty
// calendar, not an error.
func (s *dashboardService) BuildCalendar(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (*CalendarView, error) {
	rangeDays := int(schedule.StartOfDay(to).Sub(schedule.StartOfDay(from)).Hours()/24) + 1
	if rangeDays > maxCalendarRangeDays {
		return nil, ErrCalendarRangeTooLarge
	}

	plan, err := s.planRepo.GetActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &CalendarView{Calendar: []CalendarDay{}}, nil
		}
		return nil, err
	}

	sessions, err := s.sessionRepo.GetByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	byWeekday := make(map[domain.DayOfWeek]*domain.WorkoutSession, len(sessions))
	for i := range sessions {
		if _, ok := byWeekday[sessions[i].DayOfWeek]; !ok {
			byWeekday[sessions[i].DayOfWeek] = &sessions[i]
		}
	}

	logs, err := s.logRepo.ListRange(ctx, clientID, schedule.StartOfDay(from), schedule.EndOfDay(to))
	if err != nil {
		return nil, err
	}
	logsByDay := make(map[string][]domain.WorkoutLog)
	for i := range logs {
		key := logs[i].CompletedAt.UTC().Format("2006-01-02")
		logsByDay[key] = append(logsByDay[key], logs[i])
	}

	var days []CalendarDay
	last := schedule.StartOfDay(to)
	for d := schedule.StartOfDay(from); !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		dayName := schedule.WeekdayName(d)
		scheduled := byWeekday[dayName]
		dayLogs := logsByDay[key]
		if dayLogs == nil {
			dayLogs = []domain.WorkoutLog{}
		}

		status := DayStatusNoWorkout
		switch {
		case anyCompleted(dayLogs):
			status = DayStatusCompleted
		case len(dayLogs) > 0:
			status = DayStatusNotCompleted
		case scheduled != nil:
			status = DayStatusPending
		}

		days = append(days, CalendarDay{
			Date:      key,
			DayOfWeek: dayName,
			Scheduled: scheduled,
			Logs:      dayLogs,
			Status:    status,
		})
	}

	return &CalendarView{Plan: plan, Calendar: days}, nil
}

func anyCompleted(logs []domain.WorkoutLog) bool {
	for i := range logs {
		if logs[i].IsCompleted {
			return true
		}
	}
	return false
}

// GetClientOverview returns the client's all-time plan and workout summary.
func (s *dashboardService) GetClientOverview(ctx context.Context, clientID primitive.ObjectID) (*ClientOverview, error) {
	logStats, err := s.logRepo.ClientStats(ctx, clientID)
	if err != nil {
		return nil, err
	}

	_, totalPlans, err := s.planRepo.List(ctx, repository.PlanFilter{ClientID: clientID, Page: 1, Limit: 1})
	if err != nil {
		return nil, err
	}
	active := true
	_, activePlans, err := s.planRepo.List(ctx, repository.PlanFilter{ClientID: clientID, IsActive: &active, Page: 1, Limit: 1})
	if err != nil {
		return nil, err
	}

	overview := &ClientOverview{
		TotalPlans:        totalPlans,
		ActivePlans:       activePlans,
		TotalWorkouts:     logStats.TotalWorkouts,
		CompletedWorkouts: logStats.CompletedWorkouts,
		AvgDuration:       logStats.AvgDuration,
		LastWorkout:       logStats.LastWorkout,
	}
	if logStats.TotalWorkouts > 0 {
		overview.CompletionRate = int(math.Round(float64(logStats.CompletedWorkouts) / float64(logStats.TotalWorkouts) * 100))
	}
	return overview, nil
}

// GetTrainerStats returns the plan-level summary across all of the
// trainer's clients.
func (s *dashboardService) GetTrainerStats(ctx context.Context, trainerID primitive.ObjectID) (*repository.TrainerPlanStats, error) {
	return s.planRepo.TrainerStats(ctx, trainerID)
}
