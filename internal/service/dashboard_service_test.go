package service

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type dashboardFixture struct {
	svc         DashboardService
	planRepo    *fakePlanRepo
	sessionRepo *fakeSessionRepo
	logRepo     *fakeLogRepo

	clientID  primitive.ObjectID
	trainerID primitive.ObjectID
}

func newDashboardFixture() *dashboardFixture {
	f := &dashboardFixture{
		planRepo:    newFakePlanRepo(),
		sessionRepo: &fakeSessionRepo{},
		logRepo:     newFakeLogRepo(),
		clientID:    primitive.NewObjectID(),
		trainerID:   primitive.NewObjectID(),
	}
	f.svc = NewDashboardService(f.planRepo, f.sessionRepo, f.logRepo)
	return f
}

func (f *dashboardFixture) seedLog(t *testing.T, day time.Time, completed bool, reason domain.NonCompletionReason) {
	t.Helper()
	_, err := f.logRepo.Create(context.Background(), &domain.WorkoutLog{
		ClientID:            f.clientID,
		TrainerID:           f.trainerID,
		WorkoutPlanID:       primitive.NewObjectID(),
		SessionID:           primitive.NewObjectID(),
		Week:                1,
		DayOfWeek:           schedule.WeekdayName(day),
		CompletedAt:         schedule.StartOfDay(day),
		IsCompleted:         completed,
		NonCompletionReason: reason,
	})
	require.NoError(t, err)
}

// lastMonday returns the most recent Monday at midnight UTC.
func lastMonday() time.Time {
	d := schedule.StartOfDay(time.Now().UTC())
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func TestBuildTimeSeries_BucketsAndStatistics(t *testing.T) {
	f := newDashboardFixture()

	weekA := lastMonday().AddDate(0, 0, -14)
	weekB := lastMonday().AddDate(0, 0, -7)

	// Week A: two completed, two missed (fatigue and illness, a tie).
	f.seedLog(t, weekA, true, "")
	f.seedLog(t, weekA, true, "")
	f.seedLog(t, weekA, false, domain.ReasonFatigue)
	f.seedLog(t, weekA, false, domain.ReasonIllness)
	// Week B: one completed.
	f.seedLog(t, weekB, true, "")

	series, err := f.svc.BuildTimeSeries(context.Background(), f.clientID, primitive.NilObjectID, 6)
	require.NoError(t, err)

	require.Len(t, series.Weekly, 2)
	byPeriod := make(map[string]WeeklyBucket)
	for _, w := range series.Weekly {
		byPeriod[w.Period] = w
	}
	keyA := fmt.Sprintf("%d-W%02d", weekA.Year(), schedule.ISOWeek(weekA))
	keyB := fmt.Sprintf("%d-W%02d", weekB.Year(), schedule.ISOWeek(weekB))
	require.Contains(t, byPeriod, keyA)
	require.Contains(t, byPeriod, keyB)
	assert.Equal(t, 2, byPeriod[keyA].Completed)
	assert.Equal(t, 2, byPeriod[keyA].NotCompleted)
	assert.Equal(t, 1, byPeriod[keyB].Completed)
	assert.Equal(t, 0, byPeriod[keyB].NotCompleted)

	stats := series.Statistics
	assert.Equal(t, 3, stats.TotalCompleted)
	assert.Equal(t, 2, stats.TotalNotCompleted)
	assert.Equal(t, 5, stats.TotalWorkouts)
	assert.Equal(t, 60, stats.CompletionRate)
	assert.Equal(t, 2, stats.AvgCompletedPerWeek) // round(3/2)

	// Both weeks may share a month or straddle two, depending on the run
	// date; the buckets must still add up.
	var monthCompleted, monthMissed int
	for _, m := range series.Monthly {
		monthCompleted += m.Completed
		monthMissed += m.NotCompleted
	}
	assert.Equal(t, 3, monthCompleted)
	assert.Equal(t, 2, monthMissed)
	expectedAvgMonth := int(math.Round(3 / float64(len(series.Monthly))))
	assert.Equal(t, expectedAvgMonth, stats.AvgCompletedPerMonth)

	// Tie between fatigue and illness breaks to the lexicographically
	// smaller reason.
	assert.Equal(t, domain.ReasonFatigue, stats.MostCommonNonCompletionReason)
}

func TestBuildTimeSeries_TrainerScope(t *testing.T) {
	f := newDashboardFixture()
	day := lastMonday().AddDate(0, 0, -7)

	f.seedLog(t, day, true, "")
	// A log recorded under a different trainer's plan.
	otherTrainer := &domain.WorkoutLog{
		ClientID:      f.clientID,
		TrainerID:     primitive.NewObjectID(),
		WorkoutPlanID: primitive.NewObjectID(),
		SessionID:     primitive.NewObjectID(),
		Week:          1,
		DayOfWeek:     schedule.WeekdayName(day),
		CompletedAt:   schedule.StartOfDay(day),
		IsCompleted:   true,
	}
	_, err := f.logRepo.Create(context.Background(), otherTrainer)
	require.NoError(t, err)

	series, err := f.svc.BuildTimeSeries(context.Background(), f.clientID, f.trainerID, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, series.Statistics.TotalCompleted, "only this trainer's logs count")

	unscoped, err := f.svc.BuildTimeSeries(context.Background(), f.clientID, primitive.NilObjectID, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, unscoped.Statistics.TotalCompleted)
}

func TestBuildTimeSeries_EmptyWindow(t *testing.T) {
	f := newDashboardFixture()

	series, err := f.svc.BuildTimeSeries(context.Background(), f.clientID, primitive.NilObjectID, 6)
	require.NoError(t, err)

	assert.Empty(t, series.Weekly)
	assert.Empty(t, series.Monthly)
	assert.Equal(t, 0, series.Statistics.CompletionRate)
	assert.Empty(t, series.Statistics.MostCommonNonCompletionReason)
}

func newCalendarFixture(t *testing.T) (*dashboardFixture, *domain.WorkoutPlan) {
	t.Helper()
	f := newDashboardFixture()

	plan := &domain.WorkoutPlan{
		Name:      "March Block",
		ClientID:  f.clientID,
		TrainerID: f.trainerID,
		StartDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	_, err := f.planRepo.Create(context.Background(), plan)
	require.NoError(t, err)

	sessions := []domain.WorkoutSession{
		{WorkoutPlanID: plan.ID, DayOfWeek: domain.Monday},
		{WorkoutPlanID: plan.ID, DayOfWeek: domain.Wednesday},
		{WorkoutPlanID: plan.ID, DayOfWeek: domain.Friday},
	}
	_, err = f.sessionRepo.CreateMany(context.Background(), sessions)
	require.NoError(t, err)
	return f, plan
}

func TestBuildCalendar_Statuses(t *testing.T) {
	f, plan := newCalendarFixture(t)

	mon := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	wed := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	f.seedLog(t, mon, true, "")
	f.seedLog(t, wed, false, domain.ReasonNoTime)

	view, err := f.svc.BuildCalendar(context.Background(), f.clientID, mon, mon.AddDate(0, 0, 6))
	require.NoError(t, err)

	require.NotNil(t, view.Plan)
	assert.Equal(t, plan.ID, view.Plan.ID)
	require.Len(t, view.Calendar, 7)

	byDate := make(map[string]CalendarDay)
	for _, day := range view.Calendar {
		byDate[day.Date] = day
	}

	assert.Equal(t, DayStatusCompleted, byDate["2024-03-04"].Status)
	assert.Equal(t, DayStatusNoWorkout, byDate["2024-03-05"].Status)
	assert.Equal(t, DayStatusNotCompleted, byDate["2024-03-06"].Status)
	assert.Equal(t, DayStatusPending, byDate["2024-03-08"].Status, "scheduled friday with no log")
	assert.Equal(t, DayStatusNoWorkout, byDate["2024-03-09"].Status)

	require.NotNil(t, byDate["2024-03-08"].Scheduled)
	assert.Equal(t, domain.Friday, byDate["2024-03-08"].Scheduled.DayOfWeek)
	assert.Len(t, byDate["2024-03-04"].Logs, 1)
	assert.Empty(t, byDate["2024-03-05"].Logs)
}

func TestBuildCalendar_CompletedWinsOverMissed(t *testing.T) {
	f, _ := newCalendarFixture(t)

	wed := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	f.seedLog(t, wed, false, domain.ReasonFatigue)
	f.seedLog(t, wed, true, "")

	view, err := f.svc.BuildCalendar(context.Background(), f.clientID, wed, wed)
	require.NoError(t, err)

	require.Len(t, view.Calendar, 1)
	assert.Equal(t, DayStatusCompleted, view.Calendar[0].Status)
	assert.Len(t, view.Calendar[0].Logs, 2)
}

func TestBuildCalendar_NoActivePlan(t *testing.T) {
	f := newDashboardFixture()

	view, err := f.svc.BuildCalendar(context.Background(), f.clientID,
		time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Nil(t, view.Plan)
	assert.Empty(t, view.Calendar)
}

func TestBuildCalendar_RangeTooLarge(t *testing.T) {
	f, _ := newCalendarFixture(t)

	view, err := f.svc.BuildCalendar(context.Background(), f.clientID,
		time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrCalendarRangeTooLarge)
	assert.Nil(t, view)

	// A full leap year is still fine.
	view, err = f.svc.BuildCalendar(context.Background(), f.clientID,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Len(t, view.Calendar, 366)
}

func TestGetClientOverview(t *testing.T) {
	f := newDashboardFixture()

	activePlan := &domain.WorkoutPlan{
		Name: "Active", ClientID: f.clientID, TrainerID: f.trainerID, IsActive: true,
	}
	_, err := f.planRepo.Create(context.Background(), activePlan)
	require.NoError(t, err)
	oldPlan := &domain.WorkoutPlan{
		Name: "Finished", ClientID: f.clientID, TrainerID: f.trainerID, IsActive: false,
	}
	_, err = f.planRepo.Create(context.Background(), oldPlan)
	require.NoError(t, err)

	day := lastMonday()
	f.seedLog(t, day.AddDate(0, 0, -7), true, "")
	f.seedLog(t, day.AddDate(0, 0, -5), true, "")
	f.seedLog(t, day.AddDate(0, 0, -3), false, domain.ReasonInjury)

	overview, err := f.svc.GetClientOverview(context.Background(), f.clientID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), overview.TotalPlans)
	assert.Equal(t, int64(1), overview.ActivePlans)
	assert.Equal(t, int64(3), overview.TotalWorkouts)
	assert.Equal(t, int64(2), overview.CompletedWorkouts)
	assert.Equal(t, 67, overview.CompletionRate) // round(2/3*100)
	require.NotNil(t, overview.LastWorkout)
	assert.Equal(t, day.AddDate(0, 0, -5), *overview.LastWorkout)
}

func TestGetTrainerStats(t *testing.T) {
	f := newDashboardFixture()

	for i, rate := range []int{100, 50} {
		plan := &domain.WorkoutPlan{
			Name:      fmt.Sprintf("Plan %d", i),
			ClientID:  primitive.NewObjectID(),
			TrainerID: f.trainerID,
			IsActive:  i == 1,
			Progress:  domain.PlanProgress{CompletionRate: rate},
		}
		_, err := f.planRepo.Create(context.Background(), plan)
		require.NoError(t, err)
	}

	stats, err := f.svc.GetTrainerStats(context.Background(), f.trainerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalPlans)
	assert.Equal(t, int64(1), stats.ActivePlans)
	assert.Equal(t, int64(1), stats.CompletedPlans)
	assert.Equal(t, 2, stats.TotalClients)
	assert.Equal(t, 75.0, stats.AvgCompletionRate)
}
