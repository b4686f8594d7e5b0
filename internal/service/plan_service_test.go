package service

import (
	"context"
	"testing"
	"time"

	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planFixture struct {
	svc         PlanService
	planRepo    *fakePlanRepo
	sessionRepo *fakeSessionRepo
	logRepo     *fakeLogRepo
	userRepo    *fakeUserRepo

	trainerID primitive.ObjectID
	clientID  primitive.ObjectID
}

func newPlanFixture() *planFixture {
	f := &planFixture{
		planRepo:    newFakePlanRepo(),
		sessionRepo: &fakeSessionRepo{},
		logRepo:     newFakeLogRepo(),
		userRepo:    newFakeUserRepo(),
		trainerID:   primitive.NewObjectID(),
		clientID:    primitive.NewObjectID(),
	}
	f.svc = NewPlanService(f.planRepo, f.sessionRepo, f.logRepo, f.userRepo)

	f.userRepo.users[f.trainerID] = &domain.User{ID: f.trainerID, Role: domain.RoleTrainer}
	trainer := f.trainerID
	f.userRepo.users[f.clientID] = &domain.User{ID: f.clientID, Role: domain.RoleClient, AssignedTrainer: &trainer}
	return f
}

func validPlanInput(clientID primitive.ObjectID) PlanInput {
	return PlanInput{
		Name:       "Hypertrophy Block",
		ClientID:   clientID,
		Frequency:  "2x",
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalWeeks: 8,
		Sessions: []SessionInput{
			{DayOfWeek: domain.Tuesday},
			{DayOfWeek: domain.Thursday},
		},
	}
}

func TestCreatePlan(t *testing.T) {
	f := newPlanFixture()

	created, err := f.svc.CreatePlan(context.Background(), f.trainerID, validPlanInput(f.clientID))
	require.NoError(t, err)

	assert.True(t, created.Plan.IsActive)
	assert.Equal(t, 1, created.Plan.CurrentWeek)
	assert.Equal(t, 16, created.Plan.Progress.TotalSessionsPlanned, "2 sessions x 8 weeks")
	assert.Equal(t, 0, created.Plan.Progress.TotalSessionsCompleted)
	require.Len(t, created.Sessions, 2)
	require.Len(t, created.Plan.SessionIDs, 2)
	assert.Equal(t, created.Sessions[0].ID, created.Plan.SessionIDs[0])
	assert.Equal(t, created.Plan.ID, created.Sessions[0].WorkoutPlanID)

	stored, err := f.planRepo.GetByID(context.Background(), created.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, stored.Progress.TotalSessionsPlanned)
	assert.Len(t, stored.SessionIDs, 2)
}

func TestCreatePlan_AssignmentChecks(t *testing.T) {
	f := newPlanFixture()

	t.Run("unknown client", func(t *testing.T) {
		_, err := f.svc.CreatePlan(context.Background(), f.trainerID, validPlanInput(primitive.NewObjectID()))
		assert.ErrorIs(t, err, ErrClientNotFound)
	})

	t.Run("target is not a client", func(t *testing.T) {
		_, err := f.svc.CreatePlan(context.Background(), f.trainerID, validPlanInput(f.trainerID))
		assert.ErrorIs(t, err, ErrClientNotRole)
	})

	t.Run("client assigned to another trainer", func(t *testing.T) {
		_, err := f.svc.CreatePlan(context.Background(), primitive.NewObjectID(), validPlanInput(f.clientID))
		assert.ErrorIs(t, err, ErrClientNotAssigned)
	})
}

func TestCreatePlan_Validation(t *testing.T) {
	f := newPlanFixture()

	t.Run("total weeks out of range", func(t *testing.T) {
		input := validPlanInput(f.clientID)
		input.TotalWeeks = 53
		_, err := f.svc.CreatePlan(context.Background(), f.trainerID, input)
		assert.ErrorIs(t, err, ErrInvalidTotalWeeks)
	})

	t.Run("no sessions", func(t *testing.T) {
		input := validPlanInput(f.clientID)
		input.Sessions = nil
		_, err := f.svc.CreatePlan(context.Background(), f.trainerID, input)
		assert.ErrorIs(t, err, ErrNoSessions)
	})

	t.Run("bad weekday", func(t *testing.T) {
		input := validPlanInput(f.clientID)
		input.Sessions = []SessionInput{{DayOfWeek: "someday"}}
		_, err := f.svc.CreatePlan(context.Background(), f.trainerID, input)
		assert.ErrorIs(t, err, ErrInvalidDayOfWeek)
	})
}

func TestUpdatePlan_ReplacesSessionsAndKeepsProgress(t *testing.T) {
	f := newPlanFixture()

	created, err := f.svc.CreatePlan(context.Background(), f.trainerID, validPlanInput(f.clientID))
	require.NoError(t, err)

	// Record some progress before the update.
	err = f.planRepo.MarkSessionCompleted(context.Background(), created.Plan.ID, created.Sessions[0].ID, 1, time.Now().UTC())
	require.NoError(t, err)

	input := validPlanInput(f.clientID)
	input.Name = "Hypertrophy Block v2"
	input.TotalWeeks = 4
	input.Sessions = []SessionInput{
		{DayOfWeek: domain.Monday},
		{DayOfWeek: domain.Wednesday},
		{DayOfWeek: domain.Friday},
	}
	updated, err := f.svc.UpdatePlan(context.Background(), f.trainerID, created.Plan.ID, input)
	require.NoError(t, err)

	assert.Equal(t, "Hypertrophy Block v2", updated.Plan.Name)
	assert.Equal(t, 12, updated.Plan.Progress.TotalSessionsPlanned, "3 sessions x 4 weeks")
	require.Len(t, updated.Sessions, 3)

	// Old session templates are gone, replaced wholesale.
	remaining, err := f.sessionRepo.GetByPlanID(context.Background(), created.Plan.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 3)

	stored, err := f.planRepo.GetByID(context.Background(), created.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Progress.TotalSessionsCompleted, "completion counters survive the update")
}

func TestUpdatePlan_NotOwned(t *testing.T) {
	f := newPlanFixture()

	created, err := f.svc.CreatePlan(context.Background(), f.trainerID, validPlanInput(f.clientID))
	require.NoError(t, err)

	_, err = f.svc.UpdatePlan(context.Background(), primitive.NewObjectID(), created.Plan.ID, validPlanInput(f.clientID))
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestSetPlanActive(t *testing.T) {
	f := newPlanFixture()

	created, err := f.svc.CreatePlan(context.Background(), f.trainerID, validPlanInput(f.clientID))
	require.NoError(t, err)

	require.NoError(t, f.svc.SetPlanActive(context.Background(), f.trainerID, created.Plan.ID, false))
	stored, err := f.planRepo.GetByID(context.Background(), created.Plan.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	err = f.svc.SetPlanActive(context.Background(), primitive.NewObjectID(), created.Plan.ID, true)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestGetPlanScoping(t *testing.T) {
	f := newPlanFixture()

	created, err := f.svc.CreatePlan(context.Background(), f.trainerID, validPlanInput(f.clientID))
	require.NoError(t, err)

	got, err := f.svc.GetClientPlan(context.Background(), f.clientID, created.Plan.ID)
	require.NoError(t, err)
	assert.Len(t, got.Sessions, 2)

	_, err = f.svc.GetClientPlan(context.Background(), primitive.NewObjectID(), created.Plan.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = f.svc.GetTrainerPlan(context.Background(), primitive.NewObjectID(), created.Plan.ID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestGetTodayWorkout(t *testing.T) {
	f := newPlanFixture()

	today := schedule.StartOfDay(time.Now().UTC())
	input := validPlanInput(f.clientID)
	input.StartDate = today.AddDate(0, 0, -8) // week 2
	input.Sessions = []SessionInput{{DayOfWeek: schedule.WeekdayName(today)}}

	created, err := f.svc.CreatePlan(context.Background(), f.trainerID, input)
	require.NoError(t, err)

	workout, err := f.svc.GetTodayWorkout(context.Background(), f.clientID)
	require.NoError(t, err)
	assert.Equal(t, created.Plan.ID, workout.Plan.ID)
	assert.Equal(t, created.Sessions[0].ID, workout.Session.ID)
	assert.Equal(t, 2, workout.Week)
	assert.Nil(t, workout.Log)

	// Once today's status is recorded it rides along.
	_, err = f.logRepo.Create(context.Background(), &domain.WorkoutLog{
		ClientID:      f.clientID,
		TrainerID:     f.trainerID,
		WorkoutPlanID: created.Plan.ID,
		SessionID:     created.Sessions[0].ID,
		Week:          2,
		DayOfWeek:     schedule.WeekdayName(today),
		CompletedAt:   today,
		IsCompleted:   true,
	})
	require.NoError(t, err)

	workout, err = f.svc.GetTodayWorkout(context.Background(), f.clientID)
	require.NoError(t, err)
	require.NotNil(t, workout.Log)
	assert.True(t, workout.Log.IsCompleted)
}

func TestGetTodayWorkout_NothingScheduled(t *testing.T) {
	f := newPlanFixture()

	tomorrow := schedule.StartOfDay(time.Now().UTC()).AddDate(0, 0, 1)
	input := validPlanInput(f.clientID)
	input.Sessions = []SessionInput{{DayOfWeek: schedule.WeekdayName(tomorrow)}}
	_, err := f.svc.CreatePlan(context.Background(), f.trainerID, input)
	require.NoError(t, err)

	_, err = f.svc.GetTodayWorkout(context.Background(), f.clientID)
	assert.ErrorIs(t, err, ErrNoWorkoutScheduled)
}

func TestGetTodayWorkout_NoActivePlan(t *testing.T) {
	f := newPlanFixture()

	_, err := f.svc.GetTodayWorkout(context.Background(), f.clientID)
	assert.ErrorIs(t, err, ErrNoActivePlan)
}
