package mongo

import (
	"context"
	"errors"
	"time"

	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/repository"
	"gymplatform/backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const logCollectionName = "workout_logs"

// mongoWorkoutLogRepository implements repository.WorkoutLogRepository
type mongoWorkoutLogRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutLogRepository creates a new WorkoutLog repository.
func NewMongoWorkoutLogRepository(db *mongo.Database) repository.WorkoutLogRepository {
	return &mongoWorkoutLogRepository{
		collection: db.Collection(logCollectionName),
	}
}

// Create inserts a new log. A unique-index violation on the day key maps to
// repository.ErrDuplicateKey so the caller can retry as an update.
func (r *mongoWorkoutLogRepository) Create(ctx context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error) {
	if log.ClientID == primitive.NilObjectID || log.WorkoutPlanID == primitive.NilObjectID || log.SessionID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout log requires client, workoutPlan, and session")
	}
	log.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, log)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted log ID")
	}
	return insertedID, nil
}

// Update rewrites the log's completion and detail fields.
func (r *mongoWorkoutLogRepository) Update(ctx context.Context, log *domain.WorkoutLog) error {
	if log.ID == primitive.NilObjectID {
		return errors.New("log ID is required for update")
	}

	filter := bson.M{"_id": log.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"week":                log.Week,
			"dayOfWeek":           log.DayOfWeek,
			"completedAt":         log.CompletedAt,
			"isCompleted":         log.IsCompleted,
			"nonCompletionReason": log.NonCompletionReason,
			"nonCompletionNotes":  log.NonCompletionNotes,
			"proofImage":          log.ProofImage,
			"actualDuration":      log.ActualDuration,
			"exercises":           log.Exercises,
			"overallNotes":        log.OverallNotes,
			"difficulty":          log.Difficulty,
			"energy":              log.Energy,
			"mood":                log.Mood,
			"painLevel":           log.PainLevel,
			"updatedAt":           time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByID retrieves a single log by its ID.
func (r *mongoWorkoutLogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	var log domain.WorkoutLog
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// FindByDayKey looks up the single log for a client/plan/session on the
// calendar day containing day.
func (r *mongoWorkoutLogRepository) FindByDayKey(ctx context.Context, clientID, planID, sessionID primitive.ObjectID, day time.Time) (*domain.WorkoutLog, error) {
	filter := bson.M{
		"client":      clientID,
		"workoutPlan": planID,
		"session":     sessionID,
		"completedAt": bson.M{
			"$gte": schedule.StartOfDay(day),
			"$lte": schedule.EndOfDay(day),
		},
	}

	var log domain.WorkoutLog
	err := r.collection.FindOne(ctx, filter).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// List returns a page of the client's history, newest first, plus the
// unpaginated total.
func (r *mongoWorkoutLogRepository) List(ctx context.Context, filter repository.LogFilter) ([]domain.WorkoutLog, int64, error) {
	query := bson.M{"client": filter.ClientID}
	if filter.Week > 0 {
		query["week"] = filter.Week
	}
	if filter.DayOfWeek != "" {
		query["dayOfWeek"] = filter.DayOfWeek
	}
	dateRange := bson.M{}
	if filter.From != nil {
		dateRange["$gte"] = *filter.From
	}
	if filter.To != nil {
		dateRange["$lte"] = *filter.To
	}
	if len(dateRange) > 0 {
		query["completedAt"] = dateRange
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "completedAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var logs []domain.WorkoutLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// ListWindow returns the logs feeding the aggregation engine: one outcome,
// bounded below by the window start, oldest first.
func (r *mongoWorkoutLogRepository) ListWindow(ctx context.Context, window repository.LogWindow) ([]domain.WorkoutLog, error) {
	query := bson.M{
		"client":      window.ClientID,
		"isCompleted": window.IsCompleted,
		"completedAt": bson.M{"$gte": window.Since},
	}
	if window.TrainerID != primitive.NilObjectID {
		query["trainer"] = window.TrainerID
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.WorkoutLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ListRange returns all of a client's logs in [from, to], oldest first.
func (r *mongoWorkoutLogRepository) ListRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutLog, error) {
	query := bson.M{
		"client":      clientID,
		"completedAt": bson.M{"$gte": from, "$lte": to},
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "completedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.WorkoutLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ClientStats aggregates the client's lifetime logging activity.
func (r *mongoWorkoutLogRepository) ClientStats(ctx context.Context, clientID primitive.ObjectID) (*repository.ClientLogStats, error) {
	stats := &repository.ClientLogStats{}

	var err error
	if stats.TotalWorkouts, err = r.collection.CountDocuments(ctx, bson.M{"client": clientID}); err != nil {
		return nil, err
	}
	if stats.CompletedWorkouts, err = r.collection.CountDocuments(ctx, bson.M{"client": clientID, "isCompleted": true}); err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"client": clientID, "actualDuration": bson.M{"$gt": 0}}}},
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"avgDuration": bson.M{"$avg": "$actualDuration"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var durations []struct {
		AvgDuration float64 `bson:"avgDuration"`
	}
	if err = cursor.All(ctx, &durations); err != nil {
		return nil, err
	}
	if len(durations) > 0 {
		stats.AvgDuration = durations[0].AvgDuration
	}

	lastOpts := options.FindOne().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	var last domain.WorkoutLog
	err = r.collection.FindOne(ctx, bson.M{"client": clientID, "isCompleted": true}, lastOpts).Decode(&last)
	if err == nil {
		stats.LastWorkout = &last.CompletedAt
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	return stats, nil
}

// EnsureWorkoutLogIndexes creates necessary indexes. The compound unique
// index is what makes the daily-status upsert safe under concurrent
// submissions for the same day. Call during startup.
func EnsureWorkoutLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "client", Value: 1},
				{Key: "workoutPlan", Value: 1},
				{Key: "session", Value: 1},
				{Key: "completedAt", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "client", Value: 1}, {Key: "completedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainer", Value: 1}, {Key: "completedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "client", Value: 1}, {Key: "isCompleted", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
