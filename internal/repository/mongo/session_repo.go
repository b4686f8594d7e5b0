package mongo

import (
	"context"
	"errors"
	"time"

	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "workout_sessions"

// mongoWorkoutSessionRepository implements repository.WorkoutSessionRepository
type mongoWorkoutSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutSessionRepository creates a new WorkoutSession repository.
func NewMongoWorkoutSessionRepository(db *mongo.Database) repository.WorkoutSessionRepository {
	return &mongoWorkoutSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// CreateMany inserts the session templates for a plan in one batch and
// returns the inserted ids in order.
func (r *mongoWorkoutSessionRepository) CreateMany(ctx context.Context, sessions []domain.WorkoutSession) ([]primitive.ObjectID, error) {
	if len(sessions) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(sessions))
	ids := make([]primitive.ObjectID, len(sessions))
	for i := range sessions {
		if !sessions[i].DayOfWeek.IsValid() {
			return nil, errors.New("session requires a valid dayOfWeek")
		}
		sessions[i].ID = primitive.NewObjectID()
		sessions[i].CreatedAt = now
		sessions[i].UpdatedAt = now
		docs[i] = sessions[i]
		ids[i] = sessions[i].ID
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetByID retrieves a single session template.
func (r *mongoWorkoutSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByPlanID retrieves all session templates of a plan, weekday ordered.
func (r *mongoWorkoutSessionRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	filter := bson.M{"workoutPlan": planID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.WorkoutSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteByPlanID removes all session templates of a plan. Used when a plan
// update replaces the schedule wholesale.
func (r *mongoWorkoutSessionRepository) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"workoutPlan": planID})
	return err
}

// EnsureWorkoutSessionIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutPlan", Value: 1}, {Key: "dayOfWeek", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
