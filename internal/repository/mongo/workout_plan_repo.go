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

const planCollectionName = "workout_plans"

// mongoWorkoutPlanRepository implements repository.WorkoutPlanRepository
type mongoWorkoutPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutPlanRepository creates a new WorkoutPlan repository.
func NewMongoWorkoutPlanRepository(db *mongo.Database) repository.WorkoutPlanRepository {
	return &mongoWorkoutPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new workout plan.
func (r *mongoWorkoutPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	if plan.ClientID == primitive.NilObjectID || plan.TrainerID == primitive.NilObjectID || plan.Name == "" {
		return primitive.NilObjectID, errors.New("plan requires client, trainer, and name")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.CurrentWeek < 1 {
		plan.CurrentWeek = 1
	}

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan by its ID.
func (r *mongoWorkoutPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetActiveByClient retrieves the client's currently active plan.
func (r *mongoWorkoutPlanRepository) GetActiveByClient(ctx context.Context, clientID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	filter := bson.M{"client": clientID, "isActive": true}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// List returns plans matching the filter plus the unpaginated total.
func (r *mongoWorkoutPlanRepository) List(ctx context.Context, filter repository.PlanFilter) ([]domain.WorkoutPlan, int64, error) {
	query := bson.M{}
	if filter.ClientID != primitive.NilObjectID {
		query["client"] = filter.ClientID
	}
	if filter.TrainerID != primitive.NilObjectID {
		query["trainer"] = filter.TrainerID
	}
	if filter.IsActive != nil {
		query["isActive"] = *filter.IsActive
	}
	if filter.Frequency != "" {
		query["frequency"] = filter.Frequency
	}
	if filter.Level != "" {
		query["level"] = filter.Level
	}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	sortOrder := -1
	if filter.SortAsc {
		sortOrder = 1
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
		SetSort(bson.D{{Key: sortBy, Value: sortOrder}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var plans []domain.WorkoutPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

// Update rewrites the plan's mutable fields. Progress counters are NOT
// written here except the planned baseline; completion counters only move
// through MarkSessionCompleted.
func (r *mongoWorkoutPlanRepository) Update(ctx context.Context, plan *domain.WorkoutPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}

	filter := bson.M{"_id": plan.ID, "trainer": plan.TrainerID}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":                          plan.Name,
			"description":                   plan.Description,
			"frequency":                     plan.Frequency,
			"sessions":                      plan.SessionIDs,
			"startDate":                     plan.StartDate,
			"endDate":                       plan.EndDate,
			"goals":                         plan.Goals,
			"level":                         plan.Level,
			"notes":                         plan.Notes,
			"totalWeeks":                    plan.TotalWeeks,
			"progress.totalSessionsPlanned": plan.Progress.TotalSessionsPlanned,
			"updatedAt":                     time.Now().UTC(),
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

// SetActive toggles the plan's active flag, scoped to the owning trainer.
func (r *mongoWorkoutPlanRepository) SetActive(ctx context.Context, planID, trainerID primitive.ObjectID, active bool) error {
	filter := bson.M{"_id": planID, "trainer": trainerID}
	updateDoc := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkSessionCompleted applies the whole progress mutation as a single
// pipeline update, so concurrent completions on the same plan cannot lose
// increments. The rate is round-half-up: floor(100*completed/planned + 0.5).
func (r *mongoWorkoutPlanRepository) MarkSessionCompleted(ctx context.Context, planID, sessionID primitive.ObjectID, week int, completedAt time.Time) error {
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"progress.totalSessionsCompleted": bson.M{
				"$add": bson.A{bson.M{"$ifNull": bson.A{"$progress.totalSessionsCompleted", 0}}, 1},
			},
			"lastCompletedSession": bson.M{
				"session":     sessionID,
				"completedAt": completedAt,
				"week":        week,
			},
			"currentWeek": bson.M{"$max": bson.A{"$currentWeek", week}},
			"updatedAt":   time.Now().UTC(),
		}},
		bson.M{"$set": bson.M{
			"progress.completionRate": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{"$progress.totalSessionsPlanned", 0}},
				bson.M{"$floor": bson.M{"$add": bson.A{
					bson.M{"$multiply": bson.A{
						bson.M{"$divide": bson.A{
							"$progress.totalSessionsCompleted",
							"$progress.totalSessionsPlanned",
						}},
						100,
					}},
					0.5,
				}}},
				0,
			}},
		}},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": planID}, pipeline)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// TrainerStats aggregates plan counters for a trainer's stats endpoint.
func (r *mongoWorkoutPlanRepository) TrainerStats(ctx context.Context, trainerID primitive.ObjectID) (*repository.TrainerPlanStats, error) {
	stats := &repository.TrainerPlanStats{}

	var err error
	if stats.TotalPlans, err = r.collection.CountDocuments(ctx, bson.M{"trainer": trainerID}); err != nil {
		return nil, err
	}
	if stats.ActivePlans, err = r.collection.CountDocuments(ctx, bson.M{"trainer": trainerID, "isActive": true}); err != nil {
		return nil, err
	}
	if stats.CompletedPlans, err = r.collection.CountDocuments(ctx, bson.M{"trainer": trainerID, "progress.completionRate": 100}); err != nil {
		return nil, err
	}

	clients, err := r.collection.Distinct(ctx, "client", bson.M{"trainer": trainerID})
	if err != nil {
		return nil, err
	}
	stats.TotalClients = len(clients)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"trainer": trainerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"avgRate": bson.M{"$avg": "$progress.completionRate"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		AvgRate float64 `bson:"avgRate"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		stats.AvgCompletionRate = rows[0].AvgRate
	}
	return stats, nil
}

// EnsureWorkoutPlanIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "client", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainer", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "startDate", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
