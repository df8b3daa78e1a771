package mongo

import (
	"context"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	workoutPlanCollectionName    = "default_workout_plans"
	workoutProgramCollectionName = "workout_programs"
)

// mongoWorkoutPlanRepository implements repository.WorkoutPlanRepository.
type mongoWorkoutPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutPlanRepository(db *mongo.Database) repository.WorkoutPlanRepository {
	return &mongoWorkoutPlanRepository{collection: db.Collection(workoutPlanCollectionName)}
}

func (r *mongoWorkoutPlanRepository) Create(ctx context.Context, plan *domain.DefaultWorkoutPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoWorkoutPlanRepository) GetByID(ctx context.Context, gymID, id primitive.ObjectID) (*domain.DefaultWorkoutPlan, error) {
	var plan domain.DefaultWorkoutPlan
	if err := r.collection.FindOne(ctx, bson.M{"_id": id, "gymId": gymID}).Decode(&plan); err != nil {
		return nil, mapErr(err)
	}
	return &plan, nil
}

func (r *mongoWorkoutPlanRepository) ListActive(ctx context.Context, gymID primitive.ObjectID) ([]domain.DefaultWorkoutPlan, error) {
	plans := []domain.DefaultWorkoutPlan{}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := findAll(ctx, r.collection, bson.M{"gymId": gymID, "isActive": true}, &plans, opts); err != nil {
		return nil, err
	}
	return plans, nil
}

// Deactivate soft-deletes a template; programs already copied from it stay.
func (r *mongoWorkoutPlanRepository) Deactivate(ctx context.Context, gymID, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "gymId": gymID},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureWorkoutPlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "isActive", Value: 1}},
	})
	return err
}

// mongoWorkoutProgramRepository implements repository.WorkoutProgramRepository.
type mongoWorkoutProgramRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutProgramRepository(db *mongo.Database) repository.WorkoutProgramRepository {
	return &mongoWorkoutProgramRepository{collection: db.Collection(workoutProgramCollectionName)}
}

func (r *mongoWorkoutProgramRepository) Create(ctx context.Context, program *domain.WorkoutProgram) (primitive.ObjectID, error) {
	program.ID = primitive.NewObjectID()
	program.CreatedAt = time.Now().UTC()
	result, err := r.collection.InsertOne(ctx, program)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoWorkoutProgramRepository) List(ctx context.Context, f repository.ProgramFilter) ([]domain.WorkoutProgram, error) {
	filter := bson.M{"gymId": f.GymID}
	if f.TrainerID != nil {
		filter["trainerId"] = *f.TrainerID
	}
	if f.MemberID != nil {
		filter["memberId"] = *f.MemberID
	}
	programs := []domain.WorkoutProgram{}
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}})
	if err := findAll(ctx, r.collection, filter, &programs, opts); err != nil {
		return nil, err
	}
	return programs, nil
}

func EnsureWorkoutProgramIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "memberId", Value: 1}}},
		{Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "trainerId", Value: 1}}},
	})
	return err
}
