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
	gymCollectionName    = "gyms"
	branchCollectionName = "branches"
)

// mongoGymRepository implements repository.GymRepository.
type mongoGymRepository struct {
	collection *mongo.Collection
}

func NewMongoGymRepository(db *mongo.Database) repository.GymRepository {
	return &mongoGymRepository{collection: db.Collection(gymCollectionName)}
}

// Create inserts a gym. A taken gym code surfaces as repository.ErrDuplicate.
func (r *mongoGymRepository) Create(ctx context.Context, gym *domain.Gym) (primitive.ObjectID, error) {
	gym.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	gym.CreatedAt = now
	gym.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, gym)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoGymRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Gym, error) {
	var gym domain.Gym
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&gym); err != nil {
		return nil, mapErr(err)
	}
	return &gym, nil
}

// GetByCode looks a gym up by its normalised code.
func (r *mongoGymRepository) GetByCode(ctx context.Context, code string) (*domain.Gym, error) {
	var gym domain.Gym
	filter := bson.M{"gymCode": domain.NormalizeGymCode(code)}
	if err := r.collection.FindOne(ctx, filter).Decode(&gym); err != nil {
		return nil, mapErr(err)
	}
	return &gym, nil
}

// Update writes contact and branding fields. gymCode is never part of the
// update document.
func (r *mongoGymRepository) Update(ctx context.Context, gym *domain.Gym) error {
	gym.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":       gym.Name,
		"email":      gym.Email,
		"phone":      gym.Phone,
		"address":    gym.Address,
		"city":       gym.City,
		"state":      gym.State,
		"country":    gym.Country,
		"postalCode": gym.PostalCode,
		"logoUrl":    gym.LogoURL,
		"themeColor": gym.ThemeColor,
		"timezone":   gym.Timezone,
		"updatedAt":  gym.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": gym.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoGymRepository) List(ctx context.Context) ([]domain.Gym, error) {
	gyms := []domain.Gym{}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := findAll(ctx, r.collection, bson.M{}, &gyms, opts); err != nil {
		return nil, err
	}
	return gyms, nil
}

func (r *mongoGymRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// EnsureGymIndexes makes gym codes globally unique.
func EnsureGymIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "gymCode", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_gym_code"),
	})
	return err
}

// mongoBranchRepository implements repository.BranchRepository.
type mongoBranchRepository struct {
	collection *mongo.Collection
}

func NewMongoBranchRepository(db *mongo.Database) repository.BranchRepository {
	return &mongoBranchRepository{collection: db.Collection(branchCollectionName)}
}

func (r *mongoBranchRepository) Create(ctx context.Context, branch *domain.Branch) (primitive.ObjectID, error) {
	branch.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	branch.CreatedAt = now
	branch.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, branch)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

// GetByID only finds branches of gymID.
func (r *mongoBranchRepository) GetByID(ctx context.Context, gymID, id primitive.ObjectID) (*domain.Branch, error) {
	var branch domain.Branch
	if err := r.collection.FindOne(ctx, bson.M{"_id": id, "gymId": gymID}).Decode(&branch); err != nil {
		return nil, mapErr(err)
	}
	return &branch, nil
}

func (r *mongoBranchRepository) ListByGym(ctx context.Context, gymID primitive.ObjectID) ([]domain.Branch, error) {
	branches := []domain.Branch{}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	if err := findAll(ctx, r.collection, bson.M{"gymId": gymID}, &branches, opts); err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *mongoBranchRepository) CountActive(ctx context.Context, gymID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"gymId": gymID, "isActive": true})
}

func (r *mongoBranchRepository) Deactivate(ctx context.Context, gymID, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "gymId": gymID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureBranchIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "isActive", Value: 1}},
	})
	return err
}
