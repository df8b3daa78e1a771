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
	planCollectionName               = "subscription_plans"
	tenantSubscriptionCollectionName = "gym_subscriptions"
	memberSubscriptionCollectionName = "member_subscriptions"
)

// mongoPlanRepository implements repository.PlanRepository.
type mongoPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{collection: db.Collection(planCollectionName)}
}

func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.SubscriptionPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()
	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SubscriptionPlan, error) {
	var plan domain.SubscriptionPlan
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan); err != nil {
		return nil, mapErr(err)
	}
	return &plan, nil
}

func (r *mongoPlanRepository) List(ctx context.Context, activeOnly bool) ([]domain.SubscriptionPlan, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	plans := []domain.SubscriptionPlan{}
	opts := options.Find().SetSort(bson.D{{Key: "price", Value: 1}})
	if err := findAll(ctx, r.collection, filter, &plans, opts); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.SubscriptionPlan) error {
	update := bson.M{"$set": bson.M{
		"name":         plan.Name,
		"price":        plan.Price,
		"billingCycle": plan.BillingCycle,
		"tier":         plan.Tier,
		"maxMembers":   plan.MaxMembers,
		"maxBranches":  plan.MaxBranches,
		"features":     plan.Features,
		"isActive":     plan.IsActive,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoPlanRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isActive": false}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// mongoTenantSubscriptionRepository implements repository.TenantSubscriptionRepository.
type mongoTenantSubscriptionRepository struct {
	collection *mongo.Collection
}

func NewMongoTenantSubscriptionRepository(db *mongo.Database) repository.TenantSubscriptionRepository {
	return &mongoTenantSubscriptionRepository{collection: db.Collection(tenantSubscriptionCollectionName)}
}

// Create inserts a subscription. A second active one for the same gym is
// rejected by the partial unique index as repository.ErrDuplicate.
func (r *mongoTenantSubscriptionRepository) Create(ctx context.Context, sub *domain.TenantSubscription) (primitive.ObjectID, error) {
	sub.ID = primitive.NewObjectID()
	sub.CreatedAt = time.Now().UTC()
	result, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoTenantSubscriptionRepository) GetActive(ctx context.Context, gymID primitive.ObjectID) (*domain.TenantSubscription, error) {
	var sub domain.TenantSubscription
	if err := r.collection.FindOne(ctx, bson.M{"gymId": gymID, "isActive": true}).Decode(&sub); err != nil {
		return nil, mapErr(err)
	}
	return &sub, nil
}

func (r *mongoTenantSubscriptionRepository) DeactivateActive(ctx context.Context, gymID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"gymId": gymID, "isActive": true},
		bson.M{"$set": bson.M{"isActive": false, "endDate": time.Now().UTC()}},
	)
	return err
}

func (r *mongoTenantSubscriptionRepository) ListActive(ctx context.Context) ([]domain.TenantSubscription, error) {
	subs := []domain.TenantSubscription{}
	if err := findAll(ctx, r.collection, bson.M{"isActive": true}, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// EnsureTenantSubscriptionIndexes allows at most one active subscription per gym.
func EnsureTenantSubscriptionIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "gymId", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("one_active_subscription_per_gym").
			SetPartialFilterExpression(bson.M{"isActive": true}),
	})
	return err
}

// mongoMemberSubscriptionRepository implements repository.MemberSubscriptionRepository.
type mongoMemberSubscriptionRepository struct {
	collection *mongo.Collection
}

func NewMongoMemberSubscriptionRepository(db *mongo.Database) repository.MemberSubscriptionRepository {
	return &mongoMemberSubscriptionRepository{collection: db.Collection(memberSubscriptionCollectionName)}
}

func (r *mongoMemberSubscriptionRepository) Create(ctx context.Context, sub *domain.MemberSubscription) (primitive.ObjectID, error) {
	sub.ID = primitive.NewObjectID()
	sub.CreatedAt = time.Now().UTC()
	result, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoMemberSubscriptionRepository) GetActive(ctx context.Context, memberID primitive.ObjectID) (*domain.MemberSubscription, error) {
	var sub domain.MemberSubscription
	if err := r.collection.FindOne(ctx, bson.M{"memberId": memberID, "isActive": true}).Decode(&sub); err != nil {
		return nil, mapErr(err)
	}
	return &sub, nil
}

func (r *mongoMemberSubscriptionRepository) DeactivateActive(ctx context.Context, memberID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"memberId": memberID, "isActive": true},
		bson.M{"$set": bson.M{"isActive": false}},
	)
	return err
}

func (r *mongoMemberSubscriptionRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "isActive": true},
		bson.M{"$set": bson.M{"isActive": false}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoMemberSubscriptionRepository) ListByMember(ctx context.Context, gymID, memberID primitive.ObjectID) ([]domain.MemberSubscription, error) {
	subs := []domain.MemberSubscription{}
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}})
	if err := findAll(ctx, r.collection, bson.M{"gymId": gymID, "memberId": memberID}, &subs, opts); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *mongoMemberSubscriptionRepository) ListActiveByGym(ctx context.Context, gymID primitive.ObjectID) ([]domain.MemberSubscription, error) {
	subs := []domain.MemberSubscription{}
	if err := findAll(ctx, r.collection, bson.M{"gymId": gymID, "isActive": true}, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *mongoMemberSubscriptionRepository) ListEnded(ctx context.Context, now time.Time) ([]domain.MemberSubscription, error) {
	subs := []domain.MemberSubscription{}
	filter := bson.M{"isActive": true, "endDate": bson.M{"$lt": now}}
	if err := findAll(ctx, r.collection, filter, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// EnsureMemberSubscriptionIndexes allows at most one active subscription per member.
func EnsureMemberSubscriptionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "memberId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_active_subscription_per_member").
				SetPartialFilterExpression(bson.M{"isActive": true}),
		},
		{
			Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "isActive", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "endDate", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
