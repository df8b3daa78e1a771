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
	notificationCollectionName = "notifications"
	auditCollectionName        = "audit_logs"
)

// mongoNotificationRepository implements repository.NotificationRepository.
type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) repository.NotificationRepository {
	return &mongoNotificationRepository{collection: db.Collection(notificationCollectionName)}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()
	result, err := r.collection.InsertOne(ctx, n)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoNotificationRepository) ListForRecipient(ctx context.Context, gymID, recipientID primitive.ObjectID) ([]domain.Notification, error) {
	filter := bson.M{
		"gymId": gymID,
		"$or": bson.A{
			bson.M{"recipientId": recipientID},
			bson.M{"recipientId": bson.M{"$exists": false}},
		},
	}
	items := []domain.Notification{}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100)
	if err := findAll(ctx, r.collection, filter, &items, opts); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkRead only marks notifications addressed to the recipient. Broadcasts
// have no per-recipient state.
func (r *mongoNotificationRepository) MarkRead(ctx context.Context, gymID, id, recipientID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "gymId": gymID, "recipientId": recipientID},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureNotificationIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "recipientId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

// mongoAuditRepository implements repository.AuditRepository.
type mongoAuditRepository struct {
	collection *mongo.Collection
}

func NewMongoAuditRepository(db *mongo.Database) repository.AuditRepository {
	return &mongoAuditRepository{collection: db.Collection(auditCollectionName)}
}

func (r *mongoAuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}
