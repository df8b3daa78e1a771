package mongo

import (
	"context"
	"strings"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const contentCollectionName = "content_library"

// mongoContentRepository implements repository.ContentRepository.
type mongoContentRepository struct {
	collection *mongo.Collection
}

func NewMongoContentRepository(db *mongo.Database) repository.ContentRepository {
	return &mongoContentRepository{collection: db.Collection(contentCollectionName)}
}

func (r *mongoContentRepository) Create(ctx context.Context, item *domain.ContentItem) (primitive.ObjectID, error) {
	item.ID = primitive.NewObjectID()
	item.CreatedAt = time.Now().UTC()
	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoContentRepository) GetByID(ctx context.Context, gymID, id primitive.ObjectID) (*domain.ContentItem, error) {
	var item domain.ContentItem
	if err := r.collection.FindOne(ctx, bson.M{"_id": id, "gymId": gymID}).Decode(&item); err != nil {
		return nil, mapErr(err)
	}
	return &item, nil
}

// List matches search against title, description and tags.
func (r *mongoContentRepository) List(ctx context.Context, gymID primitive.ObjectID, publicOnly bool, search string) ([]domain.ContentItem, error) {
	filter := bson.M{"gymId": gymID}
	if publicOnly {
		filter["isPublic"] = true
	}
	if s := strings.TrimSpace(search); s != "" {
		re := containsFold(s)
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"tags": re},
		}
	}
	items := []domain.ContentItem{}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := findAll(ctx, r.collection, filter, &items, opts); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mongoContentRepository) Delete(ctx context.Context, gymID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "gymId": gymID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureContentIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{
			Keys:    bson.D{{Key: "objectKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}
