package mongo

import (
	"context"
	"errors"

	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const counterCollectionName = "counters"

type counterDoc struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

type mongoCounterRepository struct {
	collection *mongo.Collection
}

func NewMongoCounterRepository(db *mongo.Database) repository.CounterRepository {
	return &mongoCounterRepository{collection: db.Collection(counterCollectionName)}
}

// Next increments the counter in a single findOneAndUpdate and returns the
// value it had before, so concurrent callers never see the same number.
func (r *mongoCounterRepository) Next(ctx context.Context, key string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var doc counterDoc
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		// Upsert with ReturnDocument.Before yields no document the first time.
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return doc.Value, nil
}
