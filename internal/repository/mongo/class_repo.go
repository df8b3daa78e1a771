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
	classCollectionName   = "classes"
	bookingCollectionName = "class_bookings"
)

// mongoClassRepository implements repository.ClassRepository.
type mongoClassRepository struct {
	collection *mongo.Collection
}

func NewMongoClassRepository(db *mongo.Database) repository.ClassRepository {
	return &mongoClassRepository{collection: db.Collection(classCollectionName)}
}

func (r *mongoClassRepository) Create(ctx context.Context, class *domain.Class) (primitive.ObjectID, error) {
	class.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, class)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoClassRepository) GetByID(ctx context.Context, gymID, id primitive.ObjectID) (*domain.Class, error) {
	var class domain.Class
	if err := r.collection.FindOne(ctx, bson.M{"_id": id, "gymId": gymID}).Decode(&class); err != nil {
		return nil, mapErr(err)
	}
	return &class, nil
}

func (r *mongoClassRepository) List(ctx context.Context, f repository.ClassFilter) ([]domain.Class, error) {
	filter := bson.M{"gymId": f.GymID}
	if f.TrainerID != nil {
		filter["trainerId"] = *f.TrainerID
	}
	if f.From != nil {
		filter["startTime"] = bson.M{"$gte": *f.From}
	}
	classes := []domain.Class{}
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})
	if err := findAll(ctx, r.collection, filter, &classes, opts); err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *mongoClassRepository) SetStatus(ctx context.Context, gymID, id primitive.ObjectID, status domain.ClassStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "gymId": gymID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoClassRepository) Delete(ctx context.Context, gymID, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "gymId": gymID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ReserveSeat increments currentBookings only while it is below maxCapacity.
func (r *mongoClassRepository) ReserveSeat(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{
		"_id":    id,
		"$expr":  bson.M{"$lt": bson.A{"$currentBookings", "$maxCapacity"}},
		"status": domain.ClassScheduled,
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"currentBookings": 1}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoClassRepository) ReleaseSeat(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "currentBookings": bson.M{"$gt": 0}}
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"currentBookings": -1}})
	return err
}

func (r *mongoClassRepository) CountUpcoming(ctx context.Context, gymID primitive.ObjectID, now time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"gymId":     gymID,
		"status":    domain.ClassScheduled,
		"startTime": bson.M{"$gt": now},
	})
}

func EnsureClassIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "startTime", Value: 1}}},
		{Keys: bson.D{{Key: "trainerId", Value: 1}}},
	})
	return err
}

// mongoBookingRepository implements repository.BookingRepository.
type mongoBookingRepository struct {
	collection *mongo.Collection
}

func NewMongoBookingRepository(db *mongo.Database) repository.BookingRepository {
	return &mongoBookingRepository{collection: db.Collection(bookingCollectionName)}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *domain.ClassBooking) (primitive.ObjectID, error) {
	booking.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	booking.BookedAt = now
	booking.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoBookingRepository) Get(ctx context.Context, classID, memberID primitive.ObjectID) (*domain.ClassBooking, error) {
	var booking domain.ClassBooking
	if err := r.collection.FindOne(ctx, bson.M{"classId": classID, "memberId": memberID}).Decode(&booking); err != nil {
		return nil, mapErr(err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.BookingStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepository) ListByClass(ctx context.Context, classID primitive.ObjectID) ([]domain.ClassBooking, error) {
	bookings := []domain.ClassBooking{}
	opts := options.Find().SetSort(bson.D{{Key: "bookedAt", Value: 1}})
	if err := findAll(ctx, r.collection, bson.M{"classId": classID}, &bookings, opts); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *mongoBookingRepository) DeleteByClass(ctx context.Context, classID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"classId": classID})
	return err
}

// EnsureBookingIndexes allows one booking per member and class.
func EnsureBookingIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "classId", Value: 1}, {Key: "memberId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
