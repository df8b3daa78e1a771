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

const attendanceCollectionName = "attendance_logs"

// mongoAttendanceRepository implements repository.AttendanceRepository.
type mongoAttendanceRepository struct {
	collection *mongo.Collection
}

func NewMongoAttendanceRepository(db *mongo.Database) repository.AttendanceRepository {
	return &mongoAttendanceRepository{collection: db.Collection(attendanceCollectionName)}
}

// CloseOpen is a compare-and-set: only a row that is still open matches, so
// of two concurrent check-outs exactly one closes the row.
func (r *mongoAttendanceRepository) CloseOpen(ctx context.Context, gymID, memberID primitive.ObjectID, day string, at time.Time) (*domain.AttendanceLog, error) {
	filter := bson.M{"gymId": gymID, "memberId": memberID, "day": day, "open": true}
	update := bson.M{"$set": bson.M{"open": false, "checkOutTime": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var log domain.AttendanceLog
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&log); err != nil {
		return nil, mapErr(err)
	}
	return &log, nil
}

// Insert adds an open row. The partial unique index turns a second open row
// for the same member and day into repository.ErrDuplicate.
func (r *mongoAttendanceRepository) Insert(ctx context.Context, log *domain.AttendanceLog) (primitive.ObjectID, error) {
	log.ID = primitive.NewObjectID()
	result, err := r.collection.InsertOne(ctx, log)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func attendanceFilter(f repository.AttendanceFilter) bson.M {
	filter := bson.M{
		"gymId":       f.GymID,
		"checkInTime": bson.M{"$gte": f.Window.From, "$lt": f.Window.To},
	}
	if f.MemberID != nil {
		filter["memberId"] = *f.MemberID
	}
	return filter
}

func (r *mongoAttendanceRepository) Count(ctx context.Context, f repository.AttendanceFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, attendanceFilter(f))
}

func (r *mongoAttendanceRepository) CountOpen(ctx context.Context, gymID primitive.ObjectID, day string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"gymId": gymID, "day": day, "open": true})
}

func (r *mongoAttendanceRepository) CountDistinctMembers(ctx context.Context, gymID primitive.ObjectID, since time.Time) (int64, error) {
	ids, err := r.collection.Distinct(ctx, "memberId", bson.M{
		"gymId":       gymID,
		"checkInTime": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

// List returns logs newest first.
func (r *mongoAttendanceRepository) List(ctx context.Context, f repository.AttendanceFilter) ([]domain.AttendanceLog, error) {
	filter := attendanceFilter(f)
	opts := options.Find().SetSort(bson.D{{Key: "checkInTime", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	logs := []domain.AttendanceLog{}
	if err := findAll(ctx, r.collection, filter, &logs, opts); err != nil {
		return nil, err
	}
	return logs, nil
}

// EnsureAttendanceIndexes creates the index that allows at most one open row
// per member, gym and tenant-local day.
func EnsureAttendanceIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "memberId", Value: 1}, {Key: "gymId", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("one_open_log_per_member_day").
				SetPartialFilterExpression(bson.M{"open": true}),
		},
		{
			Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "checkInTime", Value: -1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
