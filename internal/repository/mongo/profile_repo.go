package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const profileCollectionName = "profiles"

// mongoProfileRepository implements repository.ProfileRepository.
type mongoProfileRepository struct {
	collection *mongo.Collection
}

func NewMongoProfileRepository(db *mongo.Database) repository.ProfileRepository {
	return &mongoProfileRepository{collection: db.Collection(profileCollectionName)}
}

// Create inserts a profile. Emails are stored lower-cased; a taken email is
// repository.ErrDuplicate.
func (r *mongoProfileRepository) Create(ctx context.Context, profile *domain.Profile) (primitive.ObjectID, error) {
	profile.ID = primitive.NewObjectID()
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		return primitive.NilObjectID, mapErr(err)
	}
	return insertedID(result)
}

func (r *mongoProfileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *mongoProfileRepository) GetByMemberCode(ctx context.Context, gymID primitive.ObjectID, code string) (*domain.Profile, error) {
	return r.findOne(ctx, bson.M{"gymId": gymID, "memberCode": code})
}

func (r *mongoProfileRepository) findOne(ctx context.Context, filter bson.M) (*domain.Profile, error) {
	var profile domain.Profile
	if err := r.collection.FindOne(ctx, filter).Decode(&profile); err != nil {
		return nil, mapErr(err)
	}
	return &profile, nil
}

// AssignGym is a conditional update: it only matches while gymId is unset,
// so two concurrent onboardings of the same person cannot both win.
func (r *mongoProfileRepository) AssignGym(ctx context.Context, id, gymID primitive.ObjectID, role domain.Role, memberCode string) error {
	set := bson.M{
		"gymId":     gymID,
		"role":      role,
		"updatedAt": time.Now().UTC(),
	}
	filter := bson.M{"_id": id, "gymId": bson.M{"$exists": false}}
	if memberCode != "" {
		set["memberCode"] = memberCode
		filter["memberCode"] = bson.M{"$exists": false}
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return mapErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Update writes the editable profile fields.
func (r *mongoProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	_, update := editableUpdate(profile)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": profile.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateAssigningCode sets the code only on a profile that has none; when
// another writer got there first the fields are written without it.
func (r *mongoProfileRepository) UpdateAssigningCode(ctx context.Context, profile *domain.Profile, code string) error {
	set, update := editableUpdate(profile)
	set["memberCode"] = code
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	filter := bson.M{"_id": profile.ID, "memberCode": bson.M{"$exists": false}}
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(profile)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return mapErr(err)
	}

	delete(set, "memberCode")
	return mapErr(r.collection.FindOneAndUpdate(ctx, bson.M{"_id": profile.ID}, update, opts).Decode(profile))
}

func editableUpdate(profile *domain.Profile) (set, update bson.M) {
	profile.UpdatedAt = time.Now().UTC()
	set = bson.M{
		"firstName":        profile.FirstName,
		"lastName":         profile.LastName,
		"phone":            profile.Phone,
		"emergencyContact": profile.EmergencyContact,
		"emergencyPhone":   profile.EmergencyPhone,
		"role":             profile.Role,
		"isActive":         profile.IsActive,
		"updatedAt":        profile.UpdatedAt,
	}
	update = bson.M{"$set": set}
	unset := bson.M{}
	if profile.DateOfBirth != nil {
		set["dateOfBirth"] = profile.DateOfBirth
	} else {
		unset["dateOfBirth"] = ""
	}
	if profile.BranchID != nil {
		set["branchId"] = profile.BranchID
	} else {
		unset["branchId"] = ""
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return set, update
}

func (r *mongoProfileRepository) SetActive(ctx context.Context, gymID, id primitive.ObjectID, active bool) error {
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "gymId": gymID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func profileFilter(f repository.ProfileFilter) bson.M {
	filter := bson.M{}
	if f.GymID != nil {
		filter["gymId"] = *f.GymID
	}
	if f.BranchID != nil {
		filter["branchId"] = *f.BranchID
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.CreatedSince != nil {
		filter["createdAt"] = bson.M{"$gte": *f.CreatedSince}
	}
	if f.ActiveOnly {
		filter["isActive"] = true
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		re := containsFold(s)
		filter["$or"] = bson.A{
			bson.M{"firstName": re},
			bson.M{"lastName": re},
			bson.M{"email": re},
			bson.M{"memberCode": re},
		}
	}
	return filter
}

func (r *mongoProfileRepository) List(ctx context.Context, f repository.ProfileFilter) ([]domain.Profile, error) {
	profiles := []domain.Profile{}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := findAll(ctx, r.collection, profileFilter(f), &profiles, opts); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *mongoProfileRepository) Count(ctx context.Context, f repository.ProfileFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, profileFilter(f))
}

// EnsureProfileIndexes creates the unique email index and the per-gym unique
// member code index. The partial filter leaves code-less profiles out.
func EnsureProfileIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "memberCode", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("unique_member_code_per_gym").
				SetPartialFilterExpression(bson.M{"memberCode": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "gymId", Value: 1}, {Key: "role", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
