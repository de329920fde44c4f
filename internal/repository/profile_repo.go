package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classpulse/internal/model"

	"github.com/google/uuid"
)

// ProfileQuery narrows profile listings. Nil/empty fields are ignored.
type ProfileQuery struct {
	Role      model.Role
	SectionID string
	Active    *bool
}

// ProfileRepo handles MongoDB operations for profiles
type ProfileRepo interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	List(ctx context.Context, q ProfileQuery) ([]*model.Profile, error)
	SetActive(ctx context.Context, id string, active bool) error
	// SetActiveBySection flips the active flag on every student profile in
	// the section that currently has the opposite value, returning how many
	// were changed. Used by the section deactivate/restore cascade.
	SetActiveBySection(ctx context.Context, sectionID string, active bool) (int64, error)
	CountActiveStudents(ctx context.Context, sectionID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type profileRepo struct {
	collection *mongo.Collection
}

// NewProfileRepo creates a new profile repository
func NewProfileRepo(db *mongo.Database) ProfileRepo {
	return &profileRepo{
		collection: db.Collection("profiles"),
	}
}

func (r *profileRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *profileRepo) Create(ctx context.Context, profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt

	_, err := r.collection.InsertOne(ctx, profile)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) List(ctx context.Context, q ProfileQuery) ([]*model.Profile, error) {
	filter := bson.M{}
	if q.Role != "" {
		filter["role"] = q.Role
	}
	if q.SectionID != "" {
		filter["sectionId"] = q.SectionID
	}
	if q.Active != nil {
		filter["active"] = *q.Active
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []*model.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"active": active, "updatedAt": time.Now()},
	})
	return err
}

func (r *profileRepo) SetActiveBySection(ctx context.Context, sectionID string, active bool) (int64, error) {
	res, err := r.collection.UpdateMany(ctx, bson.M{
		"sectionId": sectionID,
		"role":      model.RoleStudent,
		"active":    !active,
	}, bson.M{
		"$set": bson.M{"active": active, "updatedAt": time.Now()},
	})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *profileRepo) CountActiveStudents(ctx context.Context, sectionID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"sectionId": sectionID,
		"role":      model.RoleStudent,
		"active":    true,
	})
}
