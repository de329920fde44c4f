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

// SectionRepo handles MongoDB operations for sections
type SectionRepo interface {
	Create(ctx context.Context, section *model.Section) error
	GetByID(ctx context.Context, id string) (*model.Section, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Section, error)
	Update(ctx context.Context, section *model.Section) error
	SetActive(ctx context.Context, id string, active bool) error
}

type sectionRepo struct {
	collection *mongo.Collection
}

// NewSectionRepo creates a new section repository
func NewSectionRepo(db *mongo.Database) SectionRepo {
	return &sectionRepo{
		collection: db.Collection("sections"),
	}
}

func (r *sectionRepo) Create(ctx context.Context, section *model.Section) error {
	if section.ID == "" {
		section.ID = uuid.New().String()
	}
	section.CreatedAt = time.Now()
	section.UpdatedAt = section.CreatedAt

	_, err := r.collection.InsertOne(ctx, section)
	return err
}

func (r *sectionRepo) GetByID(ctx context.Context, id string) (*model.Section, error) {
	var section model.Section
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&section)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepo) List(ctx context.Context, activeOnly bool) ([]*model.Section, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}

	// Active sections first, then by name
	opts := options.Find().SetSort(bson.D{{Key: "active", Value: -1}, {Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sections []*model.Section
	if err := cursor.All(ctx, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepo) Update(ctx context.Context, section *model.Section) error {
	section.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": section.ID}, bson.M{
		"$set": bson.M{
			"name":        section.Name,
			"code":        section.Code,
			"description": section.Description,
			"updatedAt":   section.UpdatedAt,
		},
	})
	return err
}

func (r *sectionRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"active": active, "updatedAt": time.Now()},
	})
	return err
}
