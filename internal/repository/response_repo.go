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

// ResponseQuery narrows a response listing for analytics and exports
type ResponseQuery struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	SectionID string
}

// ResponseRepo handles MongoDB operations for survey responses. Answers
// are embedded in the response document, so a submission is a single
// InsertOne and can never be stored half-written.
type ResponseRepo interface {
	Create(ctx context.Context, response *model.SurveyResponse) error
	GetByID(ctx context.Context, id string) (*model.SurveyResponse, error)
	ListBySurvey(ctx context.Context, surveyID string, q ResponseQuery) ([]*model.SurveyResponse, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.SurveyResponse, error)
	LatestByStudent(ctx context.Context, surveyID, studentID string) (*model.SurveyResponse, error)
	HasResponses(ctx context.Context, surveyID string) (bool, error)
	CountBySurvey(ctx context.Context, surveyID string) (int64, error)
	CountByVersion(ctx context.Context, surveyID string, version int) (int64, error)
	CountBySection(ctx context.Context, surveyID, sectionID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates a new response repository
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{
		collection: db.Collection("responses"),
	}
}

// EnsureIndexes creates the unique compound index that makes the
// one-submission-per-survey-version rule hold even when the same
// student submits twice at the same instant: the second insert fails
// with a duplicate key error.
func (r *responseRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "surveyId", Value: 1},
				{Key: "studentId", Value: 1},
				{Key: "surveyVersion", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "submittedAt", Value: -1}},
		},
	})
	return err
}

func (r *responseRepo) Create(ctx context.Context, response *model.SurveyResponse) error {
	if response.ID == "" {
		response.ID = uuid.New().String()
	}
	if response.Answers == nil {
		response.Answers = []model.Answer{}
	}
	response.SubmittedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, response)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *responseRepo) GetByID(ctx context.Context, id string) (*model.SurveyResponse, error) {
	var response model.SurveyResponse
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&response)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *responseRepo) ListBySurvey(ctx context.Context, surveyID string, q ResponseQuery) ([]*model.SurveyResponse, error) {
	filter := bson.M{"surveyId": surveyID}
	if q.SectionID != "" {
		filter["sectionId"] = q.SectionID
	}
	if q.DateFrom != nil || q.DateTo != nil {
		rng := bson.M{}
		if q.DateFrom != nil {
			rng["$gte"] = *q.DateFrom
		}
		if q.DateTo != nil {
			rng["$lte"] = *q.DateTo
		}
		filter["submittedAt"] = rng
	}

	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.SurveyResponse
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) ListByStudent(ctx context.Context, studentID string) ([]*model.SurveyResponse, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"studentId": studentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.SurveyResponse
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) LatestByStudent(ctx context.Context, surveyID, studentID string) (*model.SurveyResponse, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "submittedAt", Value: -1}})
	var response model.SurveyResponse
	err := r.collection.FindOne(ctx, bson.M{"surveyId": surveyID, "studentId": studentID}, opts).Decode(&response)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *responseRepo) HasResponses(ctx context.Context, surveyID string) (bool, error) {
	opts := options.Count().SetLimit(1)
	count, err := r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *responseRepo) CountBySurvey(ctx context.Context, surveyID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID})
}

func (r *responseRepo) CountByVersion(ctx context.Context, surveyID string, version int) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID, "surveyVersion": version})
}

func (r *responseRepo) CountBySection(ctx context.Context, surveyID, sectionID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"surveyId": surveyID, "sectionId": sectionID})
}
