package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classpulse/internal/model"

	"github.com/google/uuid"
)

// SurveyQuery narrows a teacher's survey listing
type SurveyQuery struct {
	Search string // matches title or description, case-insensitive
	Active *bool
}

// SurveyRepo handles MongoDB operations for surveys and their embedded
// questions. Every mutation that may bump the version performs the edit
// and the `$inc` in a single UpdateOne, so two concurrent edits can
// never lose a bump: increments on one document are serialized by the
// storage engine.
type SurveyRepo interface {
	Create(ctx context.Context, survey *model.Survey) error
	GetByID(ctx context.Context, id string) (*model.Survey, error)
	ListByOwner(ctx context.Context, ownerID string, q SurveyQuery) ([]*model.Survey, error)
	ListBySection(ctx context.Context, sectionID string, activeOnly bool) ([]*model.Survey, error)

	UpdateContent(ctx context.Context, id, title, description string, bump bool) error
	UpdateSettings(ctx context.Context, id string, active bool, dueDate *time.Time, sectionIDs []string) error
	SetActive(ctx context.Context, id string, active bool) error

	AddQuestions(ctx context.Context, id string, questions []model.Question, bump bool) error
	UpdateQuestion(ctx context.Context, id string, q model.Question, bump bool) error
	SetQuestionActive(ctx context.Context, id, questionID string, active, bump bool) error
	SetQuestionsActive(ctx context.Context, id string, questionIDs []string, active, bump bool) error
	SetQuestionOrders(ctx context.Context, id string, orders map[string]int, bump bool) error
	SetQuestionsRequired(ctx context.Context, id string, required map[string]bool, bump bool) error
	SetQuestionsType(ctx context.Context, id string, questionIDs []string, t model.QuestionType, bump bool) error
}

type surveyRepo struct {
	collection *mongo.Collection
}

// NewSurveyRepo creates a new survey repository
func NewSurveyRepo(db *mongo.Database) SurveyRepo {
	return &surveyRepo{
		collection: db.Collection("surveys"),
	}
}

func (r *surveyRepo) Create(ctx context.Context, survey *model.Survey) error {
	if survey.ID == "" {
		survey.ID = uuid.New().String()
	}
	if survey.Version == 0 {
		survey.Version = 1
	}
	if survey.SectionIDs == nil {
		survey.SectionIDs = []string{}
	}
	if survey.Questions == nil {
		survey.Questions = []model.Question{}
	}
	survey.CreatedAt = time.Now()
	survey.UpdatedAt = survey.CreatedAt

	_, err := r.collection.InsertOne(ctx, survey)
	return err
}

func (r *surveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	var survey model.Survey
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&survey)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *surveyRepo) ListByOwner(ctx context.Context, ownerID string, q SurveyQuery) ([]*model.Survey, error) {
	filter := bson.M{"createdBy": ownerID}
	if q.Search != "" {
		rx := bson.M{"$regex": q.Search, "$options": "i"}
		filter["$or"] = []bson.M{{"title": rx}, {"description": rx}}
	}
	if q.Active != nil {
		filter["active"] = *q.Active
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var surveys []*model.Survey
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

func (r *surveyRepo) ListBySection(ctx context.Context, sectionID string, activeOnly bool) ([]*model.Survey, error) {
	filter := bson.M{"sectionIds": sectionID}
	if activeOnly {
		filter["active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var surveys []*model.Survey
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

// update applies a $set (plus optional extra operators) and, when bump
// is set, a $inc of the version counter in the same atomic UpdateOne.
func (r *surveyRepo) update(ctx context.Context, id string, set bson.M, bump bool, opts ...*options.UpdateOptions) error {
	set["updatedAt"] = time.Now()
	u := bson.M{"$set": set}
	if bump {
		u["$inc"] = bson.M{"version": 1}
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, u, opts...)
	return err
}

func (r *surveyRepo) UpdateContent(ctx context.Context, id, title, description string, bump bool) error {
	return r.update(ctx, id, bson.M{"title": title, "description": description}, bump)
}

func (r *surveyRepo) UpdateSettings(ctx context.Context, id string, active bool, dueDate *time.Time, sectionIDs []string) error {
	if sectionIDs == nil {
		sectionIDs = []string{}
	}
	u := bson.M{
		"$set": bson.M{
			"active":     active,
			"sectionIds": sectionIDs,
			"updatedAt":  time.Now(),
		},
	}
	if dueDate != nil {
		u["$set"].(bson.M)["dueDate"] = *dueDate
	} else {
		u["$unset"] = bson.M{"dueDate": ""}
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, u)
	return err
}

func (r *surveyRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, id, bson.M{"active": active}, false)
}

func (r *surveyRepo) AddQuestions(ctx context.Context, id string, questions []model.Question, bump bool) error {
	docs := make([]interface{}, len(questions))
	for i, q := range questions {
		docs[i] = q
	}
	u := bson.M{
		"$push": bson.M{"questions": bson.M{"$each": docs}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if bump {
		u["$inc"] = bson.M{"version": 1}
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, u)
	return err
}

func (r *surveyRepo) UpdateQuestion(ctx context.Context, id string, q model.Question, bump bool) error {
	set := bson.M{
		"questions.$[q].text":     q.Text,
		"questions.$[q].type":     q.Type,
		"questions.$[q].required": q.Required,
		"questions.$[q].order":    q.Order,
		"questions.$[q].options":  q.Options,
	}
	if q.Type == model.QuestionTypeLikertScale {
		set["questions.$[q].likertMin"] = q.LikertMin
		set["questions.$[q].likertMax"] = q.LikertMax
		set["questions.$[q].likertLabels"] = q.LikertLabels
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"q.id": q.ID}},
	})
	return r.update(ctx, id, set, bump, opts)
}

func (r *surveyRepo) SetQuestionActive(ctx context.Context, id, questionID string, active, bump bool) error {
	return r.SetQuestionsActive(ctx, id, []string{questionID}, active, bump)
}

func (r *surveyRepo) SetQuestionsActive(ctx context.Context, id string, questionIDs []string, active, bump bool) error {
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"q.id": bson.M{"$in": questionIDs}}},
	})
	return r.update(ctx, id, bson.M{"questions.$[q].active": active}, bump, opts)
}

func (r *surveyRepo) SetQuestionOrders(ctx context.Context, id string, orders map[string]int, bump bool) error {
	set := bson.M{}
	var filters []interface{}
	i := 0
	for questionID, order := range orders {
		name := fmt.Sprintf("q%d", i)
		set[fmt.Sprintf("questions.$[%s].order", name)] = order
		filters = append(filters, bson.M{name + ".id": questionID})
		i++
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: filters})
	return r.update(ctx, id, set, bump, opts)
}

func (r *surveyRepo) SetQuestionsRequired(ctx context.Context, id string, required map[string]bool, bump bool) error {
	set := bson.M{}
	var filters []interface{}
	i := 0
	for questionID, req := range required {
		name := fmt.Sprintf("q%d", i)
		set[fmt.Sprintf("questions.$[%s].required", name)] = req
		filters = append(filters, bson.M{name + ".id": questionID})
		i++
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: filters})
	return r.update(ctx, id, set, bump, opts)
}

func (r *surveyRepo) SetQuestionsType(ctx context.Context, id string, questionIDs []string, t model.QuestionType, bump bool) error {
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"q.id": bson.M{"$in": questionIDs}}},
	})
	return r.update(ctx, id, bson.M{"questions.$[q].type": t}, bump, opts)
}
