package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

// QuestionInput carries the writable question fields
type QuestionInput struct {
	Text         string             `json:"text"`
	Type         model.QuestionType `json:"type"`
	Required     bool               `json:"required"`
	Order        *int               `json:"order"`
	Options      []string           `json:"options"`
	LikertMin    int                `json:"likertMin"`
	LikertMax    int                `json:"likertMax"`
	LikertLabels []string           `json:"likertLabels"`
}

// QuestionService handles the embedded questions of a survey. Every
// structural edit, including the bulk operations, counts as a single
// edit for versioning: one operation, at most one bump.
type QuestionService struct {
	surveyRepo   repository.SurveyRepo
	responseRepo repository.ResponseRepo
	cache        ReportCache
	broadcaster  Broadcaster
}

// NewQuestionService creates a new question service
func NewQuestionService(surveyRepo repository.SurveyRepo, responseRepo repository.ResponseRepo, cache ReportCache, broadcaster Broadcaster) *QuestionService {
	return &QuestionService{
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		cache:        cache,
		broadcaster:  broadcaster,
	}
}

// Add appends one question to the survey.
func (s *QuestionService) Add(ctx context.Context, ownerID, surveyID string, in QuestionInput) (*model.Survey, error) {
	return s.AddBatch(ctx, ownerID, surveyID, []QuestionInput{in})
}

// AddBatch appends several questions in one structural edit. All inputs
// are validated before anything is written, so a bad row aborts the
// whole batch and the version moves by at most one.
func (s *QuestionService) AddBatch(ctx context.Context, ownerID, surveyID string, inputs []QuestionInput) (*model.Survey, error) {
	survey, err := s.owned(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no questions given", ErrInvalidInput)
	}

	nextOrder := 0
	for _, q := range survey.Questions {
		if q.Order >= nextOrder {
			nextOrder = q.Order + 1
		}
	}

	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		q, err := buildQuestion(in)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if in.Order == nil {
			q.Order = nextOrder
			nextOrder++
		}
		questions = append(questions, q)
	}

	return s.structural(ctx, survey, func(bump bool) error {
		return s.surveyRepo.AddQuestions(ctx, surveyID, questions, bump)
	})
}

// Update edits a question's text, type and settings.
func (s *QuestionService) Update(ctx context.Context, ownerID, surveyID, questionID string, in QuestionInput) (*model.Survey, error) {
	survey, err := s.owned(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	existing := survey.QuestionByID(questionID)
	if existing == nil {
		return nil, ErrNotFound
	}

	q, err := buildQuestion(in)
	if err != nil {
		return nil, err
	}
	q.ID = questionID
	if in.Order == nil {
		q.Order = existing.Order
	}

	return s.structural(ctx, survey, func(bump bool) error {
		return s.surveyRepo.UpdateQuestion(ctx, surveyID, q, bump)
	})
}

// Delete soft-deletes a question. It stays embedded with Active=false
// so answers in older responses keep resolving to their text.
func (s *QuestionService) Delete(ctx context.Context, ownerID, surveyID, questionID string) (*model.Survey, error) {
	return s.setActive(ctx, ownerID, surveyID, questionID, false)
}

// Restore reactivates a soft-deleted question.
func (s *QuestionService) Restore(ctx context.Context, ownerID, surveyID, questionID string) (*model.Survey, error) {
	return s.setActive(ctx, ownerID, surveyID, questionID, true)
}

func (s *QuestionService) setActive(ctx context.Context, ownerID, surveyID, questionID string, active bool) (*model.Survey, error) {
	survey, err := s.owned(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	q := survey.QuestionByID(questionID)
	if q == nil {
		return nil, ErrNotFound
	}
	if q.Active == active {
		return survey, nil
	}

	return s.structural(ctx, survey, func(bump bool) error {
		return s.surveyRepo.SetQuestionActive(ctx, surveyID, questionID, active, bump)
	})
}

// Reorder assigns new positions to the given questions in one edit.
func (s *QuestionService) Reorder(ctx context.Context, ownerID, surveyID string, orders map[string]int) (*model.Survey, error) {
	survey, err := s.owned(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: no order given", ErrInvalidInput)
	}
	for questionID := range orders {
		if survey.QuestionByID(questionID) == nil {
			return nil, fmt.Errorf("%w: unknown question %q", ErrInvalidInput, questionID)
		}
	}

	return s.structural(ctx, survey, func(bump bool) error {
		return s.surveyRepo.SetQuestionOrders(ctx, surveyID, orders, bump)
	})
}

// BulkDelete soft-deletes several questions as one structural edit.
func (s *QuestionService) BulkDelete(ctx context.Context, ownerID, surveyID string, questionIDs []string) (*model.Survey, error) {
	survey, err := s.ownedAll(ctx, ownerID, surveyID, questionIDs)
	if err != nil {
		return nil, err
	}
	return s.structural(ctx, survey, func(bump bool) error {
		return s.surveyRepo.SetQuestionsActive(ctx, surveyID, questionIDs, false, bump)
	})
}

// BulkSetRequired flips the required flag on several questions as one
// structural edit.
func (s *QuestionService) BulkSetRequired(ctx context.Context, ownerID, surveyID string, required map[string]bool) (*model.Survey, error) {
	ids := make([]string, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	survey, err := s.ownedAll(ctx, ownerID, surveyID, ids)
	if err != nil {
		return nil, err
	}
	return s.structural(ctx, survey, func(bump bool) error {
		return s.surveyRepo.SetQuestionsRequired(ctx, surveyID, required, bump)
	})
}

// BulkSetType changes the type of several questions as one structural
// edit.
func (s *QuestionService) BulkSetType(ctx context.Context, ownerID, surveyID string, questionIDs []string, t model.QuestionType) (*model.Survey, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown question type %q", ErrInvalidInput, t)
	}
	survey, err := s.ownedAll(ctx, ownerID, surveyID, questionIDs)
	if err != nil {
		return nil, err
	}
	return s.structural(ctx, survey, func(bump bool) error {
		return s.surveyRepo.SetQuestionsType(ctx, surveyID, questionIDs, t, bump)
	})
}

// structural runs a question mutation with the bump decision attached,
// then reloads the survey and fires the side effects.
func (s *QuestionService) structural(ctx context.Context, survey *model.Survey, apply func(bump bool) error) (*model.Survey, error) {
	bump, err := s.shouldBump(ctx, survey.ID, model.EditStructural)
	if err != nil {
		return nil, err
	}
	if err := apply(bump); err != nil {
		return nil, fmt.Errorf("update questions: %w", err)
	}
	if bump {
		s.cache.Invalidate(ctx, survey.ID)
		s.broadcaster.VersionBumped(survey.ID, survey.Version+1)
	}
	return s.surveyRepo.GetByID(ctx, survey.ID)
}

// shouldBump applies the version rule to one classified edit.
func (s *QuestionService) shouldBump(ctx context.Context, surveyID string, kind model.EditKind) (bool, error) {
	if !kind.Bumps() {
		return false, nil
	}
	has, err := s.responseRepo.HasResponses(ctx, surveyID)
	if err != nil {
		return false, fmt.Errorf("check responses: %w", err)
	}
	return has, nil
}

func (s *QuestionService) owned(ctx context.Context, ownerID, surveyID string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey: %w", err)
	}
	if survey == nil || survey.CreatedBy != ownerID {
		return nil, ErrNotFound
	}
	return survey, nil
}

func (s *QuestionService) ownedAll(ctx context.Context, ownerID, surveyID string, questionIDs []string) (*model.Survey, error) {
	survey, err := s.owned(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	if len(questionIDs) == 0 {
		return nil, fmt.Errorf("%w: no questions given", ErrInvalidInput)
	}
	for _, id := range questionIDs {
		if survey.QuestionByID(id) == nil {
			return nil, fmt.Errorf("%w: unknown question %q", ErrInvalidInput, id)
		}
	}
	return survey, nil
}

func buildQuestion(in QuestionInput) (model.Question, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return model.Question{}, fmt.Errorf("%w: question text is required", ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return model.Question{}, fmt.Errorf("%w: unknown question type %q", ErrInvalidInput, in.Type)
	}

	q := model.Question{
		ID:       uuid.New().String(),
		Text:     text,
		Type:     in.Type,
		Required: in.Required,
		Active:   true,
	}
	if in.Order != nil {
		q.Order = *in.Order
	}

	switch in.Type {
	case model.QuestionTypeMultipleChoice:
		options := make([]string, 0, len(in.Options))
		for _, o := range in.Options {
			if o = strings.TrimSpace(o); o != "" {
				options = append(options, o)
			}
		}
		if len(options) < 2 {
			return model.Question{}, fmt.Errorf("%w: multiple choice needs at least two options", ErrInvalidInput)
		}
		q.Options = options
	case model.QuestionTypeLikertScale:
		q.LikertMin = in.LikertMin
		q.LikertMax = in.LikertMax
		if q.LikertMin == 0 && q.LikertMax == 0 {
			q.LikertMin, q.LikertMax = 1, 5
		}
		if q.LikertMin >= q.LikertMax {
			return model.Question{}, fmt.Errorf("%w: likert scale range is inverted", ErrInvalidInput)
		}
		q.LikertLabels = in.LikertLabels
	}
	return q, nil
}
