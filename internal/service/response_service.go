package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

// AnswerInput is one submitted answer keyed by question id
type AnswerInput struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

// StudentSurveyItem is one survey on a student's dashboard
type StudentSurveyItem struct {
	Survey           *model.Survey `json:"survey"`
	Open             bool          `json:"open"`
	RespondedVersion int           `json:"respondedVersion,omitempty"`
	SubmittedAt      *time.Time    `json:"submittedAt,omitempty"`
}

// StudentDashboard splits a student's assigned surveys by what they
// still owe: pending has no response, retake has a response to an
// older version, completed has a response to the current version.
type StudentDashboard struct {
	Pending   []*StudentSurveyItem `json:"pending"`
	Retake    []*StudentSurveyItem `json:"retake"`
	Completed []*StudentSurveyItem `json:"completed"`
}

// ResponseHistoryItem is one past submission with its currency
type ResponseHistoryItem struct {
	Response    *model.SurveyResponse `json:"response"`
	SurveyTitle string                `json:"surveyTitle"`
	Current     bool                  `json:"current"`
}

// ResponseService handles submissions and a student's view of them.
// The stored response is stamped with the survey version seen at submit
// time; currency is always computed against the live version, never
// stored.
type ResponseService struct {
	surveyRepo   repository.SurveyRepo
	responseRepo repository.ResponseRepo
	cache        ReportCache
	broadcaster  Broadcaster
	now          func() time.Time
}

// NewResponseService creates a new response service
func NewResponseService(surveyRepo repository.SurveyRepo, responseRepo repository.ResponseRepo, cache ReportCache, broadcaster Broadcaster) *ResponseService {
	return &ResponseService{
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		cache:        cache,
		broadcaster:  broadcaster,
		now:          time.Now,
	}
}

// Submit records a student's answers for the survey's current version.
// Checks run in order: the survey must exist and be active, be assigned
// to the student's section, still be open, and not already have a
// current response from this student. The unique index backstops the
// last check, so two simultaneous submissions cannot both land.
func (s *ResponseService) Submit(ctx context.Context, student *model.Profile, surveyID string, answers []AnswerInput) (*model.SurveyResponse, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey: %w", err)
	}
	if survey == nil || !survey.Active {
		return nil, ErrNotFound
	}
	if !survey.AssignedTo(student.SectionID) {
		return nil, ErrNotAssigned
	}
	if !survey.IsOpen(s.now()) {
		return nil, ErrSurveyClosed
	}

	latest, err := s.responseRepo.LatestByStudent(ctx, surveyID, student.UserID)
	if err != nil {
		return nil, fmt.Errorf("load previous response: %w", err)
	}
	if latest != nil && latest.SurveyVersion == survey.Version {
		return nil, ErrAlreadySubmitted
	}

	byQuestion := make(map[string]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = strings.TrimSpace(a.Value)
	}

	active := survey.ActiveQuestions()
	stored := make([]model.Answer, 0, len(active))
	answered := 0
	for _, q := range active {
		value, ok := byQuestion[q.ID]
		if !ok || value == "" {
			if q.Required {
				return nil, fmt.Errorf("%w: question %q requires an answer", ErrInvalidInput, q.Text)
			}
			continue
		}
		answer := model.Answer{QuestionID: q.ID, QuestionType: q.Type}
		if q.Type.IsChoice() {
			answer.Choice = value
		} else {
			answer.Text = value
		}
		stored = append(stored, answer)
		answered++
	}

	response := &model.SurveyResponse{
		SurveyID:      surveyID,
		StudentID:     student.UserID,
		StudentName:   student.DisplayName,
		SectionID:     student.SectionID,
		SurveyVersion: survey.Version,
		Answers:       stored,
		Complete:      answered == len(active),
	}
	if err := s.responseRepo.Create(ctx, response); err != nil {
		if err == repository.ErrDuplicate {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("store response: %w", err)
	}

	s.cache.Invalidate(ctx, surveyID)
	s.broadcaster.ResponseSubmitted(surveyID, response)
	return response, nil
}

// Dashboard returns the active surveys assigned to the student's
// section, split into pending, retake and completed.
func (s *ResponseService) Dashboard(ctx context.Context, student *model.Profile) (*StudentDashboard, error) {
	surveys, err := s.surveyRepo.ListBySection(ctx, student.SectionID, true)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}

	dashboard := &StudentDashboard{
		Pending:   []*StudentSurveyItem{},
		Retake:    []*StudentSurveyItem{},
		Completed: []*StudentSurveyItem{},
	}
	now := s.now()
	for _, survey := range surveys {
		item := &StudentSurveyItem{Survey: survey, Open: survey.IsOpen(now)}
		latest, err := s.responseRepo.LatestByStudent(ctx, survey.ID, student.UserID)
		if err != nil {
			return nil, fmt.Errorf("load response: %w", err)
		}
		switch {
		case latest == nil:
			dashboard.Pending = append(dashboard.Pending, item)
		case latest.SurveyVersion == survey.Version:
			item.RespondedVersion = latest.SurveyVersion
			item.SubmittedAt = &latest.SubmittedAt
			dashboard.Completed = append(dashboard.Completed, item)
		default:
			item.RespondedVersion = latest.SurveyVersion
			item.SubmittedAt = &latest.SubmittedAt
			dashboard.Retake = append(dashboard.Retake, item)
		}
	}
	return dashboard, nil
}

// History returns all of the student's submissions, newest first, with
// each marked current or outdated against the live survey version.
func (s *ResponseService) History(ctx context.Context, student *model.Profile) ([]*ResponseHistoryItem, error) {
	responses, err := s.responseRepo.ListByStudent(ctx, student.UserID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	versions := make(map[string]*model.Survey)
	items := make([]*ResponseHistoryItem, 0, len(responses))
	for _, response := range responses {
		survey, ok := versions[response.SurveyID]
		if !ok {
			survey, err = s.surveyRepo.GetByID(ctx, response.SurveyID)
			if err != nil {
				return nil, fmt.Errorf("load survey: %w", err)
			}
			versions[response.SurveyID] = survey
		}
		item := &ResponseHistoryItem{Response: response}
		if survey != nil {
			item.SurveyTitle = survey.Title
			item.Current = response.IsCurrent(survey.Version)
		}
		items = append(items, item)
	}
	return items, nil
}

// Detail returns one of the student's own submissions.
func (s *ResponseService) Detail(ctx context.Context, student *model.Profile, responseID string) (*ResponseHistoryItem, error) {
	response, err := s.responseRepo.GetByID(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("load response: %w", err)
	}
	if response == nil || response.StudentID != student.UserID {
		return nil, ErrNotFound
	}

	survey, err := s.surveyRepo.GetByID(ctx, response.SurveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey: %w", err)
	}
	item := &ResponseHistoryItem{Response: response}
	if survey != nil {
		item.SurveyTitle = survey.Title
		item.Current = response.IsCurrent(survey.Version)
	}
	return item, nil
}

// ListForSurvey returns a survey's responses for its owner, narrowed by
// date, section and version filter.
func (s *ResponseService) ListForSurvey(ctx context.Context, ownerID, surveyID string, filter model.VersionFilter, q repository.ResponseQuery) ([]*model.SurveyResponse, *model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, nil, fmt.Errorf("load survey: %w", err)
	}
	if survey == nil || survey.CreatedBy != ownerID {
		return nil, nil, ErrNotFound
	}

	responses, err := s.responseRepo.ListBySurvey(ctx, surveyID, q)
	if err != nil {
		return nil, nil, fmt.Errorf("list responses: %w", err)
	}
	return FilterByVersion(responses, filter, survey.Version), survey, nil
}

// FilterByVersion narrows responses by their relation to the current
// survey version. The latest filter keeps each student's most recent
// submission regardless of version; the input must be sorted newest
// first for it to pick correctly.
func FilterByVersion(responses []*model.SurveyResponse, filter model.VersionFilter, currentVersion int) []*model.SurveyResponse {
	switch filter {
	case model.VersionFilterCurrent:
		out := make([]*model.SurveyResponse, 0, len(responses))
		for _, r := range responses {
			if r.SurveyVersion == currentVersion {
				out = append(out, r)
			}
		}
		return out
	case model.VersionFilterOutdated:
		out := make([]*model.SurveyResponse, 0, len(responses))
		for _, r := range responses {
			if r.SurveyVersion != currentVersion {
				out = append(out, r)
			}
		}
		return out
	case model.VersionFilterLatest:
		seen := make(map[string]bool, len(responses))
		out := make([]*model.SurveyResponse, 0, len(responses))
		for _, r := range responses {
			if seen[r.StudentID] {
				continue
			}
			seen[r.StudentID] = true
			out = append(out, r)
		}
		return out
	default:
		return responses
	}
}

// VersionGroup is one version's bucket of a survey's responses for the
// teacher's response browser.
type VersionGroup struct {
	Version   int                     `json:"version"`
	Current   bool                    `json:"current"`
	Responses []*model.SurveyResponse `json:"responses"`
}

// GroupByVersion buckets responses by the version they answered, newest
// version first. Order within a bucket follows the input.
func GroupByVersion(responses []*model.SurveyResponse, currentVersion int) []VersionGroup {
	byVersion := make(map[int][]*model.SurveyResponse)
	for _, r := range responses {
		byVersion[r.SurveyVersion] = append(byVersion[r.SurveyVersion], r)
	}

	versions := make([]int, 0, len(byVersion))
	for v := range byVersion {
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))

	groups := make([]VersionGroup, 0, len(versions))
	for _, v := range versions {
		groups = append(groups, VersionGroup{
			Version:   v,
			Current:   v == currentVersion,
			Responses: byVersion[v],
		})
	}
	return groups
}
