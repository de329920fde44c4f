package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

// SurveyInput carries the writable survey fields
type SurveyInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	SectionIDs  []string   `json:"sectionIds"`
	Active      *bool      `json:"active"`
}

// SurveySummary is a survey with its response tallies for listings
type SurveySummary struct {
	*model.Survey
	ResponseCount int64 `json:"responseCount"`
	CurrentCount  int64 `json:"currentCount"`
}

// SurveyService handles survey lifecycle and the version bump rule.
// A content or structural edit bumps the version by exactly one, and
// only when at least one response exists; administrative edits never
// bump. The bump travels in the same database update as the edit.
type SurveyService struct {
	surveyRepo   repository.SurveyRepo
	responseRepo repository.ResponseRepo
	sectionRepo  repository.SectionRepo
	cache        ReportCache
	broadcaster  Broadcaster
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo, responseRepo repository.ResponseRepo, sectionRepo repository.SectionRepo, cache ReportCache, broadcaster Broadcaster) *SurveyService {
	return &SurveyService{
		surveyRepo:   surveyRepo,
		responseRepo: responseRepo,
		sectionRepo:  sectionRepo,
		cache:        cache,
		broadcaster:  broadcaster,
	}
}

// Create makes a new survey owned by the calling teacher at version 1.
func (s *SurveyService) Create(ctx context.Context, ownerID string, in SurveyInput) (*model.Survey, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if err := s.checkSections(ctx, in.SectionIDs); err != nil {
		return nil, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	survey := &model.Survey{
		CreatedBy:   ownerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Version:     1,
		Active:      active,
		DueDate:     in.DueDate,
		SectionIDs:  in.SectionIDs,
	}
	if err := s.surveyRepo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	return survey, nil
}

// Get returns a survey owned by the caller.
func (s *SurveyService) Get(ctx context.Context, ownerID, surveyID string) (*model.Survey, error) {
	return s.owned(ctx, ownerID, surveyID)
}

// List returns the caller's surveys with response tallies, optionally
// filtered by a title/description search and active state.
func (s *SurveyService) List(ctx context.Context, ownerID string, q repository.SurveyQuery) ([]*SurveySummary, error) {
	surveys, err := s.surveyRepo.ListByOwner(ctx, ownerID, q)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}

	summaries := make([]*SurveySummary, 0, len(surveys))
	for _, survey := range surveys {
		total, err := s.responseRepo.CountBySurvey(ctx, survey.ID)
		if err != nil {
			return nil, fmt.Errorf("count responses: %w", err)
		}
		current, err := s.responseRepo.CountByVersion(ctx, survey.ID, survey.Version)
		if err != nil {
			return nil, fmt.Errorf("count current responses: %w", err)
		}
		summaries = append(summaries, &SurveySummary{
			Survey:        survey,
			ResponseCount: total,
			CurrentCount:  current,
		})
	}
	return summaries, nil
}

// UpdateContent edits title and description. The version bumps only
// when the text actually changed and the survey has responses; saving
// identical text is a no-op for versioning.
func (s *SurveyService) UpdateContent(ctx context.Context, ownerID, surveyID, title, description string) (*model.Survey, error) {
	survey, err := s.owned(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	changed := title != survey.Title || description != survey.Description
	if !changed {
		return survey, nil
	}

	bump, err := s.ShouldBump(ctx, surveyID, model.EditContent)
	if err != nil {
		return nil, err
	}
	if err := s.surveyRepo.UpdateContent(ctx, surveyID, title, description, bump); err != nil {
		return nil, fmt.Errorf("update survey: %w", err)
	}
	if bump {
		s.afterBump(ctx, surveyID, survey.Version+1)
	}
	return s.surveyRepo.GetByID(ctx, surveyID)
}

// UpdateSettings edits due date, open state and section assignment.
// These are administrative edits and never touch the version, so
// extending a deadline does not strand existing responses.
func (s *SurveyService) UpdateSettings(ctx context.Context, ownerID, surveyID string, in SurveyInput) (*model.Survey, error) {
	survey, err := s.owned(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSections(ctx, in.SectionIDs); err != nil {
		return nil, err
	}

	active := survey.Active
	if in.Active != nil {
		active = *in.Active
	}
	if err := s.surveyRepo.UpdateSettings(ctx, surveyID, active, in.DueDate, in.SectionIDs); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s.surveyRepo.GetByID(ctx, surveyID)
}

// SetActive opens or closes a survey without touching its version.
func (s *SurveyService) SetActive(ctx context.Context, ownerID, surveyID string, active bool) (*model.Survey, error) {
	if _, err := s.owned(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}
	if err := s.surveyRepo.SetActive(ctx, surveyID, active); err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	return s.surveyRepo.GetByID(ctx, surveyID)
}

// ShouldBump applies the version rule to one classified edit: content
// and structural edits bump once any response exists, administrative
// edits never do.
func (s *SurveyService) ShouldBump(ctx context.Context, surveyID string, kind model.EditKind) (bool, error) {
	if !kind.Bumps() {
		return false, nil
	}
	has, err := s.responseRepo.HasResponses(ctx, surveyID)
	if err != nil {
		return false, fmt.Errorf("check responses: %w", err)
	}
	return has, nil
}

// owned loads a survey and verifies the caller created it. Other
// teachers' surveys read as not found so their existence never leaks.
func (s *SurveyService) owned(ctx context.Context, ownerID, surveyID string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey: %w", err)
	}
	if survey == nil || survey.CreatedBy != ownerID {
		return nil, ErrNotFound
	}
	return survey, nil
}

func (s *SurveyService) checkSections(ctx context.Context, sectionIDs []string) error {
	for _, id := range sectionIDs {
		section, err := s.sectionRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load section: %w", err)
		}
		if section == nil {
			return fmt.Errorf("%w: unknown section %q", ErrInvalidInput, id)
		}
	}
	return nil
}

func (s *SurveyService) afterBump(ctx context.Context, surveyID string, newVersion int) {
	s.cache.Invalidate(ctx, surveyID)
	s.broadcaster.VersionBumped(surveyID, newVersion)
}
