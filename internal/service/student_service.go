package service

import (
	"context"
	"fmt"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

// StudentService gives teachers a view of the student roster.
type StudentService struct {
	profileRepo  repository.ProfileRepo
	responseRepo repository.ResponseRepo
}

// NewStudentService creates a new student service
func NewStudentService(profileRepo repository.ProfileRepo, responseRepo repository.ResponseRepo) *StudentService {
	return &StudentService{profileRepo: profileRepo, responseRepo: responseRepo}
}

// List returns student profiles, optionally narrowed to a section or an
// active state.
func (s *StudentService) List(ctx context.Context, sectionID string, active *bool) ([]*model.Profile, error) {
	profiles, err := s.profileRepo.List(ctx, repository.ProfileQuery{
		Role:      model.RoleStudent,
		SectionID: sectionID,
		Active:    active,
	})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return profiles, nil
}

// SetActive flips one student profile. Past responses are kept either
// way; a deactivated student just cannot sign in or submit.
func (s *StudentService) SetActive(ctx context.Context, profileID string, active bool) (*model.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	if profile.Role != model.RoleStudent {
		return nil, fmt.Errorf("%w: not a student profile", ErrInvalidInput)
	}
	if err := s.profileRepo.SetActive(ctx, profileID, active); err != nil {
		return nil, fmt.Errorf("set profile active: %w", err)
	}
	profile.Active = active
	return profile, nil
}

// Responses returns all submissions made by one student.
func (s *StudentService) Responses(ctx context.Context, profileID string) ([]*model.SurveyResponse, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	responses, err := s.responseRepo.ListByStudent(ctx, profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}
