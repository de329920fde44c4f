package service

import (
	"context"
	"fmt"
	"strings"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

// SectionSummary is a section with its active student count
type SectionSummary struct {
	*model.Section
	StudentCount int64 `json:"studentCount"`
}

// SectionService handles section lifecycle. Deactivating a section
// cascades to its student profiles in the same call, so the students
// lose access immediately; restoring the section brings them back.
type SectionService struct {
	sectionRepo repository.SectionRepo
	profileRepo repository.ProfileRepo
}

// NewSectionService creates a new section service
func NewSectionService(sectionRepo repository.SectionRepo, profileRepo repository.ProfileRepo) *SectionService {
	return &SectionService{sectionRepo: sectionRepo, profileRepo: profileRepo}
}

// Create makes a new active section.
func (s *SectionService) Create(ctx context.Context, name, code, description string) (*model.Section, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" || code == "" {
		return nil, fmt.Errorf("%w: name and code are required", ErrInvalidInput)
	}
	section := &model.Section{
		Name:        name,
		Code:        code,
		Description: strings.TrimSpace(description),
		Active:      true,
	}
	if err := s.sectionRepo.Create(ctx, section); err != nil {
		return nil, fmt.Errorf("create section: %w", err)
	}
	return section, nil
}

// List returns sections with their active student counts.
func (s *SectionService) List(ctx context.Context, activeOnly bool) ([]*SectionSummary, error) {
	sections, err := s.sectionRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	summaries := make([]*SectionSummary, 0, len(sections))
	for _, section := range sections {
		count, err := s.profileRepo.CountActiveStudents(ctx, section.ID)
		if err != nil {
			return nil, fmt.Errorf("count students: %w", err)
		}
		summaries = append(summaries, &SectionSummary{Section: section, StudentCount: count})
	}
	return summaries, nil
}

// Get returns one section.
func (s *SectionService) Get(ctx context.Context, id string) (*model.Section, error) {
	section, err := s.sectionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load section: %w", err)
	}
	if section == nil {
		return nil, ErrNotFound
	}
	return section, nil
}

// Update edits a section's name, code and description.
func (s *SectionService) Update(ctx context.Context, id, name, code, description string) (*model.Section, error) {
	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" || code == "" {
		return nil, fmt.Errorf("%w: name and code are required", ErrInvalidInput)
	}
	section.Name = name
	section.Code = code
	section.Description = strings.TrimSpace(description)
	if err := s.sectionRepo.Update(ctx, section); err != nil {
		return nil, fmt.Errorf("update section: %w", err)
	}
	return section, nil
}

// SetActive flips a section and cascades the flag to its student
// profiles. Returns how many profiles were touched.
func (s *SectionService) SetActive(ctx context.Context, id string, active bool) (int64, error) {
	section, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if section.Active == active {
		return 0, nil
	}
	if err := s.sectionRepo.SetActive(ctx, id, active); err != nil {
		return 0, fmt.Errorf("set section active: %w", err)
	}
	touched, err := s.profileRepo.SetActiveBySection(ctx, id, active)
	if err != nil {
		return 0, fmt.Errorf("cascade to students: %w", err)
	}
	return touched, nil
}
