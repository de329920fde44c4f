package service

import (
	"context"
	"fmt"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

// Guard resolves the caller's profile and enforces role and liveness
// rules. The profile is loaded fresh on every call rather than trusted
// from the token, so deactivating a student or section locks the
// account out on their very next request even if their token is still
// valid.
type Guard struct {
	profileRepo repository.ProfileRepo
}

// NewGuard creates a new access guard
func NewGuard(profileRepo repository.ProfileRepo) *Guard {
	return &Guard{profileRepo: profileRepo}
}

// Resolve loads the active profile for a user ID.
func (g *Guard) Resolve(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := g.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNoProfile
	}
	if !profile.Active {
		return nil, ErrInactiveProfile
	}
	return profile, nil
}

// RequireTeacher resolves the profile and rejects non-teachers.
func (g *Guard) RequireTeacher(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := g.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Role != model.RoleTeacher {
		return nil, ErrForbidden
	}
	return profile, nil
}

// RequireStudent resolves the profile and rejects non-students.
func (g *Guard) RequireStudent(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := g.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Role != model.RoleStudent {
		return nil, ErrForbidden
	}
	return profile, nil
}
