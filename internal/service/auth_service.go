package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"classpulse/internal/model"
	"classpulse/internal/repository"
)

const tokenLifetime = 24 * time.Hour

// AuthService handles registration, login and token validation
type AuthService struct {
	userRepo    repository.UserRepo
	profileRepo repository.ProfileRepo
	sectionRepo repository.SectionRepo
	jwtSecret   []byte
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepo, profileRepo repository.ProfileRepo, sectionRepo repository.SectionRepo, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		sectionRepo: sectionRepo,
		jwtSecret:   []byte(jwtSecret),
	}
}

// Register creates a user and its profile. Students must name an
// existing active section; teachers carry no section.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.Profile, error) {
	username := strings.TrimSpace(strings.ToLower(req.Username))
	if username == "" || len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: username required and password must be at least 8 characters", ErrInvalidInput)
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}

	sectionID := ""
	if req.Role == model.RoleStudent {
		if req.SectionID == "" {
			return nil, fmt.Errorf("%w: students must join a section", ErrInvalidInput)
		}
		section, err := s.sectionRepo.GetByID(ctx, req.SectionID)
		if err != nil {
			return nil, fmt.Errorf("load section: %w", err)
		}
		if section == nil || !section.Active {
			return nil, fmt.Errorf("%w: section not available", ErrInvalidInput)
		}
		sectionID = section.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicate {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	profile := &model.Profile{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Role:        req.Role,
		SectionID:   sectionID,
		Active:      true,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// Login verifies credentials and issues a signed token. Users whose
// profile has been deactivated cannot sign in.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	username := strings.TrimSpace(strings.ToLower(req.Username))
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNoProfile
	}
	if !profile.Active {
		return nil, ErrInactiveProfile
	}

	token, err := s.issueToken(user.ID, profile.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.LoginResponse{
		Token:       token,
		UserID:      user.ID,
		DisplayName: profile.DisplayName,
		Role:        profile.Role,
	}, nil
}

func (s *AuthService) issueToken(userID string, role model.Role) (string, error) {
	now := time.Now()
	claims := model.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses and verifies a signed token.
func (s *AuthService) ValidateToken(tokenString string) (*model.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*model.Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
