package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"classpulse/internal/model"
	"classpulse/internal/service"
)

type contextKey string

const (
	UserIDKey  contextKey = "userId"
	ProfileKey contextKey = "profile"
)

// AuthMiddleware provides JWT authentication middleware. The caller's
// profile is re-resolved from the database on every request, so a
// deactivated profile is rejected even while its token is still valid.
type AuthMiddleware struct {
	authSvc *service.AuthService
	guard   *service.Guard
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService, guard *service.Guard) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc, guard: guard}
}

// RequireTeacher admits only active teacher profiles
func (m *AuthMiddleware) RequireTeacher(next http.Handler) http.Handler {
	return m.require(next, m.guard.RequireTeacher)
}

// RequireStudent admits only active student profiles
func (m *AuthMiddleware) RequireStudent(next http.Handler) http.Handler {
	return m.require(next, m.guard.RequireStudent)
}

func (m *AuthMiddleware) require(next http.Handler, resolve func(context.Context, string) (*model.Profile, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		profile, err := resolve(r.Context(), claims.UserID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInactiveProfile):
				http.Error(w, `{"error":"account is deactivated"}`, http.StatusUnauthorized)
			case errors.Is(err, service.ErrNoProfile):
				http.Error(w, `{"error":"no profile for this account"}`, http.StatusUnauthorized)
			case errors.Is(err, service.ErrForbidden):
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			default:
				http.Error(w, `{"error":"authentication failed"}`, http.StatusInternalServerError)
			}
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, ProfileKey, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the authenticated user ID from context
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(UserIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetProfile extracts the resolved profile from context
func GetProfile(ctx context.Context) *model.Profile {
	if v := ctx.Value(ProfileKey); v != nil {
		return v.(*model.Profile)
	}
	return nil
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
