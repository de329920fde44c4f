package model

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT claims carried by every authenticated request.
// The profile itself is re-resolved from the store on each request, so
// the token only identifies the user.
type Claims struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token       string `json:"token"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// RegisterRequest is the request body for registration
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	SectionID   string `json:"sectionId,omitempty"`
}
