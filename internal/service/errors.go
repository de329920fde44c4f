package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrNoProfile          = errors.New("no profile for user")
	ErrInactiveProfile    = errors.New("profile is deactivated")
	ErrSurveyClosed       = errors.New("survey is closed")
	ErrNotAssigned        = errors.New("survey not assigned to your section")
	ErrAlreadySubmitted   = errors.New("already submitted for this survey version")
)
