package repository

import "errors"

// ErrDuplicate is returned when an insert violates a unique index.
// For responses this means the student already submitted for the
// survey's current version.
var ErrDuplicate = errors.New("duplicate record")
