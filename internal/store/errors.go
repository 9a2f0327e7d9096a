package store

import (
	"errors"
	"fmt"

	"envision/internal/services"
)

// ErrNotFound is returned by writes against a vision that no longer exists.
var ErrNotFound = fmt.Errorf("%w: vision session", services.ErrNotFound)

// ErrInvalidTransition is returned when a status change is not allowed from
// the stored status.
var ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", services.ErrConflict)

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")
