package service

import (
	"allfit/allfit-backend/internal/domain"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error categories. Services wrap these so handlers can map them to HTTP
// status codes with errors.Is regardless of the specific message.
var (
	// ErrValidation marks caller-fixable bad input (missing/malformed fields).
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks an overlapping booking; distinct from validation so
	// clients can offer alternate slots.
	ErrConflict = errors.New("time slot is already booked")
	// ErrPermission marks a failed role or ownership check.
	ErrPermission = errors.New("access denied")
	// ErrNotFound marks a referenced identity that does not exist.
	ErrNotFound = errors.New("not found")
)

// Caller identifies the authenticated user making a request, as extracted
// from the JWT by the API layer.
type Caller struct {
	ID   primitive.ObjectID
	Role domain.Role
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}
