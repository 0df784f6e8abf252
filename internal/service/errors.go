package service

import (
	"errors"
	"fmt"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/repository"
)

var (
	// ErrValidation marks input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when the row does not exist or belongs to another user.
	ErrNotFound = repository.ErrNotFound
	// ErrNotAuthenticated is returned when no caller identity is present.
	ErrNotAuthenticated = auth.ErrNotAuthenticated
	// ErrInsufficientCredits is matched by InsufficientCreditsError.
	ErrInsufficientCredits = repository.ErrInsufficientCredits
	// ErrEmailAlreadyExists is returned when registering a taken email.
	ErrEmailAlreadyExists = errors.New("email already registered")
)

// ValidationError carries a user-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(format string, args ...any) error {
	return ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientCreditsError reports a refused paid action with the balance left untouched.
type InsufficientCreditsError struct {
	Balance  int
	Required int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: balance %d, required %d", e.Balance, e.Required)
}

func (e *InsufficientCreditsError) Unwrap() error {
	return ErrInsufficientCredits
}
