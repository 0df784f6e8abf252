package auth

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotAuthenticated is returned by operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// RoleAdmin grants access to the admin routes.
const RoleAdmin = "admin"

// Context identifies the caller of a request. The zero value is anonymous.
type Context struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// FromClaims builds the caller identity carried by a verified token.
func FromClaims(claims *Claims) (Context, error) {
	if claims == nil {
		return Context{}, ErrNotAuthenticated
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Context{}, fmt.Errorf("%w: invalid subject", ErrNotAuthenticated)
	}
	return Context{UserID: id, Email: claims.Email, Role: claims.Role}, nil
}

// Require returns the caller id, or ErrNotAuthenticated for anonymous callers.
func (c Context) Require() (uuid.UUID, error) {
	if c.UserID == uuid.Nil {
		return uuid.Nil, ErrNotAuthenticated
	}
	return c.UserID, nil
}

func (c Context) IsAdmin() bool {
	return c.Role == RoleAdmin
}
