package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/repository"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 8

// AuthService coordinates credential validation and token issuance.
type AuthService struct {
	users  repository.UsersRepository
	jwt    *auth.JWTManager
	ledger *CreditLedger
}

// NewAuthService constructs a new AuthService. New accounts get their starting
// credits from ledger.
func NewAuthService(users repository.UsersRepository, jwtManager *auth.JWTManager, ledger *CreditLedger) *AuthService {
	return &AuthService{users: users, jwt: jwtManager, ledger: ledger}
}

// Login validates credentials and returns a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", invalid("email and password must not be empty")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.jwt.GenerateToken(user.ID.String(), user.Email, user.Role)
}

// Register creates a user account and returns a JWT for it.
func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", invalid("email and password must not be empty")
	}
	if !emailPattern.MatchString(email) {
		return "", invalid("email is not valid")
	}
	if len(password) < minPasswordLength {
		return "", invalid("password must be at least %d characters", minPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user, err := s.users.Create(ctx, email, string(hashed), RoleUser)
	if err != nil {
		if errors.Is(err, repository.ErrEmailDuplicate) {
			return "", ErrEmailAlreadyExists
		}
		return "", err
	}
	if s.ledger != nil {
		if err := s.ledger.Open(ctx, user.ID); err != nil {
			return "", err
		}
	}

	return s.jwt.GenerateToken(user.ID.String(), user.Email, user.Role)
}
