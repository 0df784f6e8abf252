package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/prospecting-crm/api/internal/entity"
)

// ErrUserNotFound is returned when no user matches the lookup criteria.
// ErrEmailDuplicate is returned when the email is already registered.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailDuplicate = errors.New("email already exists")
)

const usersTable = "users"

var userColumns = []string{"id", "email", "password_hash", "role", "created_at", "updated_at"}

// UsersRepository declares account operations for users.
type UsersRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Create(ctx context.Context, email, passwordHash, role string) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PGXUsersRepository implements UsersRepository with pgx.
type PGXUsersRepository struct {
	pool pgxPool
}

// NewPGXUsersRepository instantiates a users repository.
func NewPGXUsersRepository(pool *pgxpool.Pool) *PGXUsersRepository {
	return &PGXUsersRepository{pool: pool}
}

func (r *PGXUsersRepository) findOne(ctx context.Context, cond Condition) (*entity.User, error) {
	rows, err := NewRowStore(r.pool).Select(ctx, usersTable, Query{
		Columns: userColumns,
		Where:   []Condition{cond},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("query user by %s: %w", cond.Column, err)
	}
	user, err := first(rows, scanUser)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// FindByEmail fetches a user by email if present.
func (r *PGXUsersRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, Eq("email", email))
}

// FindByID retrieves a user by identifier.
func (r *PGXUsersRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, Eq("id", id))
}

// Create inserts a new user row.
func (r *PGXUsersRepository) Create(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
	rows, err := NewRowStore(r.pool).Insert(ctx, usersTable,
		[]string{"email", "password_hash", "role"},
		[][]any{{email, passwordHash, role}},
		userColumns,
	)
	if err != nil {
		return nil, mapUserWriteError("insert user", err)
	}
	user, err := first(rows, scanUser)
	if err != nil {
		return nil, mapUserWriteError("insert user", err)
	}
	return user, nil
}

// List returns all users ordered by creation date (desc).
func (r *PGXUsersRepository) List(ctx context.Context) ([]entity.User, error) {
	rows, err := NewRowStore(r.pool).Select(ctx, usersTable, Query{
		Columns: userColumns,
		Order:   []Order{{Column: "created_at", Desc: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return collect(rows, scanUser)
}

// Update patches user attributes.
func (r *PGXUsersRepository) Update(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error) {
	var sets []Assignment
	if email != nil {
		sets = append(sets, Set("email", *email))
	}
	if passwordHash != nil {
		sets = append(sets, Set("password_hash", *passwordHash))
	}
	if role != nil {
		sets = append(sets, Set("role", *role))
	}
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}
	sets = append(sets, Set("updated_at", now()))

	affected, err := NewRowStore(r.pool).Update(ctx, usersTable, sets, []Condition{Eq("id", id)})
	if err != nil {
		return nil, mapUserWriteError("update user", err)
	}
	if affected == 0 {
		return nil, ErrUserNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes a user by id.
func (r *PGXUsersRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := NewRowStore(r.pool).Delete(ctx, usersTable, []Condition{Eq("id", id)})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func mapUserWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "users_email_key" {
		return fmt.Errorf("%w: %v", ErrEmailDuplicate, pgErr)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanUser(row pgx.Row) (entity.User, error) {
	var user entity.User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return user, fmt.Errorf("scan user row: %w", err)
	}
	return user, nil
}
