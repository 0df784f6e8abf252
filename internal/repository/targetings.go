package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/prospecting-crm/api/internal/entity"
)

const targetingsTable = "targetings"

var targetingColumns = []string{
	"id", "user_id", "name", "departments", "sectors",
	"min_headcount", "max_headcount", "min_revenue", "max_revenue",
	"is_active", "created_at", "updated_at",
}

// TargetingsRepository describes persistence operations for targetings.
type TargetingsRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]entity.Targeting, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*entity.Targeting, error)
	Active(ctx context.Context, userID uuid.UUID) (*entity.Targeting, error)
	Create(ctx context.Context, t entity.Targeting) (*entity.Targeting, error)
	Update(ctx context.Context, t entity.Targeting) (*entity.Targeting, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Activate(ctx context.Context, userID, id uuid.UUID) error
	Deactivate(ctx context.Context, userID uuid.UUID) error
	CountActiveByUser(ctx context.Context) (map[uuid.UUID]int, error)
}

// PGXTargetingsRepository implements TargetingsRepository with pgx.
type PGXTargetingsRepository struct {
	pool pgxPool
}

// NewPGXTargetingsRepository instantiates a targetings repository.
func NewPGXTargetingsRepository(pool *pgxpool.Pool) *PGXTargetingsRepository {
	return &PGXTargetingsRepository{pool: pool}
}

func (r *PGXTargetingsRepository) selectWhere(ctx context.Context, where []Condition, limit int) ([]entity.Targeting, error) {
	rows, err := NewRowStore(r.pool).Select(ctx, targetingsTable, Query{
		Columns: targetingColumns,
		Where:   where,
		Order:   []Order{{Column: "created_at"}},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("select targetings: %w", err)
	}
	return collect(rows, scanTargeting)
}

// List returns every targeting of the user, oldest first.
func (r *PGXTargetingsRepository) List(ctx context.Context, userID uuid.UUID) ([]entity.Targeting, error) {
	return r.selectWhere(ctx, []Condition{Eq("user_id", userID)}, 0)
}

// Get fetches one targeting scoped to its owner.
func (r *PGXTargetingsRepository) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Targeting, error) {
	items, err := r.selectWhere(ctx, []Condition{Eq("user_id", userID), Eq("id", id)}, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// Active returns the user's active targeting or ErrNotFound when none is active.
func (r *PGXTargetingsRepository) Active(ctx context.Context, userID uuid.UUID) (*entity.Targeting, error) {
	items, err := r.selectWhere(ctx, []Condition{Eq("user_id", userID), Eq("is_active", true)}, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// Create inserts a new, inactive targeting.
func (r *PGXTargetingsRepository) Create(ctx context.Context, t entity.Targeting) (*entity.Targeting, error) {
	rows, err := NewRowStore(r.pool).Insert(ctx, targetingsTable,
		[]string{"user_id", "name", "departments", "sectors", "min_headcount", "max_headcount", "min_revenue", "max_revenue"},
		[][]any{{
			t.UserID,
			t.Name,
			stringSliceOrEmpty(t.Departments),
			stringSliceOrEmpty(t.Sectors),
			int64OrNil(t.MinHeadcount),
			int64OrNil(t.MaxHeadcount),
			int64OrNil(t.MinRevenue),
			int64OrNil(t.MaxRevenue),
		}},
		targetingColumns,
	)
	if err != nil {
		return nil, fmt.Errorf("create targeting: %w", err)
	}
	return first(rows, scanTargeting)
}

// Update overwrites the criteria of a targeting. Activation is left untouched.
func (r *PGXTargetingsRepository) Update(ctx context.Context, t entity.Targeting) (*entity.Targeting, error) {
	affected, err := NewRowStore(r.pool).Update(ctx, targetingsTable,
		[]Assignment{
			Set("name", t.Name),
			Set("departments", stringSliceOrEmpty(t.Departments)),
			Set("sectors", stringSliceOrEmpty(t.Sectors)),
			Set("min_headcount", int64OrNil(t.MinHeadcount)),
			Set("max_headcount", int64OrNil(t.MaxHeadcount)),
			Set("min_revenue", int64OrNil(t.MinRevenue)),
			Set("max_revenue", int64OrNil(t.MaxRevenue)),
			Set("updated_at", now()),
		},
		[]Condition{Eq("user_id", t.UserID), Eq("id", t.ID)},
	)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, t.UserID, t.ID)
}

// Delete removes a targeting.
func (r *PGXTargetingsRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	affected, err := NewRowStore(r.pool).Delete(ctx, targetingsTable, []Condition{Eq("user_id", userID), Eq("id", id)})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// activateSQL flips every targeting of the user in one statement, so there is
// no window where zero or two targetings are active.
const activateSQL = `
        UPDATE targetings
        SET is_active = (id = $2), updated_at = NOW()
        WHERE user_id = $1
          AND EXISTS (SELECT 1 FROM targetings WHERE user_id = $1 AND id = $2)
    `

// Activate makes id the only active targeting of the user.
func (r *PGXTargetingsRepository) Activate(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, activateSQL, userID, id)
	if err != nil {
		return fmt.Errorf("activate targeting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate clears the user's active targeting.
func (r *PGXTargetingsRepository) Deactivate(ctx context.Context, userID uuid.UUID) error {
	_, err := NewRowStore(r.pool).Update(ctx, targetingsTable,
		[]Assignment{Set("is_active", false), Set("updated_at", now())},
		[]Condition{Eq("user_id", userID), Eq("is_active", true)},
	)
	return err
}

// CountActiveByUser reports, for every user owning at least one targeting, how
// many of them are active.
func (r *PGXTargetingsRepository) CountActiveByUser(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT user_id, COUNT(*) FILTER (WHERE is_active)
        FROM targetings
        GROUP BY user_id
    `)
	if err != nil {
		return nil, fmt.Errorf("count active targetings: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			userID uuid.UUID
			active int
		)
		if err := rows.Scan(&userID, &active); err != nil {
			return nil, fmt.Errorf("scan targeting count: %w", err)
		}
		counts[userID] = active
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate targeting counts: %w", err)
	}
	return counts, nil
}

func scanTargeting(row pgx.Row) (entity.Targeting, error) {
	var t entity.Targeting
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.Departments,
		&t.Sectors,
		&t.MinHeadcount,
		&t.MaxHeadcount,
		&t.MinRevenue,
		&t.MaxRevenue,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return t, fmt.Errorf("scan targeting: %w", err)
	}
	if t.Departments == nil {
		t.Departments = []string{}
	}
	if t.Sectors == nil {
		t.Sectors = []string{}
	}
	return t, nil
}
