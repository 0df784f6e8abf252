package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/prospecting-crm/api/internal/entity"
)

const personasTable = "personas"

var personaColumns = []string{"id", "user_id", "name", "service", "decision_level", "position", "created_at"}

// PersonasRepository describes persistence operations for contact personas.
type PersonasRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]entity.Persona, error)
	Create(ctx context.Context, persona entity.Persona) (*entity.Persona, error)
	Update(ctx context.Context, persona entity.Persona) (*entity.Persona, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// PGXPersonasRepository implements PersonasRepository with pgx.
type PGXPersonasRepository struct {
	pool pgxPool
}

// NewPGXPersonasRepository instantiates a personas repository.
func NewPGXPersonasRepository(pool *pgxpool.Pool) *PGXPersonasRepository {
	return &PGXPersonasRepository{pool: pool}
}

// List returns the user's personas in cascade order.
func (r *PGXPersonasRepository) List(ctx context.Context, userID uuid.UUID) ([]entity.Persona, error) {
	rows, err := NewRowStore(r.pool).Select(ctx, personasTable, Query{
		Columns: personaColumns,
		Where:   []Condition{Eq("user_id", userID)},
		Order:   []Order{{Column: "position"}, {Column: "created_at"}},
	})
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	return collect(rows, scanPersona)
}

// Create inserts a persona.
func (r *PGXPersonasRepository) Create(ctx context.Context, p entity.Persona) (*entity.Persona, error) {
	rows, err := NewRowStore(r.pool).Insert(ctx, personasTable,
		[]string{"user_id", "name", "service", "decision_level", "position"},
		[][]any{{p.UserID, p.Name, p.Service, p.DecisionLevel, p.Position}},
		personaColumns,
	)
	if err != nil {
		return nil, fmt.Errorf("create persona: %w", err)
	}
	return first(rows, scanPersona)
}

// Update overwrites the editable persona fields.
func (r *PGXPersonasRepository) Update(ctx context.Context, p entity.Persona) (*entity.Persona, error) {
	store := NewRowStore(r.pool)
	affected, err := store.Update(ctx, personasTable,
		[]Assignment{
			Set("name", p.Name),
			Set("service", p.Service),
			Set("decision_level", p.DecisionLevel),
			Set("position", p.Position),
		},
		[]Condition{Eq("user_id", p.UserID), Eq("id", p.ID)},
	)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	rows, err := store.Select(ctx, personasTable, Query{
		Columns: personaColumns,
		Where:   []Condition{Eq("user_id", p.UserID), Eq("id", p.ID)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("reload persona: %w", err)
	}
	return first(rows, scanPersona)
}

// Delete removes a persona. Contacts keep the rank they were generated with.
func (r *PGXPersonasRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	affected, err := NewRowStore(r.pool).Delete(ctx, personasTable, []Condition{Eq("user_id", userID), Eq("id", id)})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPersona(row pgx.Row) (entity.Persona, error) {
	var (
		p        entity.Persona
		position int32
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Service, &p.DecisionLevel, &position, &p.CreatedAt); err != nil {
		return p, fmt.Errorf("scan persona: %w", err)
	}
	p.Position = int(position)
	return p, nil
}
