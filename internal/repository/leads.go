package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/prospecting-crm/api/internal/entity"
)

const leadsTable = "leads"

var leadColumns = []string{
	"id", "user_id", "company_id", "name", "sector", "department", "headcount", "annual_revenue",
	"website", "linkedin", "address", "siret", "naf",
	"status", "is_hot_signal", "signal_summary", "created_at", "updated_at",
}

// leadCopyColumns are written on GO. Status and signal columns survive repeated GOs.
var leadCopyColumns = []string{
	"user_id", "company_id", "name", "sector", "department", "headcount", "annual_revenue",
	"website", "linkedin", "address", "siret", "naf", "updated_at",
}

var leadConflictKey = []string{"user_id", "company_id"}

// LeadsRepository describes persistence operations for leads.
type LeadsRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Lead, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*entity.Lead, error)
	UpsertFromCompany(ctx context.Context, lead entity.Lead) (*entity.Lead, error)
	MarkSignal(ctx context.Context, lead entity.Lead, summary *string) (*entity.Lead, error)
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) (*entity.Lead, error)
	CountUndiscoveredSignals(ctx context.Context, userID uuid.UUID) (int, error)
}

// PGXLeadsRepository implements LeadsRepository with pgx.
type PGXLeadsRepository struct {
	pool pgxPool
}

// NewPGXLeadsRepository instantiates a leads repository.
func NewPGXLeadsRepository(pool *pgxpool.Pool) *PGXLeadsRepository {
	return &PGXLeadsRepository{pool: pool}
}

// ListByUser returns the user's pipeline, newest first.
func (r *PGXLeadsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Lead, error) {
	rows, err := NewRowStore(r.pool).Select(ctx, leadsTable, Query{
		Columns: leadColumns,
		Where:   []Condition{Eq("user_id", userID)},
		Order:   []Order{{Column: "created_at", Desc: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return collect(rows, scanLead)
}

// Get fetches a lead scoped to its owner.
func (r *PGXLeadsRepository) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Lead, error) {
	rows, err := NewRowStore(r.pool).Select(ctx, leadsTable, Query{
		Columns: leadColumns,
		Where:   []Condition{Eq("user_id", userID), Eq("id", id)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return first(rows, scanLead)
}

// UpsertFromCompany creates the lead for (user_id, company_id) or refreshes its
// copied company fields.
func (r *PGXLeadsRepository) UpsertFromCompany(ctx context.Context, lead entity.Lead) (*entity.Lead, error) {
	rows, err := NewRowStore(r.pool).Upsert(ctx, leadsTable, leadCopyColumns,
		[][]any{leadCopyValues(lead)}, leadConflictKey, leadColumns)
	if err != nil {
		return nil, fmt.Errorf("upsert lead: %w", err)
	}
	return first(rows, scanLead)
}

// MarkSignal flags the lead for lead.CompanyID as a hot signal, creating it when needed.
func (r *PGXLeadsRepository) MarkSignal(ctx context.Context, lead entity.Lead, summary *string) (*entity.Lead, error) {
	columns := append(append([]string{}, leadCopyColumns...), "is_hot_signal", "signal_summary")
	values := append(leadCopyValues(lead), true, stringOrNil(summary))
	rows, err := NewRowStore(r.pool).Upsert(ctx, leadsTable, columns, [][]any{values}, leadConflictKey, leadColumns)
	if err != nil {
		return nil, fmt.Errorf("mark lead signal: %w", err)
	}
	return first(rows, scanLead)
}

// UpdateStatus sets the lead's pipeline label.
func (r *PGXLeadsRepository) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) (*entity.Lead, error) {
	affected, err := NewRowStore(r.pool).Update(ctx, leadsTable,
		[]Assignment{Set("status", status), Set("updated_at", now())},
		[]Condition{Eq("user_id", userID), Eq("id", id)},
	)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, userID, id)
}

// CountUndiscoveredSignals counts hot-signal leads whose company is still blurred.
func (r *PGXLeadsRepository) CountUndiscoveredSignals(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM leads l
        JOIN companies c ON c.id = l.company_id AND c.user_id = l.user_id
        WHERE l.user_id = $1 AND l.is_hot_signal AND NOT c.is_discovered
    `, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count undiscovered signals: %w", err)
	}
	return count, nil
}

func leadCopyValues(l entity.Lead) []any {
	return []any{
		l.UserID,
		l.CompanyID,
		l.Name,
		l.Sector,
		l.Department,
		l.Headcount,
		l.AnnualRevenue,
		stringOrNil(l.Website),
		stringOrNil(l.LinkedIn),
		stringOrNil(l.Address),
		stringOrNil(l.RegistryID),
		stringOrNil(l.IndustryCode),
		now(),
	}
}

func scanLead(row pgx.Row) (entity.Lead, error) {
	var l entity.Lead
	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.CompanyID,
		&l.Name,
		&l.Sector,
		&l.Department,
		&l.Headcount,
		&l.AnnualRevenue,
		&l.Website,
		&l.LinkedIn,
		&l.Address,
		&l.RegistryID,
		&l.IndustryCode,
		&l.Status,
		&l.IsHotSignal,
		&l.SignalSummary,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return l, fmt.Errorf("scan lead: %w", err)
	}
	return l, nil
}
