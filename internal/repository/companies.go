package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/prospecting-crm/api/internal/entity"
)

const companiesTable = "companies"

var companyColumns = []string{
	"id", "user_id", "name", "sector", "department", "headcount", "annual_revenue",
	"website", "linkedin", "address", "siret", "naf",
	"is_hidden", "is_discovered", "summary", "created_at", "updated_at",
}

// CompaniesRepository describes persistence operations for companies.
type CompaniesRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Company, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*entity.Company, error)
	SetHidden(ctx context.Context, userID, id uuid.UUID, hidden bool) error
	SetSummary(ctx context.Context, userID, id uuid.UUID, summary *string) error
	BulkUpsertCompanies(ctx context.Context, userID uuid.UUID, records []BulkUpsertCompanyInput) (BulkUpsertResult, error)
}

// BulkUpsertCompanyInput represents the fields accepted by CSV ingestion.
type BulkUpsertCompanyInput struct {
	Name          string
	Sector        string
	Department    string
	Headcount     int64
	AnnualRevenue int64
	Website       *string
	LinkedIn      *string
	Address       *string
	RegistryID    *string
	IndustryCode  *string
}

// BulkUpsertResult summarises the number of rows inserted or updated.
type BulkUpsertResult struct {
	Inserted int
	Updated  int
	Total    int
}

// PGXCompaniesRepository implements CompaniesRepository using pgx.
type PGXCompaniesRepository struct {
	pool pgxPool
}

// NewPGXCompaniesRepository wires a pgx backed repository.
func NewPGXCompaniesRepository(pool *pgxpool.Pool) *PGXCompaniesRepository {
	return &PGXCompaniesRepository{pool: pool}
}

var _ pgxPool = (*pgxpool.Pool)(nil)

var now = func() time.Time { return time.Now().UTC() }

// ListByUser returns every company owned by userID, hidden ones included.
func (r *PGXCompaniesRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Company, error) {
	rows, err := NewRowStore(r.pool).Select(ctx, companiesTable, Query{
		Columns: companyColumns,
		Where:   []Condition{Eq("user_id", userID)},
		Order:   []Order{{Column: "created_at", Desc: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return collect(rows, scanCompany)
}

// Get fetches a single company scoped to its owner.
func (r *PGXCompaniesRepository) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Company, error) {
	rows, err := NewRowStore(r.pool).Select(ctx, companiesTable, Query{
		Columns: companyColumns,
		Where:   []Condition{Eq("user_id", userID), Eq("id", id)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return first(rows, scanCompany)
}

// SetHidden records a NO GO (hidden) or reverts it.
func (r *PGXCompaniesRepository) SetHidden(ctx context.Context, userID, id uuid.UUID, hidden bool) error {
	return r.patch(ctx, userID, id, Set("is_hidden", hidden))
}

// SetSummary replaces the free-text summary. A nil summary clears it.
func (r *PGXCompaniesRepository) SetSummary(ctx context.Context, userID, id uuid.UUID, summary *string) error {
	return r.patch(ctx, userID, id, Set("summary", stringOrNil(summary)))
}

func (r *PGXCompaniesRepository) patch(ctx context.Context, userID, id uuid.UUID, set Assignment) error {
	affected, err := NewRowStore(r.pool).Update(ctx, companiesTable,
		[]Assignment{set, Set("updated_at", now())},
		[]Condition{Eq("user_id", userID), Eq("id", id)},
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompanyDiscovery is the unlock written when a user pays to reveal a company.
func CompanyDiscovery(userID, id uuid.UUID) Unlock {
	return Unlock{
		Table: companiesTable,
		Patch: []Assignment{Set("is_discovered", true), Set("updated_at", now())},
		Where: []Condition{Eq("user_id", userID), Eq("id", id)},
	}
}

const bulkUpsertSQL = `
        INSERT INTO companies (user_id, name, sector, department, headcount, annual_revenue, website, linkedin, address, siret, naf, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
        ON CONFLICT (user_id, name, department) DO UPDATE SET
            sector = EXCLUDED.sector,
            headcount = EXCLUDED.headcount,
            annual_revenue = EXCLUDED.annual_revenue,
            website = COALESCE(EXCLUDED.website, companies.website),
            linkedin = COALESCE(EXCLUDED.linkedin, companies.linkedin),
            address = COALESCE(EXCLUDED.address, companies.address),
            siret = COALESCE(EXCLUDED.siret, companies.siret),
            naf = COALESCE(EXCLUDED.naf, companies.naf),
            updated_at = NOW()
        RETURNING xmax = 0;
    `

// BulkUpsertCompanies persists a batch of companies for userID with idempotent semantics.
func (r *PGXCompaniesRepository) BulkUpsertCompanies(ctx context.Context, userID uuid.UUID, records []BulkUpsertCompanyInput) (BulkUpsertResult, error) {
	var result BulkUpsertResult
	if len(records) == 0 {
		return result, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start bulk upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, record := range records {
		var inserted bool
		err := tx.QueryRow(ctx, bulkUpsertSQL,
			userID,
			record.Name,
			record.Sector,
			record.Department,
			record.Headcount,
			record.AnnualRevenue,
			stringOrNil(record.Website),
			stringOrNil(record.LinkedIn),
			stringOrNil(record.Address),
			stringOrNil(record.RegistryID),
			stringOrNil(record.IndustryCode),
		).Scan(&inserted)
		if err != nil {
			return result, fmt.Errorf("bulk upsert company %q: %w", record.Name, err)
		}

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit bulk upsert tx: %w", err)
	}

	return result, nil
}

func scanCompany(row pgx.Row) (entity.Company, error) {
	var (
		c        entity.Company
		website  sql.NullString
		linkedin sql.NullString
		address  sql.NullString
		siret    sql.NullString
		naf      sql.NullString
		summary  sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Sector,
		&c.Department,
		&c.Headcount,
		&c.AnnualRevenue,
		&website,
		&linkedin,
		&address,
		&siret,
		&naf,
		&c.IsHidden,
		&c.IsDiscovered,
		&summary,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return c, fmt.Errorf("scan company: %w", err)
	}
	c.Website = nullStringToPtr(website)
	c.LinkedIn = nullStringToPtr(linkedin)
	c.Address = nullStringToPtr(address)
	c.RegistryID = nullStringToPtr(siret)
	c.IndustryCode = nullStringToPtr(naf)
	c.Summary = nullStringToPtr(summary)
	return c, nil
}

func nullStringToPtr(value sql.NullString) *string {
	if value.Valid {
		val := value.String
		return &val
	}
	return nil
}

func stringOrNil(value *string) any {
	if value == nil {
		return nil
	}
	if *value == "" {
		return nil
	}
	return *value
}

func int64OrNil(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func stringSliceOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
