package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/status"
)

const contactsTable = "lead_contacts"

var contactColumns = []string{
	"id", "user_id", "lead_id", "full_name", "role", "email", "phone", "linkedin",
	"status", "note", "follow_up_date", "persona_position",
	"is_email_discovered", "is_phone_discovered", "created_at", "updated_at",
}

var contactInsertColumns = []string{
	"user_id", "lead_id", "full_name", "role", "email", "phone", "linkedin", "status", "persona_position",
}

// ContactPatch holds the user-editable contact fields. Nil fields are left untouched.
type ContactPatch struct {
	Status        *status.Status
	Note          *string
	FollowUpDate  *time.Time
	ClearFollowUp bool
}

// ContactsRepository describes persistence operations for lead contacts.
type ContactsRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Contact, error)
	ListByLead(ctx context.Context, userID, leadID uuid.UUID) ([]entity.Contact, error)
	ListByLeads(ctx context.Context, userID uuid.UUID, leadIDs []uuid.UUID) ([]entity.Contact, error)
	ListFollowUps(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.Contact, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*entity.Contact, error)
	InsertMany(ctx context.Context, contacts []entity.Contact) ([]entity.Contact, error)
	Update(ctx context.Context, userID, id uuid.UUID, patch ContactPatch) (*entity.Contact, error)
}

// PGXContactsRepository implements ContactsRepository with pgx.
type PGXContactsRepository struct {
	pool pgxPool
}

// NewPGXContactsRepository instantiates a contacts repository.
func NewPGXContactsRepository(pool *pgxpool.Pool) *PGXContactsRepository {
	return &PGXContactsRepository{pool: pool}
}

func (r *PGXContactsRepository) list(ctx context.Context, where []Condition, order []Order) ([]entity.Contact, error) {
	rows, err := NewRowStore(r.pool).Select(ctx, contactsTable, Query{
		Columns: contactColumns,
		Where:   where,
		Order:   order,
	})
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return collect(rows, scanContact)
}

var contactOrder = []Order{{Column: "persona_position"}, {Column: "created_at"}}

// ListByUser returns every contact the user owns.
func (r *PGXContactsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Contact, error) {
	return r.list(ctx, []Condition{Eq("user_id", userID)}, contactOrder)
}

// ListByLead returns the contacts of one lead ordered by persona rank.
func (r *PGXContactsRepository) ListByLead(ctx context.Context, userID, leadID uuid.UUID) ([]entity.Contact, error) {
	return r.list(ctx, []Condition{Eq("user_id", userID), Eq("lead_id", leadID)}, contactOrder)
}

// ListByLeads returns the contacts of several leads at once.
func (r *PGXContactsRepository) ListByLeads(ctx context.Context, userID uuid.UUID, leadIDs []uuid.UUID) ([]entity.Contact, error) {
	if len(leadIDs) == 0 {
		return []entity.Contact{}, nil
	}
	return r.list(ctx, []Condition{Eq("user_id", userID), In("lead_id", leadIDs)}, contactOrder)
}

// ListFollowUps returns contacts with a follow-up date in [from, to], earliest first.
func (r *PGXContactsRepository) ListFollowUps(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.Contact, error) {
	return r.list(ctx, []Condition{
		Eq("user_id", userID),
		IsNull("follow_up_date", false),
		Gte("follow_up_date", from),
		Lte("follow_up_date", to),
	}, []Order{{Column: "follow_up_date"}, {Column: "full_name"}})
}

// Get fetches a contact scoped to its owner.
func (r *PGXContactsRepository) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Contact, error) {
	rows, err := NewRowStore(r.pool).Select(ctx, contactsTable, Query{
		Columns: contactColumns,
		Where:   []Condition{Eq("user_id", userID), Eq("id", id)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return first(rows, scanContact)
}

// InsertMany bulk inserts generated contacts and returns them with their ids.
// Every contact must carry a status.
func (r *PGXContactsRepository) InsertMany(ctx context.Context, contacts []entity.Contact) ([]entity.Contact, error) {
	if len(contacts) == 0 {
		return []entity.Contact{}, nil
	}
	values := make([][]any, 0, len(contacts))
	for _, c := range contacts {
		if c.Status == "" {
			return nil, fmt.Errorf("insert contact %q: status is required", c.FullName)
		}
		var position any
		if c.PersonaPosition != nil {
			position = *c.PersonaPosition
		}
		values = append(values, []any{
			c.UserID,
			c.LeadID,
			c.FullName,
			stringOrNil(c.Role),
			stringOrNil(c.Email),
			stringOrNil(c.Phone),
			stringOrNil(c.LinkedIn),
			string(c.Status),
			position,
		})
	}
	rows, err := NewRowStore(r.pool).Insert(ctx, contactsTable, contactInsertColumns, values, contactColumns)
	if err != nil {
		return nil, fmt.Errorf("insert contacts: %w", err)
	}
	return collect(rows, scanContact)
}

// Update applies patch and returns the stored contact.
func (r *PGXContactsRepository) Update(ctx context.Context, userID, id uuid.UUID, patch ContactPatch) (*entity.Contact, error) {
	var sets []Assignment
	if patch.Status != nil {
		sets = append(sets, Set("status", string(*patch.Status)))
	}
	if patch.Note != nil {
		sets = append(sets, Set("note", stringOrNil(patch.Note)))
	}
	switch {
	case patch.ClearFollowUp:
		sets = append(sets, Set("follow_up_date", nil))
	case patch.FollowUpDate != nil:
		sets = append(sets, Set("follow_up_date", *patch.FollowUpDate))
	}
	if len(sets) == 0 {
		return r.Get(ctx, userID, id)
	}
	sets = append(sets, Set("updated_at", now()))

	affected, err := NewRowStore(r.pool).Update(ctx, contactsTable, sets,
		[]Condition{Eq("user_id", userID), Eq("id", id)})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, userID, id)
}

// ContactDiscovery is the unlock written when a user pays to reveal a contact field.
// Discovery flags are only ever set, never cleared.
func ContactDiscovery(userID, id uuid.UUID, field entity.ContactField) (Unlock, error) {
	var column string
	switch field {
	case entity.ContactEmail:
		column = "is_email_discovered"
	case entity.ContactPhone:
		column = "is_phone_discovered"
	default:
		return Unlock{}, fmt.Errorf("unknown contact field %q", field)
	}
	return Unlock{
		Table: contactsTable,
		Patch: []Assignment{Set(column, true), Set("updated_at", now())},
		Where: []Condition{Eq("user_id", userID), Eq("id", id)},
	}, nil
}

func scanContact(row pgx.Row) (entity.Contact, error) {
	var (
		c        entity.Contact
		st       string
		position *int32
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.LeadID,
		&c.FullName,
		&c.Role,
		&c.Email,
		&c.Phone,
		&c.LinkedIn,
		&st,
		&c.Note,
		&c.FollowUpDate,
		&position,
		&c.IsEmailDiscovered,
		&c.IsPhoneDiscovered,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return c, fmt.Errorf("scan contact: %w", err)
	}
	c.Status = status.Status(st)
	if position != nil {
		p := int(*position)
		c.PersonaPosition = &p
	}
	return c, nil
}
