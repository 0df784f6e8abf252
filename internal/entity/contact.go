package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/octobees/prospecting-crm/api/internal/status"
)

// Contact is a person attached to exactly one lead.
type Contact struct {
	ID                uuid.UUID     `json:"id"`
	UserID            uuid.UUID     `json:"user_id"`
	LeadID            uuid.UUID     `json:"lead_id"`
	FullName          string        `json:"full_name"`
	Role              *string       `json:"role,omitempty"`
	Email             *string       `json:"email,omitempty"`
	Phone             *string       `json:"phone,omitempty"`
	LinkedIn          *string       `json:"linkedin,omitempty"`
	Status            status.Status `json:"status"`
	Note              *string       `json:"note,omitempty"`
	FollowUpDate      *time.Time    `json:"follow_up_date,omitempty"`
	PersonaPosition   *int          `json:"persona_position,omitempty"`
	IsEmailDiscovered bool          `json:"is_email_discovered"`
	IsPhoneDiscovered bool          `json:"is_phone_discovered"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ContactField names a credit-gated contact field.
type ContactField string

const (
	ContactEmail ContactField = "email"
	ContactPhone ContactField = "phone"
)

// Discovered reports whether field has already been revealed.
func (c Contact) Discovered(field ContactField) bool {
	switch field {
	case ContactEmail:
		return c.IsEmailDiscovered
	case ContactPhone:
		return c.IsPhoneDiscovered
	default:
		return false
	}
}
