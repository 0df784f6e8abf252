package entity

import (
	"time"

	"github.com/google/uuid"
)

// Company represents a business in a user's catalogue.
type Company struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Sector        string    `json:"sector"`
	Department    string    `json:"department"`
	Headcount     int64     `json:"headcount"`
	AnnualRevenue int64     `json:"annual_revenue"`
	Website       *string   `json:"website,omitempty"`
	LinkedIn      *string   `json:"linkedin,omitempty"`
	Address       *string   `json:"address,omitempty"`
	RegistryID    *string   `json:"siret,omitempty"`
	IndustryCode  *string   `json:"naf,omitempty"`
	IsHidden      bool      `json:"is_hidden"`
	IsDiscovered  bool      `json:"is_discovered"`
	Summary       *string   `json:"summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
