package entity

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a company promoted into a user's pipeline. Descriptive fields are
// copied from the company when the lead is created and are not kept in sync.
type Lead struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	CompanyID     uuid.UUID `json:"company_id"`
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
	Status        string    `json:"status"`
	IsHotSignal   bool      `json:"is_hot_signal"`
	SignalSummary *string   `json:"signal_summary,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LeadFromCompany copies the descriptive fields of c into a new lead.
func LeadFromCompany(c Company) Lead {
	return Lead{
		UserID:        c.UserID,
		CompanyID:     c.ID,
		Name:          c.Name,
		Sector:        c.Sector,
		Department:    c.Department,
		Headcount:     c.Headcount,
		AnnualRevenue: c.AnnualRevenue,
		Website:       c.Website,
		LinkedIn:      c.LinkedIn,
		Address:       c.Address,
		RegistryID:    c.RegistryID,
		IndustryCode:  c.IndustryCode,
	}
}
