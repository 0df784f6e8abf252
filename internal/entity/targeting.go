package entity

import (
	"time"

	"github.com/google/uuid"
)

// Targeting is a saved company filter. At most one per user is active.
type Targeting struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Departments  []string  `json:"departments"`
	Sectors      []string  `json:"sectors"`
	MinHeadcount *int64    `json:"min_headcount,omitempty"`
	MaxHeadcount *int64    `json:"max_headcount,omitempty"`
	MinRevenue   *int64    `json:"min_revenue,omitempty"`
	MaxRevenue   *int64    `json:"max_revenue,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
