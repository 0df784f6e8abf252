package entity

import (
	"time"

	"github.com/google/uuid"
)

// Persona is a contact-generation rule. Lower positions are consulted first.
type Persona struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Service       string    `json:"service"`
	DecisionLevel string    `json:"decision_level"`
	Position      int       `json:"position"`
	CreatedAt     time.Time `json:"created_at"`
}
