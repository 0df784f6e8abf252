package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserCredits is a user's discovery credit balance.
type UserCredits struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int       `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}
