package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/repository"
)

// ReasonInsufficientCredits is the failure reason of a refused spend.
const ReasonInsufficientCredits = "insufficient_credits"

// DefaultDiscoveryCost is the price of revealing a company or a contact field.
const DefaultDiscoveryCost = 8

// SpendResult is the outcome of a spend. A refused spend is not an error and
// carries no NewBalance.
type SpendResult struct {
	OK         bool   `json:"ok"`
	NewBalance *int   `json:"new_balance,omitempty"`
	Balance    int    `json:"balance"`
	Reason     string `json:"reason,omitempty"`
}

// CreditLedger gates paid discovery actions on the caller's balance.
type CreditLedger struct {
	repo          repository.CreditsRepository
	discoveryCost int
	starting      int
}

// NewCreditLedger builds a ledger. Non-positive costs fall back to DefaultDiscoveryCost.
func NewCreditLedger(repo repository.CreditsRepository, discoveryCost, startingCredits int) *CreditLedger {
	if discoveryCost <= 0 {
		discoveryCost = DefaultDiscoveryCost
	}
	if startingCredits < 0 {
		startingCredits = 0
	}
	return &CreditLedger{repo: repo, discoveryCost: discoveryCost, starting: startingCredits}
}

// DiscoveryCost is the fixed price of one discovery.
func (l *CreditLedger) DiscoveryCost() int {
	return l.discoveryCost
}

// Balance returns the caller's current balance.
func (l *CreditLedger) Balance(ctx context.Context, actx auth.Context) (int, error) {
	userID, err := actx.Require()
	if err != nil {
		return 0, err
	}
	return l.repo.Balance(ctx, userID)
}

// Spend debits amount from the caller without any gated side effect.
func (l *CreditLedger) Spend(ctx context.Context, actx auth.Context, amount int) (SpendResult, error) {
	return l.SpendFor(ctx, actx, amount, nil)
}

// SpendFor debits amount and applies unlock in the same transaction. When the
// balance is too low nothing is written and the result carries the current balance.
func (l *CreditLedger) SpendFor(ctx context.Context, actx auth.Context, amount int, unlock *repository.Unlock) (SpendResult, error) {
	userID, err := actx.Require()
	if err != nil {
		return SpendResult{}, err
	}
	if amount <= 0 {
		return SpendResult{}, invalid("amount must be positive")
	}

	balance, err := l.repo.Spend(ctx, userID, amount, unlock)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return SpendResult{OK: false, Balance: balance, Reason: ReasonInsufficientCredits}, nil
		}
		return SpendResult{}, err
	}
	return SpendResult{OK: true, NewBalance: &balance, Balance: balance}, nil
}

// Grant adds amount to a user's balance and returns the new balance.
func (l *CreditLedger) Grant(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if userID == uuid.Nil {
		return 0, invalid("user id is required")
	}
	if amount <= 0 {
		return 0, invalid("amount must be positive")
	}
	balance, err := l.repo.Grant(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("grant credits: %w", err)
	}
	return balance, nil
}

// Open creates the balance of a new account with the starting credits.
func (l *CreditLedger) Open(ctx context.Context, userID uuid.UUID) error {
	return l.repo.Ensure(ctx, userID, l.starting)
}

// spendDiscovery charges one discovery and turns a refusal into InsufficientCreditsError.
func (l *CreditLedger) spendDiscovery(ctx context.Context, actx auth.Context, unlock repository.Unlock) (SpendResult, error) {
	result, err := l.SpendFor(ctx, actx, l.discoveryCost, &unlock)
	if err != nil {
		return result, err
	}
	if !result.OK {
		return result, &InsufficientCreditsError{Balance: result.Balance, Required: l.discoveryCost}
	}
	return result, nil
}
