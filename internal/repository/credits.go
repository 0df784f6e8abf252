package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInsufficientCredits is returned by Spend when the balance cannot cover the amount.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Unlock is the write a paid discovery performs once the debit has succeeded.
// It runs in the same transaction as the debit.
type Unlock struct {
	Table string
	Patch []Assignment
	Where []Condition
}

// CreditsRepository persists per-user credit balances.
type CreditsRepository interface {
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	Spend(ctx context.Context, userID uuid.UUID, amount int, unlock *Unlock) (int, error)
	Grant(ctx context.Context, userID uuid.UUID, amount int) (int, error)
	Ensure(ctx context.Context, userID uuid.UUID, starting int) error
}

// PGXCreditsRepository implements CreditsRepository with pgx.
type PGXCreditsRepository struct {
	pool pgxPool
}

// NewPGXCreditsRepository instantiates a credits repository.
func NewPGXCreditsRepository(pool *pgxpool.Pool) *PGXCreditsRepository {
	return &PGXCreditsRepository{pool: pool}
}

const spendSQL = `
        UPDATE user_credits
        SET balance = balance - $1, updated_at = NOW()
        WHERE user_id = $2 AND balance >= $1
        RETURNING balance
    `

// Balance returns the current balance. Users without a ledger row have zero credits.
func (r *PGXCreditsRepository) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return balanceOf(ctx, r.pool, userID)
}

func balanceOf(ctx context.Context, db querier, userID uuid.UUID) (int, error) {
	var balance int
	err := db.QueryRow(ctx, `SELECT balance FROM user_credits WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("query credit balance: %w", err)
	}
	return balance, nil
}

// Spend debits amount and applies unlock atomically. When the balance is too
// low it returns the unchanged balance with ErrInsufficientCredits and writes nothing.
func (r *PGXCreditsRepository) Spend(ctx context.Context, userID uuid.UUID, amount int, unlock *Unlock) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("spend amount must be positive, got %d", amount)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("start spend tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int
	err = tx.QueryRow(ctx, spendSQL, amount, userID).Scan(&balance)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("debit credits: %w", err)
		}
		current, err := balanceOf(ctx, tx, userID)
		if err != nil {
			return 0, err
		}
		return current, ErrInsufficientCredits
	}

	if unlock != nil {
		affected, err := NewRowStore(tx).Update(ctx, unlock.Table, unlock.Patch, unlock.Where)
		if err != nil {
			return 0, fmt.Errorf("apply unlock: %w", err)
		}
		if affected == 0 {
			return 0, ErrNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit spend tx: %w", err)
	}
	return balance, nil
}

// Grant credits amount to userID, creating the ledger row when missing.
func (r *PGXCreditsRepository) Grant(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("grant amount must be positive, got %d", amount)
	}
	var balance int
	err := r.pool.QueryRow(ctx, `
        INSERT INTO user_credits (user_id, balance)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET
            balance = user_credits.balance + EXCLUDED.balance,
            updated_at = NOW()
        RETURNING balance
    `, userID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("grant credits: %w", err)
	}
	return balance, nil
}

// Ensure creates the ledger row with a starting balance unless it already exists.
func (r *PGXCreditsRepository) Ensure(ctx context.Context, userID uuid.UUID, starting int) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO user_credits (user_id, balance)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO NOTHING
    `, userID, starting)
	if err != nil {
		return fmt.Errorf("ensure credits row: %w", err)
	}
	return nil
}
