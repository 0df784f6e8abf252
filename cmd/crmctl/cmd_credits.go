package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/octobees/prospecting-crm/api/internal/repository"
	"github.com/octobees/prospecting-crm/api/internal/service"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Manage credit balances",
}

var creditsGrantCmd = &cobra.Command{
	Use:   "grant <user-id> <amount>",
	Short: "Add credits to a user's balance",
	Args:  cobra.ExactArgs(2),
	RunE:  runCreditsGrant,
}

func parseGrantArgs(args []string) (uuid.UUID, int, error) {
	userID, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("invalid user id %q", args[0])
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil || amount <= 0 {
		return uuid.Nil, 0, fmt.Errorf("amount must be a positive integer, got %q", args[1])
	}
	return userID, amount, nil
}

func runCreditsGrant(cmd *cobra.Command, args []string) error {
	userID, amount, err := parseGrantArgs(args)
	if err != nil {
		return err
	}
	return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
		ledger := service.NewCreditLedger(repository.NewPGXCreditsRepository(pool), cfg.DiscoveryCost, cfg.StartingCredits)
		balance, err := ledger.Grant(ctx, userID, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "granted %d credits to %s, balance %d\n", amount, userID, balance)
		return nil
	})
}
