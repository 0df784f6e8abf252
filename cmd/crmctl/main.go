// Command crmctl runs maintenance tasks against the prospecting database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/octobees/prospecting-crm/api/internal/config"
	"github.com/octobees/prospecting-crm/api/internal/database"
)

var (
	cfg     *config.Config
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "crmctl",
	Short:         "Maintenance commands for the prospecting CRM",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)

	creditsCmd.AddCommand(creditsGrantCmd)

	targetingsCheckCmd.Flags().BoolVar(&repair, "repair", false, "Deactivate every targeting of users with several active ones")
	targetingsCmd.AddCommand(targetingsCheckCmd)

	statusCmd.AddCommand(statusShowCmd)

	rootCmd.AddCommand(migrateCmd, creditsCmd, targetingsCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withPool runs fn with a connected pool bounded by the --timeout flag.
func withPool(cmd *cobra.Command, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}
