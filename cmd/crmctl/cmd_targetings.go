package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/octobees/prospecting-crm/api/internal/repository"
	"github.com/octobees/prospecting-crm/api/internal/service"
)

var repair bool

var targetingsCmd = &cobra.Command{
	Use:   "targetings",
	Short: "Inspect saved targetings",
}

var targetingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report users whose active targeting needs attention",
	Long: `Report users that own targetings but have none active, and users with
more than one active targeting. With --repair the latter are reset so the
user picks one again.`,
	RunE: runTargetingsCheck,
}

func runTargetingsCheck(cmd *cobra.Command, args []string) error {
	return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
		svc := service.NewTargetingsService(repository.NewPGXTargetingsRepository(pool))
		audit, err := svc.Audit(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		writeAudit(out, audit)

		if !repair || len(audit.Conflicting) == 0 {
			return nil
		}
		repaired, err := svc.Repair(ctx, audit)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reset %d user(s)\n", repaired)
		return nil
	})
}

func writeAudit(w io.Writer, audit service.TargetingAudit) {
	if len(audit.NeedsSelection) == 0 && len(audit.Conflicting) == 0 {
		fmt.Fprintln(w, "all targetings consistent")
		return
	}
	for _, id := range audit.NeedsSelection {
		fmt.Fprintf(w, "needs selection\t%s\n", id)
	}
	for _, id := range audit.Conflicting {
		fmt.Fprintf(w, "conflicting\t%s\n", id)
	}
}
