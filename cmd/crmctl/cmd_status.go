package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/octobees/prospecting-crm/api/internal/status"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect the contact status ranking",
}

var statusShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the ranking loaded from STATUS_RANKING_FILE",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := status.Load(cfg.StatusRankingFile)
		if err != nil {
			return err
		}
		writeRanking(cmd.OutOrStdout(), h)
		return nil
	},
}

func writeRanking(w io.Writer, h *status.Hierarchy) {
	for _, s := range h.Statuses() {
		fmt.Fprintf(w, "%d\t%s\n", h.Rank(s), s)
	}
}
