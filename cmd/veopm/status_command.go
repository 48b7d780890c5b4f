package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"veopm/internal/shot"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize shot progress and generation spend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slugValue, err := ctx.projectSlug()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			proj, err := store.GetProject(cmd.Context(), slugValue)
			if err != nil {
				return err
			}
			if proj == nil {
				return fmt.Errorf("project %q not found", slugValue)
			}
			stats, err := store.ShotStats(cmd.Context(), slugValue)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, map[string]any{
					"slug":         proj.Slug,
					"title":        proj.Title,
					"statusCounts": stats,
					"costs":        proj.Costs,
					"estimateUsd":  proj.Costs.EstimateUSD(),
				})
			}

			total := 0
			rows := make([][]string, 0, len(stats))
			for _, status := range shot.AllStatuses() {
				count, ok := stats[status]
				if !ok {
					continue
				}
				total += count
				rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", proj.Title, proj.Slug)
			if len(rows) == 0 {
				fmt.Fprintln(out, "Shot book is empty")
			} else {
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Shots"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Total shots: %d\n", total)
			}
			fmt.Fprintf(out, "Generation calls: %d (est. $%.2f)\n",
				proj.Costs.TotalCalls(), proj.Costs.EstimateUSD())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
