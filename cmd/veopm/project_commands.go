package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"veopm/internal/project"
	"veopm/internal/slug"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage local projects",
	}

	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectDeleteCommand(ctx))
	projectCmd.AddCommand(newProjectPlanCommand(ctx))

	return projectCmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			name := strings.TrimSpace(args[0])
			projectSlug := slug.Normalize(name)
			if projectSlug == "" {
				return fmt.Errorf("project name %q normalizes to an empty slug", name)
			}
			if title == "" {
				title = name
			}

			existing, err := store.GetProject(cmd.Context(), projectSlug)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("project %q already exists", projectSlug)
			}

			proj, err := store.CreateProject(cmd.Context(), projectSlug, title)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%q)\n", proj.Slug, proj.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title (defaults to the name)")
	return cmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			projects, err := store.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, projects)
			}

			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects yet; create one with `veopm project create`.")
				return nil
			}

			rows := make([][]string, 0, len(projects))
			for _, proj := range projects {
				rows = append(rows, []string{
					proj.Slug,
					proj.Title,
					fmt.Sprintf("%d", proj.Costs.TotalCalls()),
					fmt.Sprintf("$%.2f", proj.Costs.EstimateUSD()),
					proj.CreatedAt.Format("2006-01-02"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Slug", "Title", "Calls", "Est. Cost", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newProjectPlanCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [file]",
		Short: "Show the scene plans, or replace them from a JSON file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slugValue, err := ctx.projectSlug()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				proj, err := store.GetProject(cmd.Context(), slugValue)
				if err != nil {
					return err
				}
				if proj == nil {
					return fmt.Errorf("project %q not found", slugValue)
				}
				return writeJSON(cmd, proj.ScenePlans)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read plan file: %w", err)
			}
			var plans []project.ScenePlan
			if err := json.Unmarshal(data, &plans); err != nil {
				return fmt.Errorf("parse plan file: %w", err)
			}
			if err := store.SetScenePlans(cmd.Context(), slugValue, plans); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d scene plans for %s\n", len(plans), slugValue)
			return nil
		},
	}
	return cmd
}

func newProjectDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a local project and all its shots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			removed, err := store.DeleteProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("project %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	}
}
