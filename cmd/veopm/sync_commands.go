package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize projects with the vault",
	}

	syncCmd.AddCommand(newSyncPushCommand(ctx))
	syncCmd.AddCommand(newSyncPullCommand(ctx))
	syncCmd.AddCommand(newSyncListCommand(ctx))
	syncCmd.AddCommand(newSyncRelayCommand(ctx))

	return syncCmd
}

func newSyncPushCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the project snapshot and register it in the world registry",
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
			snap, err := store.Snapshot(cmd.Context(), slugValue)
			if err != nil {
				return err
			}

			ops, registry, err := ctx.vaultOps()
			if err != nil {
				return err
			}
			publicURL, err := ops.SaveProjectState(cmd.Context(), snap)
			if err != nil {
				return err
			}
			if err := registry.RecordProject(cmd.Context(), slugValue); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %s (%d shots, %d assets)\n%s\n",
				slugValue, len(snap.Shots), len(snap.Assets), publicURL)
			return nil
		},
	}
}

func newSyncPullCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <slug>",
		Short: "Install a vault project snapshot into the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, _, err := ctx.vaultOps()
			if err != nil {
				return err
			}
			snap, err := ops.LoadProjectState(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := store.Import(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s (%d shots, %d assets)\n",
				snap.Slug, len(snap.Shots), len(snap.Assets))
			return nil
		},
	}
}

func newSyncListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects known to the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, _, err := ctx.vaultOps()
			if err != nil {
				return err
			}
			names, err := ops.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Vault holds no projects")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newSyncRelayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "relay <shot-id>",
		Short: "Rehost a shot's rendered video in the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slugValue, err := ctx.projectSlug()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			sh, err := store.GetShot(cmd.Context(), slugValue, args[0])
			if err != nil {
				return err
			}
			if sh == nil {
				return fmt.Errorf("shot %q not found", args[0])
			}
			if sh.VideoURL == "" {
				return fmt.Errorf("shot %q has no rendered video", args[0])
			}

			ops, _, err := ctx.vaultOps()
			if err != nil {
				return err
			}
			vaultURL, err := ops.RelayGeneratedVideo(cmd.Context(), sh.VideoURL, slugValue, sh.ID)
			if err != nil {
				return err
			}

			sh.VideoURL = vaultURL
			if err := store.UpdateShot(cmd.Context(), slugValue, sh); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Relayed video for %s\n%s\n", sh.ID, vaultURL)
			return nil
		},
	}
}
