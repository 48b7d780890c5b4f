package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"veopm/internal/asset"
)

func newAssetCommand(ctx *commandContext) *cobra.Command {
	assetCmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage continuity reference assets",
	}

	assetCmd.AddCommand(newAssetAddCommand(ctx))
	assetCmd.AddCommand(newAssetListCommand(ctx))
	assetCmd.AddCommand(newAssetRemoveCommand(ctx))
	assetCmd.AddCommand(newAssetPublishCommand(ctx))

	return assetCmd
}

func newAssetAddCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var description string
	var imagePath string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a reusable continuity asset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slugValue, err := ctx.projectSlug()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			assetType, ok := asset.ParseType(typeFlag)
			if !ok {
				return fmt.Errorf("unknown asset type %q (one of: %s)", typeFlag, typeNames())
			}

			item := asset.ProjectAsset{
				ID:          uuid.NewString(),
				Name:        strings.Join(args, " "),
				Description: description,
				Type:        assetType,
			}
			if imagePath != "" {
				img, err := readImageFile(imagePath)
				if err != nil {
					return err
				}
				img.ID = uuid.NewString()
				item.Image = img
			}

			if err := store.UpsertAsset(cmd.Context(), slugValue, item); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s asset %s (%s)\n", item.Type, item.Name, item.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "character", "Asset type: "+typeNames())
	cmd.Flags().StringVar(&description, "description", "", "Continuity description")
	cmd.Flags().StringVar(&imagePath, "image", "", "Reference image file")
	return cmd
}

func newAssetListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the project's continuity assets",
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
			assets, err := store.ListAssets(cmd.Context(), slugValue)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, assets)
			}

			if len(assets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No assets yet; add one with `veopm asset add`.")
				return nil
			}

			rows := make([][]string, 0, len(assets))
			for _, item := range assets {
				rows = append(rows, []string{
					item.ID,
					item.Name,
					string(item.Type),
					yesNo(item.HasImage()),
					item.Description,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Type", "Image", "Description"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newAssetRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a continuity asset",
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
			removed, err := store.RemoveAsset(cmd.Context(), slugValue, args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("asset %q not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed asset %s\n", args[0])
			return nil
		},
	}
}

func newAssetPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish an asset to the shared vault library",
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
			item, err := store.GetAsset(cmd.Context(), slugValue, args[0])
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("asset %q not found", args[0])
			}

			ops, _, err := ctx.vaultOps()
			if err != nil {
				return err
			}
			meta, err := ops.StoreLibraryAsset(cmd.Context(), *item)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %s as vault artifact %s\n%s\n", item.Name, meta.ID, meta.ImageURL)
			return nil
		},
	}
}

func typeNames() string {
	types := asset.AllTypes()
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}
