package main

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"veopm/internal/asset"
	"veopm/internal/shot"
)

func newShotCommand(ctx *commandContext) *cobra.Command {
	shotCmd := &cobra.Command{
		Use:   "shot",
		Short: "Drive shot lifecycle transitions",
	}

	shotCmd.AddCommand(newShotAddCommand(ctx))
	shotCmd.AddCommand(newShotListCommand(ctx))
	shotCmd.AddCommand(newShotBreakdownCommand(ctx))
	shotCmd.AddCommand(newShotPromptCommand(ctx))
	shotCmd.AddCommand(newShotStillCommand(ctx))
	shotCmd.AddCommand(newShotApproveCommand(ctx))
	shotCmd.AddCommand(newShotUnapproveCommand(ctx))
	shotCmd.AddCommand(newShotVideoCommand(ctx))
	shotCmd.AddCommand(newShotExtendCommand(ctx))
	shotCmd.AddCommand(newShotRetryCommand(ctx))
	shotCmd.AddCommand(newShotToggleAssetCommand(ctx))
	shotCmd.AddCommand(newShotAddRefCommand(ctx))
	shotCmd.AddCommand(newShotRemoveRefCommand(ctx))
	shotCmd.AddCommand(newShotUseKeyframeCommand(ctx))

	return shotCmd
}

func newShotAddCommand(ctx *commandContext) *cobra.Command {
	var sceneName string

	cmd := &cobra.Command{
		Use:   "add <id> <pitch>",
		Short: "Append a shot to the project's shot book",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slugValue, err := ctx.projectSlug()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			sh := shot.New(args[0], strings.Join(args[1:], " "))
			sh.SceneName = sceneName
			if err := store.AddShot(cmd.Context(), slugValue, sh); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added shot %s (scene %s)\n", sh.ID, shot.SceneKey(sh.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&sceneName, "scene", "", "Display name for the shot's scene")
	return cmd
}

func newShotListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the shot book grouped by scene",
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
			shots, err := store.ListShots(cmd.Context(), slugValue)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, shots)
			}

			if len(shots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Shot book is empty; add shots with `veopm shot add`.")
				return nil
			}

			var rows [][]string
			for _, group := range shot.GroupByScene(shots) {
				for _, sh := range group.Shots {
					rows = append(rows, []string{
						group.Key,
						sh.ID,
						string(sh.Status),
						string(sh.VideoStatus),
						yesNo(sh.Approved),
						string(sh.Kind),
					})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Scene", "Shot", "Status", "Video", "Approved", "Kind"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newShotBreakdownCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown <id>",
		Short: "Generate the structured breakdown document for a shot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			sh, err := session.RequestBreakdown(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shot %s: %s\n", sh.ID, sh.Status)
			return nil
		},
	}
}

func newShotPromptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt <id>",
		Short: "Generate the keyframe image prompt for a shot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			sh, err := session.RequestKeyframePrompt(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shot %s: %s\nPrompt: %s\n", sh.ID, sh.Status, sh.KeyframePrompt)
			return nil
		},
	}
}

func newShotStillCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "still [id]",
		Short: "Render the keyframe still for a shot, or all pending shots",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}

			if all {
				// Interrupt stops scheduling further shots; the in-flight
				// render completes and its result is kept.
				interrupts := make(chan os.Signal, 1)
				signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
				done := make(chan struct{})
				go func() {
					select {
					case <-interrupts:
						session.Stop()
					case <-done:
					}
				}()

				completed, err := session.GenerateAllStills(cmd.Context())
				signal.Stop(interrupts)
				close(done)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d keyframes\n", completed)
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("provide a shot id or --all")
			}
			sh, err := session.RequestStill(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shot %s: %s\n", sh.ID, sh.Status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Render keyframes for every shot awaiting one")
	return cmd
}

func newShotApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Lock a reviewed shot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			sh, err := session.Approve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shot %s approved\n", sh.ID)
			return nil
		},
	}
}

func newShotUnapproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unapprove <id>",
		Short: "Return an approved shot to the editable pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			sh, err := session.Unapprove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shot %s: %s\n", sh.ID, sh.Status)
			return nil
		},
	}
}

func newShotVideoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "video <id>",
		Short: "Render the video for an approved shot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			sh, err := session.RequestVideo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shot %s video: %s\n%s\n", sh.ID, sh.VideoStatus, sh.VideoURL)
			return nil
		},
	}
}

func newShotExtendCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extend <id> <directive>",
		Short: "Create an extension unit continuing a shot's video",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			ext, err := session.Extend(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created extension %s from %s\n", ext.ID, args[0])
			return nil
		},
	}
}

func newShotRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Return a failed shot to its pending status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			sh, err := session.Retry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shot %s: %s\n", sh.ID, sh.Status)
			return nil
		},
	}
}

func newShotToggleAssetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-asset <shot-id> <asset-id>",
		Short: "Attach or detach a continuity asset on a shot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			sh, err := session.ToggleAsset(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			state := "detached from"
			if sh.HasAssetSelected(args[1]) {
				state = "attached to"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Asset %s %s shot %s\n", args[1], state, sh.ID)
			return nil
		},
	}
}

func newShotAddRefCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add-ref <shot-id> <image-file>",
		Short: "Attach a shot-local reference image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			img, err := readImageFile(args[1])
			if err != nil {
				return err
			}
			sh, err := session.AddAdHocReference(cmd.Context(), args[0], *img)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shot %s has %d reference images\n", sh.ID, len(sh.AdHocReferences))
			return nil
		},
	}
}

func newShotRemoveRefCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-ref <shot-id> <index>",
		Short: "Remove a shot-local reference image by index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("index must be a number: %w", err)
			}
			sh, err := session.RemoveAdHocReference(cmd.Context(), args[0], index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shot %s has %d reference images\n", sh.ID, len(sh.AdHocReferences))
			return nil
		},
	}
}

func newShotUseKeyframeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "use-keyframe <shot-id> <true|false>",
		Short: "Select whether the keyframe seeds video generation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := ctx.session()
			if err != nil {
				return err
			}
			use, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("expected true or false: %w", err)
			}
			sh, err := session.SetUseKeyframeAsReference(cmd.Context(), args[0], use)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shot %s use-keyframe: %s\n", sh.ID, yesNo(sh.UseKeyframeAsReference))
			return nil
		},
	}
}

// readImageFile loads an image from disk into the base64 payload form.
func readImageFile(path string) (*asset.IngredientImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return &asset.IngredientImage{
		Name:     filepath.Base(path),
		MimeType: http.DetectContentType(data),
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}
