// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pkgpulse/pkgpulse/internal/checker"
	"github.com/pkgpulse/pkgpulse/internal/output"
)

type updateFlagValues struct {
	wait      bool
	markerDir string
}

// newUpdateCommand creates the `pkgpulse update` command.
func newUpdateCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &updateFlagValues{}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Print the update command for this system",
		Long: `Print the command that updates this system, to be run in a terminal.

With --wait, pkgpulse holds the update lock so no check runs against a
half-updated system, prints a command that removes a completion marker when
it exits, waits for the marker to disappear, lets the system settle, and then
checks again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdate(cmd, app, rootFlags, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.wait, "wait", false, "wait for the update to finish, then re-check")
	cmd.Flags().StringVar(&flags.markerDir, "marker-dir", "", "directory for the completion marker (default $XDG_RUNTIME_DIR)")

	return cmd
}

func runUpdate(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *updateFlagValues) error {
	ctx := cmd.Context()

	cfg, err := app.loadConfigOrFail(cmd, rootFlags)
	if err != nil {
		return err
	}
	w, err := app.writerFor(rootFlags, cfg)
	if err != nil {
		return err
	}

	c := app.newChecker(cfg)
	mode := cfg.ModeConfig()

	if !flags.wait {
		plan, err := c.PrepareUpdate(mode, "")
		if err != nil {
			return app.fail(cmd, rootFlags, "prepare update", err)
		}
		return w.Write(output.PlanReport{Backend: plan.Backend.String(), Command: plan.Command})
	}

	h, err := c.AcquireUpdateLock(ctx)
	if err != nil {
		return app.fail(cmd, rootFlags, "prepare update", err)
	}
	// Release is idempotent; the explicit release below lets the re-check take the lock.
	defer h.Release()

	plan, err := c.PrepareUpdate(mode, checker.NewMarkerPath(flags.markerDir))
	if err != nil {
		return app.fail(cmd, rootFlags, "prepare update", err)
	}
	if err := w.Write(output.PlanReport{Backend: plan.Backend.String(), Command: plan.Script, MarkerPath: plan.MarkerPath}); err != nil {
		return err
	}

	slog.Info("waiting for the update to finish", "marker", plan.MarkerPath)
	if err := c.WaitForCompletion(ctx, plan); err != nil {
		return fmt.Errorf("wait for update: %w", err)
	}
	h.Release()

	res, err := c.CheckUpdates(ctx, cfg.IncludeAUR, mode)
	if err != nil {
		return app.fail(cmd, rootFlags, "check for updates", err)
	}
	return w.Write(output.NewCheckReport(res))
}
