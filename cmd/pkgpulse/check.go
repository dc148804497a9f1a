// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/config"
	"github.com/pkgpulse/pkgpulse/internal/output"
)

type checkFlagValues struct {
	aur      bool
	backend  string
	exitCode bool
}

// newCheckCommand creates the `pkgpulse check` command.
func newCheckCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &checkFlagValues{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "List pending updates",
		Long: `Run one update check with the detected (or configured) package manager.

The check holds the update lock, so it waits briefly and retries once when
another pkgpulse instance is busy. Other running instances are notified when
the check succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, app, rootFlags, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.aur, "aur", true, "include AUR updates when an AUR helper is the backend (default from include_aur)")
	cmd.Flags().StringVar(&flags.backend, "backend", "", "force a backend instead of auto-detecting")
	cmd.Flags().BoolVar(&flags.exitCode, "exit-code", false, "exit with status 100 when updates are pending")

	return cmd
}

func runCheck(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *checkFlagValues) error {
	cfg, err := app.loadConfigOrFail(cmd, rootFlags)
	if err != nil {
		return err
	}
	if err := applyBackendFlag(cfg, flags.backend); err != nil {
		return err
	}
	w, err := app.writerFor(rootFlags, cfg)
	if err != nil {
		return err
	}

	includeAUR := cfg.IncludeAUR
	if cmd.Flags().Changed("aur") {
		includeAUR = flags.aur
	}

	res, err := app.newChecker(cfg).CheckUpdates(cmd.Context(), includeAUR, cfg.ModeConfig())
	if err != nil {
		return app.fail(cmd, rootFlags, "check for updates", err)
	}

	if err := w.Write(output.NewCheckReport(res)); err != nil {
		return err
	}

	if flags.exitCode && res.HasUpdates() {
		cmd.SilenceErrors = true
		return &ExitError{Code: exitUpdatesAvailable}
	}
	return nil
}

// applyBackendFlag validates a --backend value and stores it in cfg.
func applyBackendFlag(cfg *config.Config, value string) error {
	if value == "" {
		return nil
	}
	k, err := backend.ParseKind(value)
	if err != nil {
		return err
	}
	cfg.Backend = k.String()
	return nil
}
