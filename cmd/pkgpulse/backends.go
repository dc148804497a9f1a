// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pkgpulse/pkgpulse/internal/output"
)

// newBackendsCommand creates the `pkgpulse backends` command.
func newBackendsCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "Show detected package managers",
		Long: `Probe every supported package manager and show whether it is usable.

The backend a check would use is marked with '*'. Binaries are only accepted
from trusted system directories.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfigOrFail(cmd, rootFlags)
			if err != nil {
				return err
			}
			w, err := app.writerFor(rootFlags, cfg)
			if err != nil {
				return err
			}

			c := app.newChecker(cfg)
			selected, err := c.Backend()
			if err != nil {
				slog.Debug("no usable backend", "error", err)
			}
			return w.Write(output.NewBackendReport(c.Registry().ProbeAll(), selected))
		},
	}
}
