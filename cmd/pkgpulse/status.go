// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgpulse/pkgpulse/internal/lock"
	"github.com/pkgpulse/pkgpulse/internal/output"
	"github.com/pkgpulse/pkgpulse/internal/syncchan"
)

// newStatusCommand creates the `pkgpulse status` command.
func newStatusCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the update lock holder and the last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfigOrFail(cmd, rootFlags)
			if err != nil {
				return err
			}
			w, err := app.writerFor(rootFlags, cfg)
			if err != nil {
				return err
			}
			return w.Write(statusReport(pathsFor(cfg)))
		},
	}
}

func statusReport(paths runtimePaths) output.StatusReport {
	report := output.StatusReport{LockPath: paths.Lock, SyncPath: paths.Sync}

	if locked, holder := lockState(paths.Lock); locked {
		report.Locked = true
		if holder != nil {
			report.HolderPID = holder.PID
			report.HolderName = holder.Executable
		}
	}

	if stamp, err := syncchan.ReadStamp(paths.Sync); err == nil && !stamp.IsZero() {
		report.LastSync = &stamp
	}
	return report
}

// lockState probes the lock without waiting. A missing lock file is free.
func lockState(path string) (bool, *lock.Holder) {
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}
	h, err := lock.Acquire(path)
	if err == nil {
		h.Release()
		return false, nil
	}
	var lockErr *lock.AlreadyLockedError
	if errors.As(err, &lockErr) {
		return true, lockErr.Holder
	}
	slog.Debug("lock probe failed", "path", path, "error", err)
	return false, nil
}
