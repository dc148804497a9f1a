// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkgpulse/pkgpulse/internal/checker"
	"github.com/pkgpulse/pkgpulse/internal/output"
	"github.com/pkgpulse/pkgpulse/internal/syncchan"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

// watchLoop schedules checks: once after a startup delay, then every
// interval, and whenever a peer reports a check while the local result is
// older than debounce.
type watchLoop struct {
	check        func(ctx context.Context) error
	interval     time.Duration
	startupDelay time.Duration
	autoStart    bool
	debounce     time.Duration
	events       <-chan syncchan.Event
	now          func() time.Time

	lastCheck time.Time
}

// newWatchCommand creates the `pkgpulse watch` command.
func newWatchCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Check for updates periodically",
		Long: `Run in the foreground and check for updates on a schedule.

The first check runs shortly after startup (auto_check_on_startup), then one
every check_interval_minutes. When another pkgpulse instance finishes a check,
this one refreshes its own result unless it checked within the last few
seconds. Stop with Ctrl+C or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, app, rootFlags)
		},
	}
}

func runWatch(cmd *cobra.Command, app *App, rootFlags *rootFlagValues) error {
	ctx := cmd.Context()

	cfg, err := app.loadConfigOrFail(cmd, rootFlags)
	if err != nil {
		return err
	}
	closer, err := setupDaemonLogging(app.stderr, rootFlags.verbose || cfg.UI.Verbose, cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	w, err := app.writerFor(rootFlags, cfg)
	if err != nil {
		return err
	}

	paths := pathsFor(cfg)
	events, err := syncchan.Subscribe(ctx, syncchan.Config{
		Path:        paths.Sync,
		MinInterval: syncchan.DefaultMinInterval,
		IgnoreFirst: true,
	})
	if err != nil {
		return err
	}

	c := app.newChecker(cfg)
	mode := cfg.ModeConfig()
	loop := &watchLoop{
		check: func(ctx context.Context) error {
			res, err := c.CheckUpdates(ctx, cfg.IncludeAUR, mode)
			if err != nil {
				return err
			}
			return w.Write(output.NewCheckReport(res))
		},
		interval:     time.Duration(cfg.CheckIntervalMinutes) * time.Minute,
		startupDelay: checker.StartupDelay,
		autoStart:    cfg.AutoCheckOnStartup,
		debounce:     checker.SyncDebounce,
		events:       events,
		now:          time.Now,
	}

	slog.Info("watching for updates", "interval", loop.interval, "sync", paths.Sync, "lock", paths.Lock)
	loop.run(ctx)
	slog.Info("watch stopped")
	return nil
}

// run blocks until ctx is done.
func (l *watchLoop) run(ctx context.Context) {
	var startup <-chan time.Time
	if l.autoStart {
		timer := time.NewTimer(l.startupDelay)
		defer timer.Stop()
		startup = timer.C
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	events := l.events
	for {
		select {
		case <-ctx.Done():
			return
		case <-startup:
			startup = nil
			l.runCheck(ctx, "startup")
		case <-ticker.C:
			l.runCheck(ctx, "interval")
		case ev, ok := <-events:
			if !ok {
				slog.Warn("sync subscription closed; peer checks will be ignored")
				events = nil
				continue
			}
			if !l.lastCheck.IsZero() && l.now().Sub(l.lastCheck) < l.debounce {
				slog.Debug("peer check ignored, local result is fresh", "peer_stamp", ev.Stamp)
				continue
			}
			l.runCheck(ctx, "peer")
		}
	}
}

// runCheck stamps lastCheck when the check returns, failed or not, so the
// notification a slow check writes itself falls inside the debounce.
func (l *watchLoop) runCheck(ctx context.Context, trigger string) {
	err := l.check(ctx)
	l.lastCheck = l.now()
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
	case errors.Is(err, update.ErrAlreadyLocked):
		slog.Info("another instance is checking; skipped", "trigger", trigger)
	default:
		slog.Error("update check failed", "trigger", trigger, "kind", update.KindOf(err), "error", err)
	}
}
