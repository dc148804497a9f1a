// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/pkgpulse/pkgpulse/internal/config"
	"github.com/pkgpulse/pkgpulse/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	verbose    bool
	configPath string
	output     string
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Check for and coordinate system package updates",
		Long: TitleStyle.Render(config.AppName) + SubtitleStyle.Render(" - system package update checker") + `

pkgpulse detects the system package manager (pacman, paru, yay, apt, dnf,
zypper, apk, flatpak or NixOS), lists pending updates, and coordinates
checks between several running instances.

` + SubtitleStyle.Render("Examples:") + `
  pkgpulse check              List pending updates
  pkgpulse check -o json      Machine-readable output
  pkgpulse backends           Show detected package managers
  pkgpulse update --wait      Print the update command and wait for it
  pkgpulse watch              Check periodically in the background`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(app.stderr, flags.verbose, config.LogLevelInfo)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/pkgpulse/config.cue)")
	rootCmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "", "output format: text, json, yaml, toml")

	rootCmd.AddCommand(
		newCheckCommand(app, flags),
		newBackendsCommand(app, flags),
		newUpdateCommand(app, flags),
		newWatchCommand(app, flags),
		newStatusCommand(app, flags),
		newConfigCommand(app, flags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the production App and runs the command tree.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(exitFailure))
	}
}

// fail renders err with its remediation hints and returns an ExitError that
// fang does not print again.
func (a *App) fail(cmd *cobra.Command, flags *rootFlagValues, operation string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	svcErr := serviceErrorFor(err, operation, flags.verbose)
	renderServiceError(a.stderr, svcErr, flags.verbose)
	slog.Debug("command failed", "operation", operation, "error", err)

	return &ExitError{Code: exitCodeFor(err), Err: svcErr}
}

// loadConfigOrFail loads configuration and, on failure, renders the actionable
// error the config package produced.
func (a *App) loadConfigOrFail(cmd *cobra.Command, flags *rootFlagValues) (*config.Config, error) {
	cfg, err := a.loadConfig(cmd.Context(), flags)
	if err != nil {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		msg := err.Error()
		var ae *issue.ActionableError
		if errors.As(err, &ae) {
			msg = ae.Format(flags.verbose)
		}
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+msg)
		return nil, &ExitError{Code: exitFailure, Err: err}
	}
	setupLogging(a.stderr, flags.verbose || cfg.UI.Verbose, cfg.Log.Level)
	return cfg, nil
}
