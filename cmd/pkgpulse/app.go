// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkgpulse/pkgpulse/internal/checker"
	"github.com/pkgpulse/pkgpulse/internal/config"
	"github.com/pkgpulse/pkgpulse/internal/lock"
	"github.com/pkgpulse/pkgpulse/internal/output"
	"github.com/pkgpulse/pkgpulse/internal/syncchan"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer; all Cobra command handlers receive an App reference.
	App struct {
		Config ConfigProvider
		// checkerOptions are applied after the config-derived options.
		checkerOptions []checker.Option
		stdout         io.Writer
		stderr         io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// CheckerOptions override the checker built from configuration, e.g.
		// a fake runner or registry in tests.
		CheckerOptions []checker.Option
		Stdout         io.Writer
		Stderr         io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// runtimePaths are the per-user files shared by every pkgpulse process.
	runtimePaths struct {
		Lock string
		Sync string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	return &App{
		Config:         deps.Config,
		checkerOptions: deps.CheckerOptions,
		stdout:         deps.Stdout,
		stderr:         deps.Stderr,
	}
}

// loadConfig loads configuration honoring the --config flag.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
}

// pathsFor returns the lock and sync files, placed in cfg.RuntimeDir when set.
func pathsFor(cfg *config.Config) runtimePaths {
	if cfg.RuntimeDir != "" {
		return runtimePaths{
			Lock: filepath.Join(cfg.RuntimeDir, config.AppName+".lock"),
			Sync: filepath.Join(cfg.RuntimeDir, config.AppName+".sync"),
		}
	}
	return runtimePaths{
		Lock: lock.DefaultPath(config.AppName),
		Sync: syncchan.DefaultPath(config.AppName),
	}
}

// newChecker builds a Checker for cfg. Peers are notified through the sync
// file after every successful check.
func (a *App) newChecker(cfg *config.Config) *checker.Checker {
	paths := pathsFor(cfg)
	opts := []checker.Option{
		checker.WithBackend(cfg.BackendKind()),
		checker.WithLockPath(paths.Lock),
		checker.WithNotifier(syncchan.NewNotifier(paths.Sync)),
	}
	return checker.New(append(opts, a.checkerOptions...)...)
}

// writerFor resolves the output format: the --output flag wins over ui.output.
func (a *App) writerFor(flags *rootFlagValues, cfg *config.Config) (*output.Writer, error) {
	name := flags.output
	if name == "" {
		name = cfg.UI.Output.String()
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(a.stdout, format), nil
}
