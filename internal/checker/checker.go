// SPDX-License-Identifier: MPL-2.0

package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/lock"
	"github.com/pkgpulse/pkgpulse/internal/nixos"
	"github.com/pkgpulse/pkgpulse/internal/parser"
	"github.com/pkgpulse/pkgpulse/internal/privilege"
	"github.com/pkgpulse/pkgpulse/internal/runner"
	"github.com/pkgpulse/pkgpulse/internal/syncchan"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

// AppName names the lock, sync and marker files.
const AppName = "pkgpulse"

// Timing of the coordination flow.
const (
	LockRetryDelay     = 2 * time.Second
	ExecRetryDelay     = 1 * time.Second
	StartupDelay       = 2 * time.Second
	StabilizationDelay = 3 * time.Second
	SyncDebounce       = 10 * time.Second
	MarkerPollInterval = 500 * time.Millisecond
)

type (
	// Clock is the checker's time source.
	Clock interface {
		Now() time.Time
	}

	systemClock struct{}

	// Checker runs update checks. It is safe for concurrent use; concurrent
	// checks with the same parameters share one execution.
	Checker struct {
		registry   *backend.Registry
		preferred  backend.Kind
		run        runner.Runner
		privileged runner.Runner
		resolver   nixos.Resolver
		lockPath   string
		notifier   *syncchan.Notifier
		clock      Clock

		lockRetryDelay     time.Duration
		execRetryDelay     time.Duration
		markerPoll         time.Duration
		stabilizationDelay time.Duration

		group singleflight.Group
	}

	// Option configures a Checker.
	Option func(*Checker)
)

func (systemClock) Now() time.Time { return time.Now() }

// WithRegistry sets the backend registry.
func WithRegistry(r *backend.Registry) Option {
	return func(c *Checker) { c.registry = r }
}

// WithBackend pins the backend. Empty means auto-detect.
func WithBackend(k backend.Kind) Option {
	return func(c *Checker) { c.preferred = k }
}

// WithRunner sets the runner for unprivileged commands.
func WithRunner(r runner.Runner) Option {
	return func(c *Checker) { c.run = r }
}

// WithPrivilegedRunner sets the runner for privileged commands.
func WithPrivilegedRunner(r runner.Runner) Option {
	return func(c *Checker) { c.privileged = r }
}

// WithResolver sets how NixOS mode and hostname are resolved.
func WithResolver(r nixos.Resolver) Option {
	return func(c *Checker) { c.resolver = r }
}

// WithLockPath sets the coordination lock file.
func WithLockPath(path string) Option {
	return func(c *Checker) { c.lockPath = path }
}

// WithNotifier sets the sync channel notifier. Nil disables notification.
func WithNotifier(n *syncchan.Notifier) Option {
	return func(c *Checker) { c.notifier = n }
}

// WithClock sets the clock stamped on results.
func WithClock(clock Clock) Option {
	return func(c *Checker) { c.clock = clock }
}

// WithRetryDelays overrides the lock and exec retry delays.
func WithRetryDelays(lockDelay, execDelay time.Duration) Option {
	return func(c *Checker) {
		c.lockRetryDelay = lockDelay
		c.execRetryDelay = execDelay
	}
}

// WithCompletionTiming overrides the marker poll interval and the
// stabilization delay.
func WithCompletionTiming(poll, stabilize time.Duration) Option {
	return func(c *Checker) {
		c.markerPoll = poll
		c.stabilizationDelay = stabilize
	}
}

// New returns a Checker using the system's backends, runners and runtime
// files unless overridden.
func New(opts ...Option) *Checker {
	c := &Checker{
		resolver:           nixos.Resolver{HostnamePath: nixos.DefaultHostnamePath},
		clock:              systemClock{},
		lockRetryDelay:     LockRetryDelay,
		execRetryDelay:     ExecRetryDelay,
		markerPoll:         MarkerPollInterval,
		stabilizationDelay: StabilizationDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = backend.NewRegistry()
	}
	if c.run == nil {
		c.run = runner.NewExecRunner()
	}
	if c.privileged == nil {
		c.privileged = privilege.DefaultChain(c.run)
	}
	if c.lockPath == "" {
		c.lockPath = lock.DefaultPath(AppName)
	}
	return c
}

// Registry returns the backend registry the checker probes.
func (c *Checker) Registry() *backend.Registry { return c.registry }

// Backend resolves the active backend.
func (c *Checker) Backend() (backend.Kind, error) {
	return c.registry.Resolve(c.preferred)
}

// CheckUpdates runs one check. The result exists only when every command
// ran and its output parsed; any failure, including one in the AUR query,
// is returned instead of a partial result.
//
// Concurrent calls with the same arguments share one execution. The shared
// check ignores the cancellation of whichever caller started it; each caller
// returns ctx.Err() as soon as its own ctx is done.
func (c *Checker) CheckUpdates(ctx context.Context, includeAUR bool, mode nixos.ModeConfig) (*update.CheckResult, error) {
	key := fmt.Sprintf("%t|%s|%s|%s|%t", includeAUR, mode.Mode, mode.ConfigPath, mode.Hostname, mode.RebuildPreview)
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.check(shared, includeAUR, mode)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			slog.Debug("joined in-flight check", "key", key)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*update.CheckResult), nil
	}
}

func (c *Checker) check(ctx context.Context, includeAUR bool, mode nixos.ModeConfig) (*update.CheckResult, error) {
	kind, err := c.Backend()
	if err != nil {
		return nil, err
	}

	h, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	started := c.clock.Now()
	var records []update.Record
	if kind.Capabilities().DualMode {
		records, err = c.checkNixOS(ctx, mode)
	} else {
		records, err = c.checkPackages(ctx, kind, includeAUR)
	}
	if err != nil {
		return nil, err
	}

	result := update.NewCheckResult(string(kind), records, c.clock.Now())
	slog.Info("update check finished",
		"backend", kind,
		"updates", result.TotalCount,
		"duration", result.CheckedAt.Sub(started))

	if c.notifier != nil {
		if _, err := c.notifier.Notify(); err != nil {
			slog.Warn("sync notification failed", "path", c.notifier.Path(), "error", err)
		}
	}
	return result, nil
}

func (c *Checker) checkPackages(ctx context.Context, kind backend.Kind, includeAUR bool) ([]update.Record, error) {
	cmd, err := backend.CheckCommand(kind)
	if err != nil {
		return nil, err
	}
	records, err := retryTransient(ctx, c.execRetryDelay, func() ([]update.Record, error) {
		out, err := c.runnerFor(kind, cmd).Run(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return parser.Parse(kind, out.ExitCode, out.Stdout, out.Stderr)
	})
	if err != nil {
		return nil, err
	}

	aurCmd, ok := backend.AURCheckCommand(kind)
	if !includeAUR || !ok {
		return records, nil
	}
	aur, err := retryTransient(ctx, c.execRetryDelay, func() ([]update.Record, error) {
		out, err := c.runnerFor(kind, aurCmd).Run(ctx, aurCmd)
		if err != nil {
			return nil, err
		}
		return parser.ParseAUR(kind, out.ExitCode, out.Stdout, out.Stderr)
	})
	if err != nil {
		return nil, err
	}
	return append(records, aur...), nil
}

func (c *Checker) checkNixOS(ctx context.Context, mode nixos.ModeConfig) ([]update.Record, error) {
	cfg, err := c.resolver.Resolve(mode)
	if err != nil {
		return nil, err
	}
	slog.Debug("nixos mode resolved", "mode", cfg.Mode, "path", cfg.ConfigPath, "host", cfg.Hostname)

	plain := classifying{inner: c.run, kind: backend.NixOS}
	privileged := classifying{inner: c.privileged, kind: backend.NixOS}
	return retryTransient(ctx, c.execRetryDelay, func() ([]update.Record, error) {
		return nixos.Check(ctx, plain, privileged, cfg)
	})
}

func (c *Checker) runnerFor(kind backend.Kind, cmd backend.Command) runner.Runner {
	if cmd.Privileged {
		return classifying{inner: c.privileged, kind: kind}
	}
	return classifying{inner: c.run, kind: kind}
}

// AcquireUpdateLock takes the coordination lock for an update, with the same
// retry-once policy as a check. The caller must Release the handle.
func (c *Checker) AcquireUpdateLock(ctx context.Context) (*lock.Handle, error) {
	return c.acquire(ctx)
}

// LockPath returns the coordination lock file.
func (c *Checker) LockPath() string { return c.lockPath }

func (c *Checker) acquire(ctx context.Context) (*lock.Handle, error) {
	return retryOnce(ctx, c.lockRetryDelay,
		func(err error) bool { return errors.Is(err, update.ErrAlreadyLocked) },
		func() (*lock.Handle, error) { return lock.Acquire(c.lockPath) })
}

func retryTransient[T any](ctx context.Context, delay time.Duration, op func() (T, error)) (T, error) {
	return retryOnce(ctx, delay, update.IsTransient, op)
}

// retryOnce runs op and, if it fails with a retryable error, runs it once
// more after delay.
func retryOnce[T any](ctx context.Context, delay time.Duration, retryable func(error) bool, op func() (T, error)) (T, error) {
	attempt := 0
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), 1), ctx)
	return backoff.RetryWithData(func() (T, error) {
		attempt++
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !retryable(err) || ctx.Err() != nil {
			return v, backoff.Permanent(err)
		}
		if attempt == 1 {
			slog.Info("retrying after failure", "delay", delay, "error", err)
		}
		return v, err
	}, policy)
}

// classifying maps runner failures onto the error taxonomy: a missing
// binary means the backend is unavailable, any other spawn failure is an
// execution failure. Cancellation and already-classified errors pass through.
type classifying struct {
	inner runner.Runner
	kind  backend.Kind
}

func (r classifying) Run(ctx context.Context, cmd backend.Command) (*runner.Output, error) {
	out, err := r.inner.Run(ctx, cmd)
	if err == nil {
		return out, nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case update.KindOf(err) != update.KindUnknown:
		return nil, err
	case errors.Is(err, runner.ErrNotFound):
		return nil, update.NewError(update.KindBackendUnavailable, string(r.kind), "run "+cmd.Binary, "", err)
	default:
		return nil, update.NewError(update.KindCommandExecutionFailed, string(r.kind), "run "+cmd.Binary, "", err)
	}
}
