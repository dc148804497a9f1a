// SPDX-License-Identifier: MPL-2.0

package privilege

import (
	"context"
	"fmt"
	"os/exec"
	"slices"

	"github.com/godbus/dbus/v5"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/runner"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

// polkitAuthority is the well-known bus name of the polkit daemon.
const polkitAuthority = "org.freedesktop.PolicyKit1"

// pkexec exits 126 when authorization was refused or dismissed and 127 when
// it could not authenticate at all.
var pkexecDenied = []int{126, 127}

type (
	// AuthorityProbe reports whether a polkit authority can answer.
	AuthorityProbe func(ctx context.Context) (bool, error)

	// Polkit escalates through pkexec.
	Polkit struct {
		run      runner.Runner
		lookPath func(string) (string, error)
		trusted  []string
		probe    AuthorityProbe
	}

	// PolkitOption configures Polkit.
	PolkitOption func(*Polkit)
)

// WithPolkitLookPath replaces exec.LookPath.
func WithPolkitLookPath(fn func(string) (string, error)) PolkitOption {
	return func(p *Polkit) { p.lookPath = fn }
}

// WithAuthorityProbe replaces the system bus probe.
func WithAuthorityProbe(probe AuthorityProbe) PolkitOption {
	return func(p *Polkit) { p.probe = probe }
}

// WithPolkitTrustedPrefixes restricts where pkexec may be found.
func WithPolkitTrustedPrefixes(prefixes ...string) PolkitOption {
	return func(p *Polkit) { p.trusted = prefixes }
}

// NewPolkit returns the pkexec strategy.
func NewPolkit(run runner.Runner, opts ...PolkitOption) *Polkit {
	p := &Polkit{
		run:      run,
		lookPath: exec.LookPath,
		trusted:  backend.DefaultTrustedPrefixes,
		probe:    SystemBusAuthority,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Strategy.
func (p *Polkit) Name() string { return "polkit" }

// Execute implements Strategy.
func (p *Polkit) Execute(ctx context.Context, cmd backend.Command) Result {
	pkexec, err := p.lookPath("pkexec")
	if err != nil {
		return unavailable("pkexec not found: %w", err)
	}
	if !backend.IsTrustedPath(pkexec, p.trusted) {
		return unavailable("pkexec at %s is outside trusted directories", pkexec)
	}
	ok, err := p.probe(ctx)
	if err != nil {
		return unavailable("polkit authority probe: %w", err)
	}
	if !ok {
		return unavailable("no polkit authority on the system bus")
	}

	out, err := p.run.Run(ctx, backend.Command{
		Binary: pkexec,
		Args:   append([]string{cmd.Binary}, cmd.Args...),
	})
	if err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	if slices.Contains(pkexecDenied, int(out.ExitCode)) {
		return Result{Outcome: Failed, Output: out, Err: &update.Error{
			Kind:     update.KindAuthorizationDenied,
			Op:       "pkexec " + cmd.Binary,
			Detail:   update.Excerpt(out.Stderr),
			ExitCode: int(out.ExitCode),
		}}
	}
	return Result{Outcome: Succeeded, Output: out}
}

// SystemBusAuthority asks the system bus whether polkit is running or can be
// activated.
func SystemBusAuthority(ctx context.Context) (bool, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("connect system bus: %w", err)
	}
	defer func() { _ = conn.Close() }()

	bus := conn.BusObject()
	var owned bool
	if err := bus.CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, polkitAuthority).Store(&owned); err != nil {
		return false, fmt.Errorf("query %s owner: %w", polkitAuthority, err)
	}
	if owned {
		return true, nil
	}

	var activatable []string
	if err := bus.CallWithContext(ctx, "org.freedesktop.DBus.ListActivatableNames", 0).Store(&activatable); err != nil {
		return false, fmt.Errorf("list activatable names: %w", err)
	}
	return slices.Contains(activatable, polkitAuthority), nil
}
