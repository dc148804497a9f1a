// SPDX-License-Identifier: MPL-2.0

package privilege

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/testutil"
	"github.com/pkgpulse/pkgpulse/internal/update"
)

var dryActivate = backend.Command{
	Binary:     "nixos-rebuild",
	Args:       []string{"dry-activate", "--upgrade"},
	Privileged: true,
	ActionID:   backend.ActionCheck,
}

func found(path string) func(string) (string, error) {
	return func(string) (string, error) { return path, nil }
}

func missing(string) (string, error) { return "", errors.New("not found") }

func authority(ok bool, err error) AuthorityProbe {
	return func(context.Context) (bool, error) { return ok, err }
}

type stubStrategy struct {
	name   string
	result Result
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Execute(context.Context, backend.Command) Result {
	s.calls++
	return s.result
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	first := &stubStrategy{name: "a", result: Result{Outcome: Unavailable}}
	second := &stubStrategy{name: "b", result: succeededWith("ok")}
	third := &stubStrategy{name: "c", result: succeededWith("unused")}

	out, err := NewChain(first, second, third).Run(t.Context(), dryActivate)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Stdout != "ok" {
		t.Errorf("Stdout = %q, want output of the first available strategy", out.Stdout)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 0 {
		t.Errorf("calls = %d/%d/%d, want 1/1/0", first.calls, second.calls, third.calls)
	}
}

func TestChain_FailedStops(t *testing.T) {
	t.Parallel()

	denied := update.NewError(update.KindAuthorizationDenied, "", "pkexec", "", nil)
	first := &stubStrategy{name: "a", result: Result{Outcome: Failed, Err: denied}}
	second := &stubStrategy{name: "b", result: succeededWith("ok")}

	_, err := NewChain(first, second).Run(t.Context(), dryActivate)
	if !errors.Is(err, update.ErrAuthorizationDenied) {
		t.Fatalf("Run() error = %v, want ErrAuthorizationDenied", err)
	}
	if second.calls != 0 {
		t.Error("a failed strategy must stop the chain")
	}
}

func TestChain_AllUnavailable(t *testing.T) {
	t.Parallel()

	_, err := NewChain(&stubStrategy{name: "a", result: Result{Outcome: Unavailable}}).
		ExecutePrivileged(t.Context(), "nixos-rebuild", []string{"dry-activate"}, backend.ActionCheck, "")
	if !errors.Is(err, update.ErrAuthorizationRequired) {
		t.Fatalf("error = %v, want ErrAuthorizationRequired", err)
	}
	if !strings.Contains(err.Error(), "%wheel ALL=(ALL) NOPASSWD: /run/current-system/sw/bin/nixos-rebuild") {
		t.Errorf("error %q lacks sudoers guidance", err)
	}
}

func succeededWith(stdout string) Result {
	out := testutil.Ok(stdout).Output
	return Result{Outcome: Succeeded, Output: &out}
}

func TestPolkit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lookPath func(string) (string, error)
		probe    AuthorityProbe
		response testutil.Response
		want     Outcome
		wantKind update.Kind
	}{
		{"no pkexec", missing, authority(true, nil), testutil.Ok(""), Unavailable, update.KindUnknown},
		{"untrusted pkexec", found("/home/u/bin/pkexec"), authority(true, nil), testutil.Ok(""), Unavailable, update.KindUnknown},
		{"no authority", found("/usr/bin/pkexec"), authority(false, nil), testutil.Ok(""), Unavailable, update.KindUnknown},
		{"bus error", found("/usr/bin/pkexec"), authority(false, errors.New("no bus")), testutil.Ok(""), Unavailable, update.KindUnknown},
		{"dismissed", found("/usr/bin/pkexec"), authority(true, nil), testutil.Exit(126, "", "Not authorized"), Failed, update.KindAuthorizationDenied},
		{"auth failed", found("/usr/bin/pkexec"), authority(true, nil), testutil.Exit(127, "", ""), Failed, update.KindAuthorizationDenied},
		{"command exit passes through", found("/usr/bin/pkexec"), authority(true, nil), testutil.Exit(1, "", "boom"), Succeeded, update.KindUnknown},
		{"success", found("/usr/bin/pkexec"), authority(true, nil), testutil.Ok("would start"), Succeeded, update.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			run := testutil.NewFakeRunner().On("/usr/bin/pkexec", tt.response)
			p := NewPolkit(run, WithPolkitLookPath(tt.lookPath), WithAuthorityProbe(tt.probe))

			res := p.Execute(t.Context(), dryActivate)
			if res.Outcome != tt.want {
				t.Fatalf("Outcome = %v, want %v (err %v)", res.Outcome, tt.want, res.Err)
			}
			if tt.want == Failed && update.KindOf(res.Err) != tt.wantKind {
				t.Errorf("error kind = %v, want %v", update.KindOf(res.Err), tt.wantKind)
			}
			if tt.want == Unavailable && len(run.Calls()) != 0 {
				t.Errorf("unavailable strategy ran %+v", run.Calls())
			}
			if tt.want == Succeeded {
				call := run.Calls()[0]
				if call.Args[0] != "nixos-rebuild" || call.Args[1] != "dry-activate" {
					t.Errorf("pkexec args = %v", call.Args)
				}
			}
		})
	}
}

func TestSudo(t *testing.T) {
	t.Parallel()

	const (
		listDryActivate = "/usr/bin/sudo -n -l -- nixos-rebuild dry-activate --upgrade"
		runDryActivate  = "/usr/bin/sudo -n -- nixos-rebuild dry-activate --upgrade"
	)

	t.Run("password required on probe", func(t *testing.T) {
		t.Parallel()

		run := testutil.NewFakeRunner().On(listDryActivate, testutil.Exit(1, "", "sudo: a password is required"))
		res := NewSudo(run, WithSudoLookPath(found("/usr/bin/sudo"))).Execute(t.Context(), dryActivate)
		if res.Outcome != Unavailable {
			t.Fatalf("Outcome = %v, want unavailable", res.Outcome)
		}
		if len(run.Calls()) != 1 {
			t.Errorf("only the probe should run, got %+v", run.Calls())
		}
	})

	t.Run("passwordless", func(t *testing.T) {
		t.Parallel()

		run := testutil.NewFakeRunner().
			On(listDryActivate, testutil.Ok("/run/current-system/sw/bin/nixos-rebuild dry-activate --upgrade\n")).
			On(runDryActivate, testutil.Ok("would restart the following units: a.service"))
		res := NewSudo(run, WithSudoLookPath(found("/usr/bin/sudo"))).Execute(t.Context(), dryActivate)
		if res.Outcome != Succeeded {
			t.Fatalf("Outcome = %v, want succeeded (err %v)", res.Outcome, res.Err)
		}
		if !strings.Contains(res.Output.Stdout, "a.service") {
			t.Errorf("Stdout = %q", res.Output.Stdout)
		}
	})

	t.Run("rule scoped to the command", func(t *testing.T) {
		t.Parallel()

		// sudoers allows only nixos-rebuild, so a blanket `sudo -n true` would fail.
		run := testutil.NewFakeRunner().
			On("/usr/bin/sudo -n true", testutil.Exit(1, "", "sudo: a password is required")).
			On("/usr/bin/sudo -n -- true", testutil.Exit(1, "", "sudo: a password is required")).
			On(listDryActivate, testutil.Ok("/run/current-system/sw/bin/nixos-rebuild dry-activate --upgrade\n")).
			On(runDryActivate, testutil.Ok("would restart the following units: a.service"))
		res := NewSudo(run, WithSudoLookPath(found("/usr/bin/sudo"))).Execute(t.Context(), dryActivate)
		if res.Outcome != Succeeded {
			t.Fatalf("Outcome = %v, want succeeded (err %v)", res.Outcome, res.Err)
		}
		for _, call := range run.Calls() {
			if call.String() == "/usr/bin/sudo -n true" || call.String() == "/usr/bin/sudo -n -- true" {
				t.Errorf("unexpected blanket sudo probe %q", call.String())
			}
		}
	})

	t.Run("password prompt at run time", func(t *testing.T) {
		t.Parallel()

		run := testutil.NewFakeRunner().
			On(listDryActivate, testutil.Ok("")).
			On(runDryActivate, testutil.Exit(1, "", "sudo: a password is required"))
		res := NewSudo(run, WithSudoLookPath(found("/usr/bin/sudo"))).Execute(t.Context(), dryActivate)
		if res.Outcome != Failed || !errors.Is(res.Err, update.ErrAuthorizationRequired) {
			t.Fatalf("Result = %+v, want AuthorizationRequired failure", res)
		}
	})

	t.Run("missing sudo", func(t *testing.T) {
		t.Parallel()

		res := NewSudo(testutil.NewFakeRunner(), WithSudoLookPath(missing)).Execute(t.Context(), dryActivate)
		if res.Outcome != Unavailable {
			t.Errorf("Outcome = %v, want unavailable", res.Outcome)
		}
	})
}

func TestGuidance(t *testing.T) {
	t.Parallel()

	if g := Guidance("pacman"); !strings.Contains(g, "NOPASSWD: /usr/bin/pacman") {
		t.Errorf("Guidance(pacman) = %q", g)
	}
	if g := Guidance("/opt/bin/tool"); !strings.Contains(g, "NOPASSWD: /opt/bin/tool") {
		t.Errorf("Guidance(abs) = %q", g)
	}
}
