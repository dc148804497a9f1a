// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"errors"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

func fakeLookPath(paths map[string]string) LookPathFunc {
	return func(file string) (string, error) {
		if p, ok := paths[file]; ok {
			return p, nil
		}
		return "", exec.ErrNotFound
	}
}

func fakeExists(existing ...string) ExistsFunc {
	return func(path string) bool { return slices.Contains(existing, path) }
}

func TestRegistryDetectOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry(
		WithLookPath(fakeLookPath(map[string]string{
			"pacman":       "/usr/bin/pacman",
			"checkupdates": "/usr/bin/checkupdates",
			"yay":          "/usr/bin/yay",
			"flatpak":      "/usr/bin/flatpak",
		})),
		WithExists(fakeExists()),
	)

	got := r.Detect()
	want := []Kind{Yay, Pacman, Flatpak}
	if !slices.Equal(got, want) {
		t.Errorf("Detect() = %v, want %v", got, want)
	}

	k, err := r.Resolve("")
	if err != nil || k != Yay {
		t.Errorf("Resolve(\"\") = %v, %v; want yay", k, err)
	}
}

func TestRegistryRejectsUntrustedPath(t *testing.T) {
	t.Parallel()

	r := NewRegistry(
		WithLookPath(fakeLookPath(map[string]string{"apt": "/home/user/bin/apt"})),
		WithExists(fakeExists()),
	)

	e := r.Probe(Apt)
	if e.Available {
		t.Fatal("apt under $HOME must not be trusted")
	}
	if e.Reason == "" {
		t.Error("expected a rejection reason")
	}
}

func TestRegistryArchNeedsCheckupdates(t *testing.T) {
	t.Parallel()

	r := NewRegistry(
		WithLookPath(fakeLookPath(map[string]string{"pacman": "/usr/bin/pacman"})),
		WithExists(fakeExists()),
	)

	e := r.Probe(Pacman)
	if e.Available {
		t.Fatal("pacman without checkupdates should be unavailable")
	}
	if want := "pacman-contrib"; !strings.Contains(e.Reason, want) {
		t.Errorf("reason %q should mention %q", e.Reason, want)
	}
}

func TestRegistryNixOSNeedsMarker(t *testing.T) {
	t.Parallel()

	lp := fakeLookPath(map[string]string{"nixos-rebuild": "/run/current-system/sw/bin/nixos-rebuild"})

	off := NewRegistry(WithLookPath(lp), WithExists(fakeExists()))
	if off.Probe(NixOS).Available {
		t.Error("nixos-rebuild without /etc/NIXOS should be unavailable")
	}

	on := NewRegistry(WithLookPath(lp), WithExists(fakeExists("/etc/NIXOS")))
	if !on.Probe(NixOS).Available {
		t.Error("nixos-rebuild with /etc/NIXOS should be available")
	}
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	r := NewRegistry(
		WithLookPath(fakeLookPath(map[string]string{
			"pacman":       "/usr/bin/pacman",
			"checkupdates": "/usr/bin/checkupdates",
		})),
		WithExists(fakeExists()),
	)

	t.Run("AUR helper falls back within family", func(t *testing.T) {
		t.Parallel()

		k, err := r.Resolve(Paru)
		if err != nil || k != Pacman {
			t.Errorf("Resolve(paru) = %v, %v; want pacman", k, err)
		}
	})

	t.Run("unrelated preference is an error", func(t *testing.T) {
		t.Parallel()

		_, err := r.Resolve(Dnf)
		if !errors.Is(err, update.ErrBackendUnavailable) {
			t.Errorf("Resolve(dnf) error = %v, want ErrBackendUnavailable", err)
		}
	})

	t.Run("invalid kind", func(t *testing.T) {
		t.Parallel()

		_, err := r.Resolve(Kind("portage"))
		if !errors.Is(err, update.ErrBackendUnavailable) || !errors.Is(err, ErrInvalidKind) {
			t.Errorf("Resolve(portage) error = %v", err)
		}
	})

	t.Run("nothing installed", func(t *testing.T) {
		t.Parallel()

		empty := NewRegistry(WithLookPath(fakeLookPath(nil)), WithExists(fakeExists()))
		if _, err := empty.Resolve(""); !errors.Is(err, update.ErrBackendUnavailable) {
			t.Errorf("Resolve(\"\") error = %v, want ErrBackendUnavailable", err)
		}
	})
}
