// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

// nixosMarkers are the files whose presence identifies a NixOS host.
var nixosMarkers = []string{"/etc/NIXOS", "/run/current-system"}

// DefaultTrustedPrefixes are the directories executables must resolve into.
// A binary found elsewhere on PATH (for example in a user-writable directory)
// is not treated as a system package manager.
var DefaultTrustedPrefixes = []string{
	"/usr/",
	"/bin/",
	"/sbin/",
	"/nix/store/",
	"/run/current-system/",
	"/opt/",
}

type (
	// LookPathFunc resolves an executable name to a path.
	LookPathFunc func(file string) (string, error)

	// ExistsFunc reports whether a filesystem path exists.
	ExistsFunc func(path string) bool

	// Registry detects installed backends.
	Registry struct {
		lookPath LookPathFunc
		exists   ExistsFunc
		trusted  []string
	}

	// RegistryOption configures a Registry.
	RegistryOption func(*Registry)

	// Entry is the availability of a single backend.
	Entry struct {
		Kind      Kind
		Path      string
		Available bool
		// Reason explains why an unavailable backend was rejected.
		Reason string
	}
)

// WithLookPath overrides executable resolution (tests).
func WithLookPath(fn LookPathFunc) RegistryOption {
	return func(r *Registry) { r.lookPath = fn }
}

// WithExists overrides marker-file probing (tests).
func WithExists(fn ExistsFunc) RegistryOption {
	return func(r *Registry) { r.exists = fn }
}

// WithTrustedPrefixes replaces DefaultTrustedPrefixes.
func WithTrustedPrefixes(prefixes ...string) RegistryOption {
	return func(r *Registry) { r.trusted = prefixes }
}

// NewRegistry creates a Registry that probes the real system by default.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		lookPath: exec.LookPath,
		exists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
		trusted: DefaultTrustedPrefixes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Probe reports whether k is installed and usable for checks.
func (r *Registry) Probe(k Kind) Entry {
	caps := k.Capabilities()
	if caps.Binary == "" {
		return Entry{Kind: k, Reason: "unknown backend"}
	}

	path, err := r.trustedLookPath(caps.Binary)
	if err != nil {
		return Entry{Kind: k, Reason: err.Error()}
	}

	if caps.CheckBinary != "" && caps.CheckBinary != caps.Binary {
		if _, err := r.trustedLookPath(caps.CheckBinary); err != nil {
			reason := err.Error()
			if caps.CheckPackage != "" {
				reason += fmt.Sprintf(" (install %s)", caps.CheckPackage)
			}
			return Entry{Kind: k, Path: path, Reason: reason}
		}
	}

	if k == NixOS && !r.anyExists(nixosMarkers) {
		return Entry{Kind: k, Path: path, Reason: "nixos-rebuild found but this host is not NixOS"}
	}

	return Entry{Kind: k, Path: path, Available: true}
}

// ProbeAll probes every backend in detection order.
func (r *Registry) ProbeAll() []Entry {
	entries := make([]Entry, 0, len(preference))
	for _, k := range preference {
		entries = append(entries, r.Probe(k))
	}
	return entries
}

// Detect returns the available backends in detection order.
func (r *Registry) Detect() []Kind {
	var found []Kind
	for _, e := range r.ProbeAll() {
		if e.Available {
			found = append(found, e.Kind)
		}
	}
	return found
}

// Resolve picks the backend to use. An empty preferred kind auto-detects.
// A preferred AUR helper falls back within the Arch family; any other
// unavailable preference is an error.
func (r *Registry) Resolve(preferred Kind) (Kind, error) {
	if preferred == "" {
		found := r.Detect()
		if len(found) == 0 {
			return "", update.NewError(update.KindBackendUnavailable, "", "detect backend",
				"no supported package manager found", nil)
		}
		slog.Debug("detected backend", "backend", found[0], "candidates", found)
		return found[0], nil
	}

	if !preferred.IsValid() {
		return "", update.NewError(update.KindBackendUnavailable, string(preferred), "resolve backend", "",
			&InvalidKindError{Value: string(preferred)})
	}

	var reasons []string
	for _, k := range preferred.family() {
		e := r.Probe(k)
		if e.Available {
			if k != preferred {
				slog.Info("preferred backend unavailable, using fallback", "preferred", preferred, "backend", k)
			}
			return k, nil
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", k, e.Reason))
	}

	return "", update.NewError(update.KindBackendUnavailable, string(preferred), "resolve backend",
		strings.Join(reasons, "; "), nil)
}

func (r *Registry) trustedLookPath(name string) (string, error) {
	path, err := r.lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH", name)
	}
	if !r.isTrusted(path) {
		return "", fmt.Errorf("%s resolved to untrusted location %s", name, path)
	}
	return path, nil
}

func (r *Registry) isTrusted(path string) bool {
	return IsTrustedPath(path, r.trusted)
}

// IsTrustedPath reports whether path is absolute and lies under one of
// prefixes.
func IsTrustedPath(path string, prefixes []string) bool {
	if !filepath.IsAbs(path) {
		return false
	}
	clean := filepath.Clean(path)
	for _, prefix := range prefixes {
		if strings.HasPrefix(clean, prefix) {
			return true
		}
	}
	return false
}

func (r *Registry) anyExists(paths []string) bool {
	for _, p := range paths {
		if r.exists(p) {
			return true
		}
	}
	return false
}
