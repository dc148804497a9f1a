// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	Pacman  Kind = "pacman"
	Paru    Kind = "paru"
	Yay     Kind = "yay"
	Apt     Kind = "apt"
	Dnf     Kind = "dnf"
	Zypper  Kind = "zypper"
	Apk     Kind = "apk"
	Flatpak Kind = "flatpak"
	NixOS   Kind = "nixos"
)

// ErrInvalidKind is the sentinel error wrapped by InvalidKindError.
var ErrInvalidKind = errors.New("invalid backend")

var (
	// preference is the detection order: AUR helpers first so AUR updates
	// are visible, then the distribution managers, then flatpak which can
	// coexist with any of them.
	preference = []Kind{Paru, Yay, Pacman, Apt, Dnf, Zypper, Apk, NixOS, Flatpak}

	capabilities = map[Kind]Capabilities{
		Pacman:  {Binary: "pacman", CheckBinary: "checkupdates", CheckPackage: "pacman-contrib"},
		Paru:    {Binary: "paru", CheckBinary: "checkupdates", CheckPackage: "pacman-contrib", SupportsAUR: true},
		Yay:     {Binary: "yay", CheckBinary: "checkupdates", CheckPackage: "pacman-contrib", SupportsAUR: true},
		Apt:     {Binary: "apt"},
		Dnf:     {Binary: "dnf"},
		Zypper:  {Binary: "zypper"},
		Apk:     {Binary: "apk"},
		Flatpak: {Binary: "flatpak"},
		NixOS:   {Binary: "nixos-rebuild", RequiresPrivilege: true, DualMode: true},
	}
)

type (
	// Kind identifies a package manager backend.
	Kind string

	// Capabilities describes what a backend can do and how it is detected.
	Capabilities struct {
		// Binary is the executable whose presence marks the backend installed.
		Binary string
		// CheckBinary is the executable that performs the update check, when
		// different from Binary.
		CheckBinary string
		// CheckPackage is the distribution package providing CheckBinary.
		CheckPackage string
		// SupportsAUR is true for AUR helpers.
		SupportsAUR bool
		// RequiresPrivilege is true when the check needs root. For dual-mode
		// backends it applies to the privileged sub-mode only.
		RequiresPrivilege bool
		// DualMode is true when the check grammar depends on a ModeConfig.
		DualMode bool
	}

	// InvalidKindError is returned when a name is not a known backend.
	InvalidKindError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid backend %q (valid: %s)", e.Value, strings.Join(kindNames(), ", "))
}

// Unwrap returns ErrInvalidKind for errors.Is.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// ParseKind converts a configuration value into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", &InvalidKindError{Value: s}
	}
	return k, nil
}

// All returns every backend in detection order.
func All() []Kind {
	return slices.Clone(preference)
}

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// IsValid reports whether k is a known backend.
func (k Kind) IsValid() bool {
	_, ok := capabilities[k]
	return ok
}

// Capabilities returns the capability row for k. Unknown kinds get the zero value.
func (k Kind) Capabilities() Capabilities {
	return capabilities[k]
}

// IsArchFamily reports whether k shares the checkupdates grammar.
func (k Kind) IsArchFamily() bool {
	return k == Pacman || k == Paru || k == Yay
}

// family returns the fallback chain for k, starting with k itself.
func (k Kind) family() []Kind {
	switch k {
	case Paru:
		return []Kind{Paru, Yay, Pacman}
	case Yay:
		return []Kind{Yay, Paru, Pacman}
	default:
		return []Kind{k}
	}
}

func kindNames() []string {
	names := make([]string, 0, len(preference))
	for _, k := range preference {
		names = append(names, string(k))
	}
	return names
}
