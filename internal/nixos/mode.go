// SPDX-License-Identifier: MPL-2.0

package nixos

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ModeAuto selects Channels or Flakes by probing the config path.
	ModeAuto Mode = "auto"
	// ModeChannels uses nix-channel and nixos-rebuild --upgrade.
	ModeChannels Mode = "channels"
	// ModeFlakes uses a flake.nix in the config path.
	ModeFlakes Mode = "flakes"

	// DefaultConfigPath is where NixOS keeps the system configuration.
	DefaultConfigPath = "/etc/nixos"
	// DefaultHostnamePath is read when no hostname is configured.
	DefaultHostnamePath = "/etc/hostname"

	flakeManifest = "flake.nix"
	flakeLockFile = "flake.lock"
)

// ErrInvalidMode is the sentinel error wrapped by InvalidModeError.
var ErrInvalidMode = errors.New("invalid nixos mode")

type (
	// Mode is the NixOS configuration style.
	Mode string

	// ModeConfig selects how a NixOS host is checked and updated.
	ModeConfig struct {
		Mode       Mode
		ConfigPath string
		// Hostname selects the nixosConfigurations attribute in Flakes mode.
		// Empty means the flake's default for the current host.
		Hostname string
		// RebuildPreview runs a dry-build after flake inputs moved to report
		// how much would be rebuilt.
		RebuildPreview bool
	}

	// InvalidModeError is returned for unknown mode names.
	InvalidModeError struct {
		Value string
	}

	// Resolver fills ModeConfig defaults from the local system.
	Resolver struct {
		HostnamePath string
	}
)

// Error implements the error interface.
func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid nixos mode %q (valid: auto, channels, flakes)", e.Value)
}

// Unwrap returns ErrInvalidMode for errors.Is.
func (e *InvalidModeError) Unwrap() error { return ErrInvalidMode }

// ParseMode converts a configuration value into a Mode. Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeChannels, ModeFlakes:
		return m, nil
	default:
		return "", &InvalidModeError{Value: s}
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string { return string(m) }

// DetectMode probes configPath for a flake manifest. Absence means Channels.
func DetectMode(configPath string) Mode {
	if _, err := os.Stat(filepath.Join(configPath, flakeManifest)); err == nil {
		return ModeFlakes
	}
	return ModeChannels
}

// Resolve returns cfg with the config path defaulted, the mode probed when
// auto, and the hostname read from the system when empty.
func (r Resolver) Resolve(cfg ModeConfig) (ModeConfig, error) {
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return cfg, err
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfigPath
	}
	if mode == ModeAuto {
		mode = DetectMode(cfg.ConfigPath)
	}
	cfg.Mode = mode

	if cfg.Mode == ModeFlakes && cfg.Hostname == "" {
		cfg.Hostname = r.hostname()
	}
	return cfg, nil
}

// Resolve uses the system hostname file.
func Resolve(cfg ModeConfig) (ModeConfig, error) {
	return Resolver{HostnamePath: DefaultHostnamePath}.Resolve(cfg)
}

func (r Resolver) hostname() string {
	if r.HostnamePath == "" {
		return ""
	}
	data, err := os.ReadFile(r.HostnamePath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
