// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/backend"
	"github.com/pkgpulse/pkgpulse/internal/nixos"
)

const (
	// OutputText renders human-readable tables.
	OutputText OutputFormat = "text"
	// OutputJSON renders indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputYAML renders YAML.
	OutputYAML OutputFormat = "yaml"
	// OutputTOML renders TOML.
	OutputTOML OutputFormat = "toml"

	// LogLevelDebug enables debug logging.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default log level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn only logs warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError only logs errors.
	LogLevelError LogLevel = "error"

	// DefaultCheckIntervalMinutes is the periodic check cadence of the watch loop.
	DefaultCheckIntervalMinutes = 60
	// DefaultLogMaxSizeMB caps a daemon log file before rotation.
	DefaultLogMaxSizeMB = 10
	// DefaultLogMaxBackups is the number of rotated daemon logs kept.
	DefaultLogMaxBackups = 3
	// DefaultLogMaxAgeDays is how long rotated daemon logs are kept.
	DefaultLogMaxAgeDays = 28
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects how command results are rendered.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// LogLevel is the minimum level written by the logger.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Backend forces a package manager. Empty means auto-detect.
		Backend string `json:"backend" yaml:"backend" toml:"backend" mapstructure:"backend"`
		// CheckIntervalMinutes is the cadence of periodic checks in watch mode.
		CheckIntervalMinutes int `json:"check_interval_minutes" yaml:"check_interval_minutes" toml:"check_interval_minutes" mapstructure:"check_interval_minutes"`
		// AutoCheckOnStartup runs a check after the startup delay in watch mode.
		AutoCheckOnStartup bool `json:"auto_check_on_startup" yaml:"auto_check_on_startup" toml:"auto_check_on_startup" mapstructure:"auto_check_on_startup"`
		// IncludeAUR adds AUR updates when the backend is an AUR helper.
		IncludeAUR bool `json:"include_aur" yaml:"include_aur" toml:"include_aur" mapstructure:"include_aur"`
		// RuntimeDir holds the update lock and the sync file. Empty means $XDG_RUNTIME_DIR.
		RuntimeDir string `json:"runtime_dir" yaml:"runtime_dir" toml:"runtime_dir" mapstructure:"runtime_dir"`
		// NixOS configures NixOS checks and updates
		NixOS NixOSConfig `json:"nixos" yaml:"nixos" toml:"nixos" mapstructure:"nixos"`
		// Log configures logging
		Log LogConfig `json:"log" yaml:"log" toml:"log" mapstructure:"log"`
		// UI configures the user interface
		UI UIConfig `json:"ui" yaml:"ui" toml:"ui" mapstructure:"ui"`
	}

	// NixOSConfig mirrors nixos.ModeConfig in configuration form.
	NixOSConfig struct {
		Mode           string `json:"mode" yaml:"mode" toml:"mode" mapstructure:"mode"`
		ConfigPath     string `json:"config_path" yaml:"config_path" toml:"config_path" mapstructure:"config_path"`
		Hostname       string `json:"hostname" yaml:"hostname" toml:"hostname" mapstructure:"hostname"`
		RebuildPreview bool   `json:"rebuild_preview" yaml:"rebuild_preview" toml:"rebuild_preview" mapstructure:"rebuild_preview"`
	}

	// LogConfig configures log level and the rotating daemon log file.
	LogConfig struct {
		Level LogLevel `json:"level" yaml:"level" toml:"level" mapstructure:"level"`
		// File enables a rotating log file in watch mode when set.
		File       string `json:"file" yaml:"file" toml:"file" mapstructure:"file"`
		MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" toml:"max_size_mb" mapstructure:"max_size_mb"`
		MaxBackups int    `json:"max_backups" yaml:"max_backups" toml:"max_backups" mapstructure:"max_backups"`
		MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" toml:"max_age_days" mapstructure:"max_age_days"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables verbose output
		Verbose bool `json:"verbose" yaml:"verbose" toml:"verbose" mapstructure:"verbose"`
		// Output is the default rendering of command results
		Output OutputFormat `json:"output" yaml:"output" toml:"output" mapstructure:"output"`
	}
)

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: text, json, yaml, toml)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// String returns the string representation of the OutputFormat.
func (f OutputFormat) String() string { return string(f) }

// IsValid returns whether the OutputFormat is one of the defined formats.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case OutputText, OutputJSON, OutputYAML, OutputTOML:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// IsValid validates every field that CUE cannot constrain on its own, such as
// backend names coming from environment overrides.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if c.Backend != "" {
		if _, err := backend.ParseKind(c.Backend); err != nil {
			errs = append(errs, err)
		}
	}
	if c.CheckIntervalMinutes < 1 {
		errs = append(errs, fmt.Errorf("check_interval_minutes must be at least 1, got %d", c.CheckIntervalMinutes))
	}
	if _, err := nixos.ParseMode(c.NixOS.Mode); err != nil {
		errs = append(errs, err)
	}
	if ok, fieldErrs := c.Log.Level.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.UI.Output.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// BackendKind returns the configured backend. The zero Kind means auto-detect.
func (c Config) BackendKind() backend.Kind {
	k, err := backend.ParseKind(c.Backend)
	if err != nil {
		return ""
	}
	return k
}

// ModeConfig converts the NixOS section into a nixos.ModeConfig.
func (c Config) ModeConfig() nixos.ModeConfig {
	mode, err := nixos.ParseMode(c.NixOS.Mode)
	if err != nil {
		mode = nixos.ModeAuto
	}
	return nixos.ModeConfig{
		Mode:           mode,
		ConfigPath:     c.NixOS.ConfigPath,
		Hostname:       c.NixOS.Hostname,
		RebuildPreview: c.NixOS.RebuildPreview,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend:              "",
		CheckIntervalMinutes: DefaultCheckIntervalMinutes,
		AutoCheckOnStartup:   true,
		IncludeAUR:           true,
		RuntimeDir:           "", // Will use $XDG_RUNTIME_DIR if empty
		NixOS: NixOSConfig{
			Mode:           string(nixos.ModeAuto),
			ConfigPath:     nixos.DefaultConfigPath,
			Hostname:       "",
			RebuildPreview: false,
		},
		Log: LogConfig{
			Level:      LogLevelInfo,
			File:       "",
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
		UI: UIConfig{
			Verbose: false,
			Output:  OutputText,
		},
	}
}
