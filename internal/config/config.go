// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkgpulse/pkgpulse/internal/issue"
	"github.com/pkgpulse/pkgpulse/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "pkgpulse"
	// EnvPrefix prefixes environment overrides, e.g. PKGPULSE_NIXOS_MODE.
	EnvPrefix = "PKGPULSE"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the pkgpulse configuration directory, $XDG_CONFIG_HOME/pkgpulse
// with XDG_CONFIG_HOME defaulting to ~/.config.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the path config.cue is read from for opts.
func ConfigFilePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, nil
	}
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()
	resolvedPath := ""

	// If a custom config file path is set via --config, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigInvalidId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'pkgpulse config init' to write a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", invalidFileError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cuePath, err := ConfigFilePath(opts)
		if err != nil {
			return nil, "", err
		}
		// If no config file is found, defaults and environment apply.
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", invalidFileError(cuePath, err)
			}
			resolvedPath = cuePath
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema and are checked here.
	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigInvalidId).
			WithSuggestionf("Check %s_* environment variables and the configuration file", EnvPrefix).
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// newViper returns a Viper instance carrying defaults and environment bindings.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("check_interval_minutes", defaults.CheckIntervalMinutes)
	v.SetDefault("auto_check_on_startup", defaults.AutoCheckOnStartup)
	v.SetDefault("include_aur", defaults.IncludeAUR)
	v.SetDefault("runtime_dir", defaults.RuntimeDir)
	v.SetDefault("nixos.mode", defaults.NixOS.Mode)
	v.SetDefault("nixos.config_path", defaults.NixOS.ConfigPath)
	v.SetDefault("nixos.hostname", defaults.NixOS.Hostname)
	v.SetDefault("nixos.rebuild_preview", defaults.NixOS.RebuildPreview)
	v.SetDefault("log.level", string(defaults.Log.Level))
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age_days", defaults.Log.MaxAgeDays)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.output", string(defaults.UI.Output))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func invalidFileError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithIssue(issue.ConfigInvalidId).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("Run 'pkgpulse config show' to see the effective configuration").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates a CUE file against the #Config schema and merges
// its contents into Viper. Fields are optional, so validation is not concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	result, err := cueutil.ParseAndDecode[map[string]any](
		[]byte(configSchema), data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(*result.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file at path. An existing file
// is left alone unless force is set. It reports whether a file was written.
func CreateDefaultConfig(path string, force bool) (bool, error) {
	if !force && fileExists(path) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// pkgpulse configuration file\n")
	sb.WriteString("// Environment variables prefixed with PKGPULSE_ override these values.\n\n")

	sb.WriteString("// Empty means auto-detect.\n")
	sb.WriteString(fmt.Sprintf("backend: %q\n", cfg.Backend))
	sb.WriteString(fmt.Sprintf("check_interval_minutes: %d\n", cfg.CheckIntervalMinutes))
	sb.WriteString(fmt.Sprintf("auto_check_on_startup: %v\n", cfg.AutoCheckOnStartup))
	sb.WriteString(fmt.Sprintf("include_aur: %v\n", cfg.IncludeAUR))
	if cfg.RuntimeDir != "" {
		sb.WriteString(fmt.Sprintf("runtime_dir: %q\n", cfg.RuntimeDir))
	}

	sb.WriteString("\nnixos: {\n")
	sb.WriteString(fmt.Sprintf("\tmode: %q\n", cfg.NixOS.Mode))
	sb.WriteString(fmt.Sprintf("\tconfig_path: %q\n", cfg.NixOS.ConfigPath))
	if cfg.NixOS.Hostname != "" {
		sb.WriteString(fmt.Sprintf("\thostname: %q\n", cfg.NixOS.Hostname))
	}
	sb.WriteString(fmt.Sprintf("\trebuild_preview: %v\n", cfg.NixOS.RebuildPreview))
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	sb.WriteString(fmt.Sprintf("\tlevel: %q\n", cfg.Log.Level))
	if cfg.Log.File != "" {
		sb.WriteString(fmt.Sprintf("\tfile: %q\n", cfg.Log.File))
	}
	sb.WriteString(fmt.Sprintf("\tmax_size_mb: %d\n", cfg.Log.MaxSizeMB))
	sb.WriteString(fmt.Sprintf("\tmax_backups: %d\n", cfg.Log.MaxBackups))
	sb.WriteString(fmt.Sprintf("\tmax_age_days: %d\n", cfg.Log.MaxAgeDays))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString(fmt.Sprintf("\toutput: %q\n", cfg.UI.Output))
	sb.WriteString("}\n")

	return sb.String()
}
