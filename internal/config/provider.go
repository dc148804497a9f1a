// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects where config.cue is read from. With neither field
	// set, the file in ConfigDir is used when present and defaults otherwise.
	LoadOptions struct {
		// ConfigFilePath is the --config flag. The file must exist.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir, e.g. a temp dir in tests.
		ConfigDirPath string
	}

	// Provider yields the effective pkgpulse configuration: defaults, then
	// config.cue, then PKGPULSE_* environment overrides, validated as a whole.
	// The CLI depends on this interface so commands can run against a fixed
	// Config in tests.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	cueProvider struct{}
)

// NewProvider returns the Provider backed by config.cue and viper.
func NewProvider() Provider {
	return cueProvider{}
}

func (cueProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}

// Source returns the config file opts resolve to and whether Load reads it.
// False means only defaults and environment overrides apply.
func Source(opts LoadOptions) (string, bool) {
	path, err := ConfigFilePath(opts)
	if err != nil {
		return "", false
	}
	return path, fileExists(path)
}
