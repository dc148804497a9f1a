// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/pkgpulse/config.cue (defaulting to
// ~/.config/pkgpulse/config.cue). Values are layered as defaults, then the file,
// then PKGPULSE_* environment variables. The file is validated against an embedded
// CUE schema (config_schema.cue) before being merged into Viper.
package config
