// SPDX-License-Identifier: MPL-2.0

// Package output renders command results as text tables or as JSON, YAML, or
// TOML documents.
package output
