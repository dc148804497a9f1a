// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pkgpulse.
//
// Commands are built per App so tests can inject configuration, runners and
// output streams. Execute builds the production App and runs the command tree
// through fang.
package cmd
