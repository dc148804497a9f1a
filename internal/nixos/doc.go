// SPDX-License-Identifier: MPL-2.0

// Package nixos checks a NixOS host for pending changes.
//
// NixOS hosts are managed in one of two modes. Channels hosts are previewed
// with a privileged `nixos-rebuild dry-activate`, which lists the systemd
// units activation would touch. Flakes hosts are previewed by resolving the
// flake inputs into a scratch lock file and reading which inputs moved. Both
// modes produce update.Record values so callers only dispatch on the mode.
package nixos
