// SPDX-License-Identifier: MPL-2.0

// Package backend is the registry of supported package managers.
//
// Backends are a closed set of Kind values described by a capability table;
// adding a backend means adding a table row, its commands, and a grammar in
// the parser package. The Registry probes which backends are installed,
// accepting only executables that live under trusted system prefixes.
package backend
