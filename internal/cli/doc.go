// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli implements the edgemaster command tree. NewRootCmd wires
// configuration loading, logging and the store into a Console that every
// subcommand receives explicitly.
package cli
