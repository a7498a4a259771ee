// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Edgemaster.
//
// Usage:
//
//	go run . [command] [flags]
//	./edgemaster [command] [flags]
//
// See --help for the available commands.
package main

import (
	"os"

	"github.com/toeirei/edgemaster/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
