// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config provides configuration loading, merging, and persistence
// helpers for Edgemaster. It uses Viper for file/env/flag parsing and exposes
// utility functions to read/write configuration files and to build database
// connection strings without leaking the password into diagnostics.
package config
