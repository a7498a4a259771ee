// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds the credential hasher and the Secret type used to
// keep passwords and hashes out of logs and diagnostic output.
package security
