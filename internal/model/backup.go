// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "time"

// SnapshotSchemaVersion is bumped whenever the Snapshot layout changes.
const SnapshotSchemaVersion = 1

// Snapshot is a point-in-time export of every table, written by the backup
// command. Credential hashes are exported as plain strings here because the
// backup must be restorable; the file is written with 0600 permissions.
type Snapshot struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`

	Accounts []SnapshotAccount `json:"accounts"`
	Edges    []SnapshotEdge    `json:"edges"`
	Links    []OwnershipLink   `json:"ownership_links"`
}

// SnapshotAccount is the exported form of an account row.
type SnapshotAccount struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	CredentialHash string     `json:"credential_hash"`
	Roles          []string   `json:"roles"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// SnapshotEdge is the exported form of an edge row.
type SnapshotEdge struct {
	ID           string     `json:"id"`
	SerialNumber string     `json:"serial_number"`
	Type         string     `json:"type"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}
