// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the core data structures managed by Edgemaster:
// accounts, edge devices and the ownership links between them.
package model // import "github.com/toeirei/edgemaster/internal/model"

import (
	"time"

	"github.com/toeirei/edgemaster/internal/security"
)

// Account is an administrative principal that may own edge devices.
// Soft-deleted accounts keep their row; DeletedAt marks them inactive.
type Account struct {
	ID             string
	Username       string
	CredentialHash security.Secret
	Roles          RoleSet
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// IsDeleted reports whether the account has been soft-deleted.
func (a Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

// String returns the username, which is what operators recognise.
func (a Account) String() string {
	return a.Username
}

// Edge is a physical or network endpoint.
//
// OwnerAccountID and OwnerUsername are derived from the ownership_links
// table when the edge is read. They are never written to the edges row;
// an empty OwnerAccountID means the edge is unowned.
type Edge struct {
	ID           string
	SerialNumber string
	Type         string
	UpdatedAt    *time.Time

	OwnerAccountID string
	OwnerUsername  string
}

// IsOwned reports whether the edge currently has an owning account.
func (e Edge) IsOwned() bool {
	return e.OwnerAccountID != ""
}

// OwnershipLink is a single row of the account <-> edge relation.
type OwnershipLink struct {
	AccountID string `json:"account_id"`
	EdgeID    string `json:"edge_id"`
}

// DeviceCount is the number of edges linked to one account.
type DeviceCount struct {
	AccountID string
	Username  string
	Count     int
}

// OwnershipConflict describes an edge that has more than one link row.
// It is only ever produced by consistency checks; the ownership manager
// never creates one.
type OwnershipConflict struct {
	EdgeID     string
	AccountIDs []string
}
