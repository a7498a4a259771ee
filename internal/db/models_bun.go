// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"time"

	"github.com/toeirei/edgemaster/internal/model"
	"github.com/toeirei/edgemaster/internal/security"
	"github.com/uptrace/bun"
)

// AccountModel maps the accounts table for Bun queries.
type AccountModel struct {
	bun.BaseModel  `bun:"table:accounts"`
	ID             string          `bun:"id,pk"`
	Username       string          `bun:"username,notnull"`
	CredentialHash security.Secret `bun:"credential_hash,notnull"`
	Roles          model.RoleSet   `bun:"roles,type:text,notnull"`
	UpdatedAt      time.Time       `bun:"updated_at,notnull"`
	DeletedAt      *time.Time      `bun:"deleted_at"`
}

// EdgeModel maps the edges table.
type EdgeModel struct {
	bun.BaseModel `bun:"table:edges"`
	ID            string     `bun:"id,pk"`
	SerialNumber  string     `bun:"serial_number,notnull"`
	Type          string     `bun:"type,notnull"`
	UpdatedAt     *time.Time `bun:"updated_at"`
}

// OwnershipLinkModel maps ownership_links. Only the ownership manager
// inserts through it.
type OwnershipLinkModel struct {
	bun.BaseModel `bun:"table:ownership_links"`
	AccountID     string `bun:"account_id,pk"`
	EdgeID        string `bun:"edge_id,pk"`
}

// edgeOwnerRow is one row of edges LEFT JOIN ownership_links LEFT JOIN accounts.
type edgeOwnerRow struct {
	ID             string         `bun:"id"`
	SerialNumber   string         `bun:"serial_number"`
	Type           string         `bun:"type"`
	UpdatedAt      *time.Time     `bun:"updated_at"`
	OwnerAccountID sql.NullString `bun:"owner_account_id"`
	OwnerUsername  sql.NullString `bun:"owner_username"`
}

func accountModelToModel(a AccountModel) model.Account {
	return model.Account{
		ID:             a.ID,
		Username:       a.Username,
		CredentialHash: a.CredentialHash,
		Roles:          a.Roles,
		UpdatedAt:      a.UpdatedAt,
		DeletedAt:      a.DeletedAt,
	}
}

func edgeOwnerRowToModel(r edgeOwnerRow) model.Edge {
	e := model.Edge{
		ID:           r.ID,
		SerialNumber: r.SerialNumber,
		Type:         r.Type,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.OwnerAccountID.Valid {
		e.OwnerAccountID = r.OwnerAccountID.String
	}
	if r.OwnerUsername.Valid {
		e.OwnerUsername = r.OwnerUsername.String
	}
	return e
}
