// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"

	"github.com/toeirei/edgemaster/internal/model"
	"github.com/toeirei/edgemaster/internal/security"
	"github.com/uptrace/bun"
)

// AccountManager covers account CRUD. Lists include soft-deleted accounts.
type AccountManager interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	CreateAccount(ctx context.Context, username, password string, roles []string) (string, error)
	UpdateAccount(ctx context.Context, id, username string, roles []string, newPassword *string) error
	SetAccountDeleted(ctx context.Context, id string, deleted bool) error
	HardDeleteAccount(ctx context.Context, id string) error
	SearchAccounts(ctx context.Context, query string) ([]model.Account, error)
}

// EdgeManager covers edge CRUD. ownerFilter nil (or empty) lists every edge.
type EdgeManager interface {
	ListEdges(ctx context.Context, ownerFilter *string) ([]model.Edge, error)
	GetEdge(ctx context.Context, id string) (*model.Edge, error)
	CreateEdge(ctx context.Context, serial, typ string) (string, error)
	UpdateEdge(ctx context.Context, id, serial, typ string) error
	HardDeleteEdge(ctx context.Context, id string) error
	SearchEdges(ctx context.Context, query string) ([]model.Edge, error)
}

// OwnershipManager reads and replaces the owner of an edge.
type OwnershipManager interface {
	GetOwner(ctx context.Context, edgeID string) (*string, error)
	SetOwner(ctx context.Context, edgeID string, accountID *string) error
	CheckConsistency(ctx context.Context) ([]model.OwnershipConflict, error)
}

// AggregateReader serves read-only summaries.
type AggregateReader interface {
	CountDevicesByAccount(ctx context.Context) (map[string]int, error)
	DeviceCounts(ctx context.Context) ([]model.DeviceCount, error)
	ListEdgesWithOwner(ctx context.Context, ownerFilter *string) ([]model.Edge, error)
}

// Store is everything the console needs from the data layer.
type Store interface {
	AccountManager
	EdgeManager
	OwnershipManager
	AggregateReader

	ExportSnapshot(ctx context.Context) (*model.Snapshot, error)
	Maintain(ctx context.Context) error
	Close() error
}

// BunStore is the Bun-backed Store shared by all supported engines.
type BunStore struct {
	bun    *bun.DB
	dbType string
	hasher security.Hasher
	now    func() time.Time
}

var _ Store = (*BunStore)(nil)

// BunDB exposes the underlying *bun.DB for maintenance and tests.
func (s *BunStore) BunDB() *bun.DB { return s.bun }

// DBType returns the engine name the store was opened with.
func (s *BunStore) DBType() string { return s.dbType }

// Close releases the connection pool.
func (s *BunStore) Close() error {
	if s == nil || s.bun == nil {
		return nil
	}
	return s.bun.Close()
}

// timestamp returns the store clock truncated to microseconds, the finest
// precision every supported engine keeps.
func (s *BunStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
