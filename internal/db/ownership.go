// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/toeirei/edgemaster/internal/model"
	"github.com/uptrace/bun"
)

// beforeLinkInsert runs inside the SetOwner transaction after stale links are
// removed. Tests use it to inject failures at that point.
var beforeLinkInsert func(ctx context.Context, tx bun.Tx) error

// GetOwner returns the id of the account that owns edgeID, or nil when the
// edge is unowned. If several link rows exist the lowest account id wins and
// a warning is logged.
func (s *BunStore) GetOwner(ctx context.Context, edgeID string) (*string, error) {
	var owners []string
	if err := QueryRawInto(ctx, s.bun, &owners, "SELECT account_id FROM ownership_links WHERE edge_id = ? ORDER BY account_id ASC", edgeID); err != nil {
		return nil, wrapStoreErr("get owner", err)
	}
	switch len(owners) {
	case 0:
		return nil, nil
	case 1:
	default:
		dbWarnf("db: edge %s has %d ownership links, using %s", edgeID, len(owners), owners[0])
	}
	owner := owners[0]
	return &owner, nil
}

// SetOwner replaces the owner of edgeID. A nil (or empty) accountID leaves
// the edge unowned. Stale links are deleted and the new one inserted in the
// same transaction; on any failure the previous owner stays in place.
func (s *BunStore) SetOwner(ctx context.Context, edgeID string, accountID *string) error {
	if accountID != nil && *accountID == "" {
		accountID = nil
	}
	err := WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		// Concurrent SetOwner calls on the same edge queue on this row lock.
		// SQLite file databases take the writer lock at BEGIN IMMEDIATE.
		lock := "SELECT id FROM edges WHERE id = ?"
		if s.dbType != TypeSQLite {
			lock += " FOR UPDATE"
		}
		var found []string
		if err := QueryRawInto(ctx, tx, &found, lock, edgeID); err != nil {
			return err
		}
		if len(found) == 0 {
			return &NotFoundError{Entity: entityEdge, ID: edgeID}
		}

		if accountID != nil {
			var n int
			if err := QueryRawInto(ctx, tx, &n, "SELECT COUNT(*) FROM accounts WHERE id = ?", *accountID); err != nil {
				return err
			}
			if n == 0 {
				return &NotFoundError{Entity: entityAccount, ID: *accountID}
			}
		}

		if _, err := tx.NewDelete().Model((*OwnershipLinkModel)(nil)).Where("edge_id = ?", edgeID).Exec(ctx); err != nil {
			return err
		}
		if accountID == nil {
			return nil
		}
		if beforeLinkInsert != nil {
			if err := beforeLinkInsert(ctx, tx); err != nil {
				return err
			}
		}
		link := &OwnershipLinkModel{AccountID: *accountID, EdgeID: edgeID}
		_, err := tx.NewInsert().Model(link).Exec(ctx)
		return err
	})
	if err != nil {
		return wrapStoreErr("set owner", err)
	}
	if accountID == nil {
		dbLogf("db: cleared owner of edge %s", edgeID)
	} else {
		dbLogf("db: edge %s now owned by %s", edgeID, *accountID)
	}
	return nil
}

// CheckConsistency lists every edge that has more than one ownership link.
// An empty result means the single-owner rule holds for the whole store.
func (s *BunStore) CheckConsistency(ctx context.Context) ([]model.OwnershipConflict, error) {
	var rows []model.OwnershipLink
	err := QueryRawInto(ctx, s.bun, &rows, `SELECT account_id, edge_id FROM ownership_links
		WHERE edge_id IN (SELECT edge_id FROM ownership_links GROUP BY edge_id HAVING COUNT(*) > 1)
		ORDER BY edge_id ASC, account_id ASC`)
	if err != nil {
		return nil, wrapStoreErr("check consistency", err)
	}
	var out []model.OwnershipConflict
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].EdgeID == r.EdgeID {
			out[n-1].AccountIDs = append(out[n-1].AccountIDs, r.AccountID)
			continue
		}
		out = append(out, model.OwnershipConflict{EdgeID: r.EdgeID, AccountIDs: []string{r.AccountID}})
	}
	return out, nil
}
