// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/toeirei/edgemaster/internal/model"
	"github.com/uptrace/bun"
)

// ExportSnapshot reads every table inside one transaction so accounts, edges
// and links are mutually consistent.
func (s *BunStore) ExportSnapshot(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{SchemaVersion: model.SnapshotSchemaVersion, CreatedAt: s.timestamp()}
	err := WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		var accounts []AccountModel
		if err := tx.NewSelect().Model(&accounts).OrderExpr("username ASC").Scan(ctx); err != nil {
			return err
		}
		for _, a := range accounts {
			snap.Accounts = append(snap.Accounts, model.SnapshotAccount{
				ID:             a.ID,
				Username:       a.Username,
				CredentialHash: a.CredentialHash.Reveal(),
				Roles:          []string(a.Roles),
				UpdatedAt:      a.UpdatedAt,
				DeletedAt:      a.DeletedAt,
			})
		}

		var edges []EdgeModel
		if err := tx.NewSelect().Model(&edges).OrderExpr("serial_number ASC, id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, e := range edges {
			snap.Edges = append(snap.Edges, model.SnapshotEdge{
				ID:           e.ID,
				SerialNumber: e.SerialNumber,
				Type:         e.Type,
				UpdatedAt:    e.UpdatedAt,
			})
		}

		var links []OwnershipLinkModel
		if err := tx.NewSelect().Model(&links).OrderExpr("edge_id ASC, account_id ASC").Scan(ctx); err != nil {
			return err
		}
		for _, l := range links {
			snap.Links = append(snap.Links, model.OwnershipLink{AccountID: l.AccountID, EdgeID: l.EdgeID})
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("export snapshot", err)
	}
	return snap, nil
}
