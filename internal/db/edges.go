// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/toeirei/edgemaster/internal/model"
	"github.com/uptrace/bun"
)

const entityEdge = "edge"

const edgeOwnerSelect = `SELECT e.id, e.serial_number, e.type, e.updated_at,
	l.account_id AS owner_account_id, a.username AS owner_username
	FROM edges AS e
	LEFT JOIN ownership_links AS l ON l.edge_id = e.id
	LEFT JOIN accounts AS a ON a.id = l.account_id`

// ListEdges returns edges ordered by serial number, each annotated with its
// owner. With a non-empty ownerFilter only edges linked to that account are
// returned. An unfiltered listing that finds an edge with several link rows
// fails with a ConsistencyError instead of picking one.
func (s *BunStore) ListEdges(ctx context.Context, ownerFilter *string) ([]model.Edge, error) {
	var rows []edgeOwnerRow
	var err error
	if ownerFilter != nil && *ownerFilter != "" {
		err = QueryRawInto(ctx, s.bun, &rows, edgeOwnerSelect+" WHERE l.account_id = ? ORDER BY e.serial_number ASC, e.id ASC", *ownerFilter)
	} else {
		err = QueryRawInto(ctx, s.bun, &rows, edgeOwnerSelect+" ORDER BY e.serial_number ASC, e.id ASC, l.account_id ASC")
	}
	if err != nil {
		return nil, wrapStoreErr("list edges", err)
	}
	return collapseEdgeRows(rows)
}

// collapseEdgeRows converts joined rows to edges. Rows of the same edge are
// adjacent because of the ORDER BY.
func collapseEdgeRows(rows []edgeOwnerRow) ([]model.Edge, error) {
	out := make([]model.Edge, 0, len(rows))
	for i := 0; i < len(rows); {
		j := i + 1
		for j < len(rows) && rows[j].ID == rows[i].ID {
			j++
		}
		if j-i > 1 {
			owners := make([]string, 0, j-i)
			for _, r := range rows[i:j] {
				owners = append(owners, r.OwnerAccountID.String)
			}
			dbWarnf("db: edge %s has %d ownership links", rows[i].ID, len(owners))
			return nil, &ConsistencyError{EdgeID: rows[i].ID, AccountIDs: owners}
		}
		out = append(out, edgeOwnerRowToModel(rows[i]))
		i = j
	}
	return out, nil
}

// GetEdge returns one edge with its owner annotation.
func (s *BunStore) GetEdge(ctx context.Context, id string) (*model.Edge, error) {
	var rows []edgeOwnerRow
	if err := QueryRawInto(ctx, s.bun, &rows, edgeOwnerSelect+" WHERE e.id = ? ORDER BY l.account_id ASC", id); err != nil {
		return nil, wrapStoreErr("get edge", err)
	}
	if len(rows) == 0 {
		return nil, &NotFoundError{Entity: entityEdge, ID: id}
	}
	edges, err := collapseEdgeRows(rows)
	if err != nil {
		return nil, err
	}
	return &edges[0], nil
}

// CreateEdge stores a new, unowned edge and returns its id.
func (s *BunStore) CreateEdge(ctx context.Context, serial, typ string) (string, error) {
	serial, typ, err := normalizeEdgeFields(serial, typ)
	if err != nil {
		return "", err
	}
	now := s.timestamp()
	em := &EdgeModel{
		ID:           uuid.NewString(),
		SerialNumber: serial,
		Type:         typ,
		UpdatedAt:    &now,
	}
	if _, err := s.bun.NewInsert().Model(em).Exec(ctx); err != nil {
		return "", wrapStoreErr("create edge", err)
	}
	dbLogf("db: created edge %s", em.ID)
	return em.ID, nil
}

// UpdateEdge overwrites serial number and type.
func (s *BunStore) UpdateEdge(ctx context.Context, id, serial, typ string) error {
	serial, typ, err := normalizeEdgeFields(serial, typ)
	if err != nil {
		return err
	}
	res, err := ExecRaw(ctx, s.bun, "UPDATE edges SET serial_number = ?, type = ?, updated_at = ? WHERE id = ?", serial, typ, s.timestamp(), id)
	if err != nil {
		return wrapStoreErr("update edge", err)
	}
	if rowsAffected(res) == 0 {
		return &NotFoundError{Entity: entityEdge, ID: id}
	}
	return nil
}

// HardDeleteEdge removes the edge and its ownership link in one transaction.
// The owning account is left untouched.
func (s *BunStore) HardDeleteEdge(ctx context.Context, id string) error {
	err := WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*OwnershipLinkModel)(nil)).Where("edge_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*EdgeModel)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		if rowsAffected(res) == 0 {
			return &NotFoundError{Entity: entityEdge, ID: id}
		}
		return nil
	})
	if err != nil {
		return wrapStoreErr("hard delete edge", err)
	}
	dbLogf("db: hard deleted edge %s", id)
	return nil
}

func normalizeEdgeFields(serial, typ string) (string, string, error) {
	serial = strings.TrimSpace(serial)
	typ = strings.TrimSpace(typ)
	if serial == "" {
		return "", "", &ValidationError{Field: "serial_number", Reason: "must not be empty"}
	}
	if typ == "" {
		return "", "", &ValidationError{Field: "type", Reason: "must not be empty"}
	}
	return serial, typ, nil
}
