// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/toeirei/edgemaster/internal/model"
)

const deviceCountSelect = `SELECT a.id AS account_id, a.username AS username, COUNT(l.edge_id) AS count
	FROM accounts AS a
	LEFT JOIN ownership_links AS l ON l.account_id = a.id
	GROUP BY a.id, a.username
	ORDER BY a.username ASC`

// CountDevicesByAccount maps every account id, soft-deleted ones included,
// to the number of edges it owns. Accounts without edges map to 0.
func (s *BunStore) CountDevicesByAccount(ctx context.Context) (map[string]int, error) {
	counts, err := s.DeviceCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(counts))
	for _, c := range counts {
		out[c.AccountID] = c.Count
	}
	return out, nil
}

// DeviceCounts returns the same numbers as CountDevicesByAccount ordered by
// username, for display.
func (s *BunStore) DeviceCounts(ctx context.Context) ([]model.DeviceCount, error) {
	var rows []model.DeviceCount
	if err := QueryRawInto(ctx, s.bun, &rows, deviceCountSelect); err != nil {
		return nil, wrapStoreErr("count devices", err)
	}
	return rows, nil
}

// ListEdgesWithOwner is ListEdges under the aggregate contract.
func (s *BunStore) ListEdgesWithOwner(ctx context.Context, ownerFilter *string) ([]model.Edge, error) {
	return s.ListEdges(ctx, ownerFilter)
}
