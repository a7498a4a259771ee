// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"strings"

	"github.com/toeirei/edgemaster/internal/model"
)

// TokenizeSearchQuery splits a query into lower-cased tokens, trimming whitespace.
// Returns nil for empty input.
func TokenizeSearchQuery(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SearchAccounts performs a portable search over accounts using tokenized
// LIKE matching on username and roles. Every token must match one of the
// columns. An empty query returns all accounts.
func (s *BunStore) SearchAccounts(ctx context.Context, q string) ([]model.Account, error) {
	var am []AccountModel
	qb := s.bun.NewSelect().Model(&am)
	for _, tok := range TokenizeSearchQuery(q) {
		like := "%" + tok + "%"
		// LOWER(...) keeps matching case-insensitive across engines.
		qb = qb.Where("(LOWER(username) LIKE ? OR LOWER(roles) LIKE ?)", like, like)
	}
	if err := qb.OrderExpr("username ASC").Scan(ctx); err != nil {
		return nil, wrapStoreErr("search accounts", err)
	}
	out := make([]model.Account, 0, len(am))
	for _, a := range am {
		out = append(out, accountModelToModel(a))
	}
	return out, nil
}

// SearchEdges matches tokens against serial number, type and owner username.
func (s *BunStore) SearchEdges(ctx context.Context, q string) ([]model.Edge, error) {
	tokens := TokenizeSearchQuery(q)
	if len(tokens) == 0 {
		return s.ListEdges(ctx, nil)
	}
	var (
		where []string
		args  []interface{}
	)
	for _, tok := range tokens {
		like := "%" + tok + "%"
		where = append(where, "(LOWER(e.serial_number) LIKE ? OR LOWER(e.type) LIKE ? OR LOWER(COALESCE(a.username, '')) LIKE ?)")
		args = append(args, like, like, like)
	}
	var rows []edgeOwnerRow
	query := edgeOwnerSelect + " WHERE " + strings.Join(where, " AND ") + " ORDER BY e.serial_number ASC, e.id ASC, l.account_id ASC"
	if err := QueryRawInto(ctx, s.bun, &rows, query, args...); err != nil {
		return nil, wrapStoreErr("search edges", err)
	}
	return collapseEdgeRows(rows)
}
