// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/toeirei/edgemaster/internal/security"
	"golang.org/x/crypto/bcrypt"
)

// WithTestStore opens a private in-memory sqlite store for the duration of
// fn and closes it afterwards. Hashing uses the minimum bcrypt cost and the
// clock advances one second per call so updated_at changes are observable.
func WithTestStore(t *testing.T, fn func(s *BunStore)) {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	s, err := Open(context.Background(), TypeSQLite, dsn,
		WithHasher(security.NewBcryptHasher(bcrypt.MinCost)),
		WithClock(steppingClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))),
	)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	fn(s)
}

func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func mustCreateAccount(t *testing.T, s *BunStore, username string, roles ...string) string {
	t.Helper()
	id, err := s.CreateAccount(context.Background(), username, "pw-"+username, roles)
	if err != nil {
		t.Fatalf("CreateAccount(%q) failed: %v", username, err)
	}
	return id
}

func mustCreateEdge(t *testing.T, s *BunStore, serial, typ string) string {
	t.Helper()
	id, err := s.CreateEdge(context.Background(), serial, typ)
	if err != nil {
		t.Fatalf("CreateEdge(%q) failed: %v", serial, err)
	}
	return id
}

func mustSetOwner(t *testing.T, s *BunStore, edgeID string, accountID *string) {
	t.Helper()
	if err := s.SetOwner(context.Background(), edgeID, accountID); err != nil {
		t.Fatalf("SetOwner(%s) failed: %v", edgeID, err)
	}
}

// linkCount counts ownership_links rows for an edge directly in the table.
func linkCount(t *testing.T, s *BunStore, edgeID string) int {
	t.Helper()
	var n int
	if err := QueryRawInto(context.Background(), s.bun, &n, "SELECT COUNT(*) FROM ownership_links WHERE edge_id = ?", edgeID); err != nil {
		t.Fatalf("count links: %v", err)
	}
	return n
}

func strPtr(s string) *string { return &s }
