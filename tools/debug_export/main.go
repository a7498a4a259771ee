// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

// debug_export seeds a throwaway in-memory store with a few accounts and
// edges, moves one edge between owners and prints what the store reports.
// It is a quick way to eyeball the data layer without a real database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/toeirei/edgemaster/internal/db"
	"github.com/toeirei/edgemaster/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(context.Background(), os.Stdout, "file:debprobe?mode=memory&cache=shared"); err != nil {
		fmt.Fprintf(os.Stderr, "debug_export: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, dsn string) error {
	s, err := db.Open(ctx, db.TypeSQLite, dsn, db.WithHasher(security.NewBcryptHasher(bcrypt.MinCost)))
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ids := map[string]string{}
	for _, u := range []string{"user1", "user2", "user3"} {
		id, err := s.CreateAccount(ctx, u, "debug-"+u, []string{"viewer"})
		if err != nil {
			return err
		}
		ids[u] = id
	}
	if err := s.SetAccountDeleted(ctx, ids["user3"], true); err != nil {
		return err
	}

	edge1, err := s.CreateEdge(ctx, "SN-0001", "gateway")
	if err != nil {
		return err
	}
	if _, err := s.CreateEdge(ctx, "SN-0002", "sensor"); err != nil {
		return err
	}
	owner := ids["user1"]
	if err := s.SetOwner(ctx, edge1, &owner); err != nil {
		return err
	}
	owner = ids["user2"]
	if err := s.SetOwner(ctx, edge1, &owner); err != nil {
		return err
	}

	edges, err := s.ListEdgesWithOwner(ctx, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "edges: %d\n", len(edges))
	for _, e := range edges {
		fmt.Fprintf(out, "edge: %s %s owner=%q\n", e.SerialNumber, e.Type, e.OwnerUsername)
	}

	counts, err := s.DeviceCounts(ctx)
	if err != nil {
		return err
	}
	for _, c := range counts {
		fmt.Fprintf(out, "devices: %s=%d\n", c.Username, c.Count)
	}

	conflicts, err := s.CheckConsistency(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "conflicts: %d\n", len(conflicts))

	snap, err := s.ExportSnapshot(ctx)
	if err != nil {
		return err
	}
	// Hashes stay out of debug output.
	for i := range snap.Accounts {
		snap.Accounts[i].CredentialHash = ""
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
