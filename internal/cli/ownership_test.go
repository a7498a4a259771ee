// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/toeirei/edgemaster/internal/db"
)

func TestOwnerSet_ReplacesPreviousOwner(t *testing.T) {
	s := setupTestStore(t)
	executeCommand(t, s, "account", "create", "-u", "alice", "-p", "pw")
	executeCommand(t, s, "account", "create", "-u", "bob", "-p", "pw")
	executeCommand(t, s, "edge", "create", "--serial", "SN-1", "--type", "sensor")

	output := executeCommand(t, s, "owner", "get", "SN-1")
	if !strings.Contains(output, "Edge SN-1 has no owner.") {
		t.Fatalf("expected no owner, got: %s", output)
	}

	output = executeCommand(t, s, "owner", "set", "SN-1", "alice")
	if !strings.Contains(output, "Edge SN-1 is now owned by alice.") {
		t.Fatalf("unexpected set output: %s", output)
	}
	executeCommand(t, s, "owner", "set", "SN-1", "bob")

	output = executeCommand(t, s, "owner", "get", "SN-1")
	if !strings.Contains(output, "bob") || strings.Contains(output, "alice") {
		t.Fatalf("expected bob as sole owner, got: %s", output)
	}
	output = executeCommand(t, s, "edge", "list", "--owner", "alice")
	if !strings.Contains(output, "No edges found.") {
		t.Fatalf("expected alice to own nothing, got: %s", output)
	}

	output = executeCommand(t, s, "owner", "clear", "SN-1")
	if !strings.Contains(output, "Edge SN-1 no longer has an owner.") {
		t.Fatalf("unexpected clear output: %s", output)
	}
	owner, err := s.GetEdge(context.Background(), mustEdgeID(t, s, "SN-1"))
	if err != nil {
		t.Fatalf("GetEdge: %v", err)
	}
	if owner.IsOwned() {
		t.Fatalf("expected edge to be unowned after clear, owner=%s", owner.OwnerAccountID)
	}
}

func TestOwnerSet_UnknownAccount(t *testing.T) {
	s := setupTestStore(t)
	executeCommand(t, s, "edge", "create", "--serial", "SN-1", "--type", "sensor")

	_, err := runCommand(t, s, "", "owner", "set", "SN-1", "ghost")
	if !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestStats_CountsDevicesPerAccount(t *testing.T) {
	s := setupTestStore(t)
	executeCommand(t, s, "account", "create", "-u", "alice", "-p", "pw")
	executeCommand(t, s, "account", "create", "-u", "bob", "-p", "pw")
	executeCommand(t, s, "edge", "create", "--serial", "SN-1", "--type", "sensor", "--owner", "alice")
	executeCommand(t, s, "edge", "create", "--serial", "SN-2", "--type", "sensor", "--owner", "alice")

	output := executeCommand(t, s, "stats")
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, two accounts and total, got: %q", output)
	}
	if f := strings.Fields(lines[1]); f[0] != "alice" || f[len(f)-1] != "2" {
		t.Fatalf("unexpected alice row: %q", lines[1])
	}
	if f := strings.Fields(lines[2]); f[0] != "bob" || f[len(f)-1] != "0" {
		t.Fatalf("unexpected bob row: %q", lines[2])
	}
	if f := strings.Fields(lines[3]); f[0] != "TOTAL" || f[len(f)-1] != "2" {
		t.Fatalf("unexpected total row: %q", lines[3])
	}
}

func TestDoctor_ReportsConflicts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	output := executeCommand(t, s, "doctor")
	if !strings.Contains(output, "No ownership conflicts found.") {
		t.Fatalf("expected clean report, got: %s", output)
	}

	executeCommand(t, s, "account", "create", "-u", "alice", "-p", "pw")
	executeCommand(t, s, "account", "create", "-u", "bob", "-p", "pw")
	executeCommand(t, s, "edge", "create", "--serial", "SN-1", "--type", "sensor", "--owner", "alice")
	edgeID := mustEdgeID(t, s, "SN-1")
	bob, err := s.GetAccountByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetAccountByUsername: %v", err)
	}
	// Simulate a legacy duplicate that the ownership manager itself never writes.
	if _, err := db.ExecRaw(ctx, s.BunDB(), "INSERT INTO ownership_links (account_id, edge_id) VALUES (?, ?)", bob.ID, edgeID); err != nil {
		t.Fatalf("insert duplicate link: %v", err)
	}

	output, err = runCommand(t, s, "", "doctor")
	if err == nil {
		t.Fatalf("expected doctor to fail on conflicts, output: %s", output)
	}
	if !strings.Contains(output, "Edge "+edgeID+" has 2 owners") {
		t.Fatalf("expected conflict line, got: %s", output)
	}

	_, err = runCommand(t, s, "", "edge", "list")
	if !errors.Is(err, db.ErrConsistency) {
		t.Fatalf("expected consistency error from edge list, got %v", err)
	}

	// Setting the owner again repairs the edge.
	executeCommand(t, s, "owner", "set", edgeID, "bob")
	executeCommand(t, s, "doctor")
}

func mustEdgeID(t *testing.T, s db.Store, serial string) string {
	t.Helper()
	edges, err := s.SearchEdges(context.Background(), serial)
	if err != nil {
		t.Fatalf("SearchEdges(%q): %v", serial, err)
	}
	for _, e := range edges {
		if e.SerialNumber == serial {
			return e.ID
		}
	}
	t.Fatalf("edge %q not found", serial)
	return ""
}
