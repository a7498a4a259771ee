// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBackupFileName(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	if got := backupFileName(nil, now); got != "edgemaster-backup-2026-10-17.json.zst" {
		t.Fatalf("unexpected default name %q", got)
	}
	if got := backupFileName([]string{"out.json"}, now); got != "out.json.zst" {
		t.Fatalf("expected .zst suffix to be appended, got %q", got)
	}
	if got := backupFileName([]string{"out.json.zst"}, now); got != "out.json.zst" {
		t.Fatalf("expected name to be kept, got %q", got)
	}
}

func TestBackup_WritesReadableSnapshot(t *testing.T) {
	s := setupTestStore(t)
	executeCommand(t, s, "account", "create", "-u", "alice", "-p", "pw")
	executeCommand(t, s, "edge", "create", "--serial", "SN-1", "--type", "sensor", "--owner", "alice")
	executeCommand(t, s, "edge", "create", "--serial", "SN-2", "--type", "gateway")

	target := filepath.Join(t.TempDir(), "snap.json")
	output := executeCommand(t, s, "backup", target)
	written := target + ".zst"
	if !strings.Contains(output, written) {
		t.Fatalf("expected output to name %s, got: %s", written, output)
	}

	fi, err := os.Stat(written)
	if err != nil {
		t.Fatalf("backup file missing: %v", err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}

	snap, err := readCompressedSnapshot(written)
	if err != nil {
		t.Fatalf("readCompressedSnapshot: %v", err)
	}
	if len(snap.Accounts) != 1 || len(snap.Edges) != 2 || len(snap.Links) != 1 {
		t.Fatalf("unexpected snapshot contents: %d accounts, %d edges, %d links",
			len(snap.Accounts), len(snap.Edges), len(snap.Links))
	}
	if snap.Links[0].AccountID != snap.Accounts[0].ID {
		t.Fatalf("link does not reference the exported account")
	}

	output = executeCommand(t, nil, "backup", "info", written)
	if !strings.Contains(output, "edges:          2") {
		t.Fatalf("unexpected info output: %s", output)
	}
}

func TestBackupInfo_RejectsGarbage(t *testing.T) {
	isolateConfig(t)
	bad := filepath.Join(t.TempDir(), "bad.zst")
	if err := os.WriteFile(bad, []byte("not zstd"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := runCommand(t, nil, "", "backup", "info", bad); err == nil {
		t.Fatalf("expected error for invalid backup file")
	}
}
