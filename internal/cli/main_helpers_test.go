// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/toeirei/edgemaster/internal/db"
	"github.com/toeirei/edgemaster/internal/security"
	"golang.org/x/crypto/bcrypt"
)

// isolateConfig points every config search path at an empty temp dir so a
// developer's own edgemaster.yaml cannot leak into the tests.
func isolateConfig(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
	for _, k := range []string{"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SSLMODE"} {
		t.Setenv(k, "")
	}
	return tmp
}

// setupTestStore opens a private in-memory sqlite store and closes it when
// the test ends.
func setupTestStore(t *testing.T) *db.BunStore {
	t.Helper()
	isolateConfig(t)
	dsn := "file:cli_" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	s, err := db.Open(context.Background(), db.TypeSQLite, dsn,
		db.WithHasher(security.NewBcryptHasher(bcrypt.MinCost)))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// runCommand executes the command tree against s with input as stdin and
// returns everything written to stdout and stderr.
func runCommand(t *testing.T, s db.Store, input string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(WithStore(s), WithInput(strings.NewReader(input)))
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// executeCommand is runCommand for commands that must succeed.
func executeCommand(t *testing.T, s db.Store, args ...string) string {
	t.Helper()
	out, err := runCommand(t, s, "", args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\noutput: %s", args, err, out)
	}
	return out
}
