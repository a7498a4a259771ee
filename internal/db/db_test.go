// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpen_UnsupportedType(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestOpen_SQLOpenFailureIsStoreError(t *testing.T) {
	prev := sqlOpenFunc
	sqlOpenFunc = func(string, string) (*sql.DB, error) { return nil, errors.New("driver missing") }
	defer func() { sqlOpenFunc = prev }()

	_, err := Open(context.Background(), TypeSQLite, ":memory:")
	var se *StoreError
	if !errors.As(err, &se) || se.Op != "open" {
		t.Fatalf("expected StoreError{Op: open}, got %v", err)
	}
}

func TestOpen_PoolDefaultsSQLite(t *testing.T) {
	t.Setenv("EDGEMASTER_DB_MAX_OPEN_CONNS", "")
	t.Setenv("EDGEMASTER_DB_MAX_IDLE_CONNS", "")

	s, err := Open(context.Background(), TypeSQLite, "file:pool_defaults?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer func() { _ = s.Close() }()
	if got := s.BunDB().DB.Stats().MaxOpenConnections; got != 25 {
		t.Fatalf("MaxOpenConnections = %d; want 25", got)
	}
	if s.DBType() != TypeSQLite {
		t.Fatalf("DBType = %q", s.DBType())
	}
}

func TestOpen_PoolEnvOverride(t *testing.T) {
	t.Setenv("EDGEMASTER_DB_MAX_OPEN_CONNS", "3")

	s, err := Open(context.Background(), TypeSQLite, "file:pool_override?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer func() { _ = s.Close() }()
	if got := s.BunDB().DB.Stats().MaxOpenConnections; got != 3 {
		t.Fatalf("MaxOpenConnections = %d; want 3", got)
	}
}

func TestOpen_PlainMemoryPinsOneConnection(t *testing.T) {
	s, err := Open(context.Background(), TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer func() { _ = s.Close() }()
	if got := s.BunDB().DB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("MaxOpenConnections = %d; want 1", got)
	}
	if _, err := s.CreateEdge(context.Background(), "SN-1", "sensor"); err != nil {
		t.Fatalf("schema not visible on pinned connection: %v", err)
	}
}

func TestRunMigrationsSqlite_Idempotent(t *testing.T) {
	ctx := context.Background()
	dbConn, err := sql.Open("sqlite", "file:test_migrations?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer func() { _ = dbConn.Close() }()

	for i := 0; i < 2; i++ {
		if err := RunMigrations(ctx, dbConn, TypeSQLite); err != nil {
			t.Fatalf("RunMigrations run %d failed: %v", i, err)
		}
	}

	var versions []string
	rows, err := dbConn.Query("SELECT version FROM schema_migrations")
	if err != nil {
		t.Fatalf("query schema_migrations failed: %v", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan version failed: %v", err)
		}
		versions = append(versions, v)
	}
	if len(versions) != 1 || versions[0] != "0001_init" {
		t.Fatalf("versions = %v; want [0001_init]", versions)
	}

	for _, table := range []string{"accounts", "edges", "ownership_links"} {
		var name string
		if err := dbConn.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestEmbeddedMigrations_EveryDialect(t *testing.T) {
	for _, dialect := range []string{TypeSQLite, TypePostgres, TypeMySQL} {
		data, err := embeddedMigrations.ReadFile("migrations/" + dialect + "/0001_init.up.sql")
		if err != nil {
			t.Fatalf("%s: %v", dialect, err)
		}
		stmts := splitStatements(string(data))
		if len(stmts) < 3 {
			t.Fatalf("%s: only %d statements", dialect, len(stmts))
		}
		joined := strings.Join(stmts, "\n")
		if !strings.Contains(joined, "ON DELETE CASCADE") {
			t.Fatalf("%s: link table must cascade", dialect)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	script := "-- header comment\nCREATE TABLE a (id INT);\n\n  -- indented comment\nCREATE INDEX i ON a(id);\n"
	got := splitStatements(script)
	if len(got) != 2 {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id INT)" || got[1] != "CREATE INDEX i ON a(id)" {
		t.Fatalf("unexpected statements: %q", got)
	}
}

func TestSqliteDSN(t *testing.T) {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	cases := []struct{ in, want string }{
		{"file:x.db", "file:x.db?" + pragmas + "&_txlock=immediate"},
		{"./edgemaster.db", "file:./edgemaster.db?" + pragmas + "&_txlock=immediate"},
		{"file:x?mode=memory", "file:x?mode=memory&" + pragmas},
		{":memory:", "file::memory:?" + pragmas},
		{"file:x?_pragma=foreign_keys(0)", "file:x?_pragma=foreign_keys(0)&_pragma=busy_timeout(5000)&_txlock=immediate"},
		{"file:x?_txlock=deferred&_pragma=busy_timeout(100)", "file:x?_txlock=deferred&_pragma=busy_timeout(100)&_pragma=foreign_keys(1)"},
	}
	for _, c := range cases {
		if got := sqliteDSN(c.in); got != c.want {
			t.Fatalf("sqliteDSN(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestOpen_PlainPathEnablesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.db")
	s, err := Open(context.Background(), TypeSQLite, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	var fk, busy int
	if err := QueryRawInto(ctx, s.bun, &fk, "PRAGMA foreign_keys"); err != nil {
		t.Fatalf("read foreign_keys: %v", err)
	}
	if err := QueryRawInto(ctx, s.bun, &busy, "PRAGMA busy_timeout"); err != nil {
		t.Fatalf("read busy_timeout: %v", err)
	}
	if fk != 1 || busy != 5000 {
		t.Fatalf("foreign_keys=%d busy_timeout=%d; want 1 and 5000", fk, busy)
	}
}

func TestDriverName(t *testing.T) {
	if driverName(TypePostgres) != "pgx" || driverName(TypeMySQL) != "mysql" || driverName(TypeSQLite) != "sqlite" {
		t.Fatalf("unexpected driver mapping")
	}
}

func TestMaintainSqlite_Smoke(t *testing.T) {
	WithTestStore(t, func(s *BunStore) {
		mustCreateAccount(t, s, "alice")
		if err := s.Maintain(context.Background()); err != nil {
			t.Fatalf("Maintain failed: %v", err)
		}
	})
}

func TestClose_NilSafe(t *testing.T) {
	var s *BunStore
	if err := s.Close(); err != nil {
		t.Fatalf("Close on nil store: %v", err)
	}
}

func TestMySQLDSN_ForcesParseTimeAndFoundRows(t *testing.T) {
	got, err := mysqlDSN("edge:secret@tcp(db:3306)/edgemaster")
	if err != nil {
		t.Fatalf("mysqlDSN failed: %v", err)
	}
	for _, want := range []string{"parseTime=true", "clientFoundRows=true", "tcp(db:3306)/edgemaster"} {
		if !strings.Contains(got, want) {
			t.Fatalf("mysqlDSN = %q; missing %q", got, want)
		}
	}
	if _, err := mysqlDSN("not a dsn"); err == nil {
		t.Fatalf("expected parse error")
	}
}
