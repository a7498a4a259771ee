// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db // import "github.com/toeirei/edgemaster/internal/db"

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/toeirei/edgemaster/internal/security"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	// SQL drivers for the supported engines.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database types.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
)

var (
	//go:embed migrations
	embeddedMigrations embed.FS
	// sqlOpenFunc allows tests to override database opening behavior.
	sqlOpenFunc = sql.Open
)

// Option configures a BunStore at open time.
type Option func(*BunStore)

// WithHasher replaces the credential hasher (bcrypt at default cost otherwise).
func WithHasher(h security.Hasher) Option {
	return func(s *BunStore) { s.hasher = h }
}

// WithClock replaces the time source used for updated_at/deleted_at.
func WithClock(now func() time.Time) Option {
	return func(s *BunStore) { s.now = now }
}

// driverName maps a database type to the registered database/sql driver.
// The pgx stdlib registers driver name "pgx".
func driverName(dbType string) string {
	if dbType == TypePostgres {
		return "pgx"
	}
	return dbType
}

// Open opens a sql.DB for the given DSN, runs migrations, and returns a
// BunStore backed by a long-lived *bun.DB. The DSN itself is never logged.
func Open(ctx context.Context, dbType, dsn string, opts ...Option) (*BunStore, error) {
	switch dbType {
	case TypeSQLite, TypePostgres, TypeMySQL:
	default:
		return nil, fmt.Errorf("unsupported database type: '%s'", dbType)
	}
	switch dbType {
	case TypeSQLite:
		dsn = sqliteDSN(dsn)
	case TypeMySQL:
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, &StoreError{Op: "open", Err: err}
		}
	}

	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName(dbType), dsn)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	maxOpen, connIdle, connMax := configurePool(sqlDB, dbType, dsn)
	dbLogf("db: opened %s driver in %s (conn max open=%d, idle=%ds, maxLifetime=%s)", driverName(dbType), time.Since(start), maxOpen, connIdle, connMax)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, &StoreError{Op: "ping", Err: err}
	}

	migStart := time.Now()
	if err := RunMigrations(ctx, sqlDB, dbType); err != nil {
		_ = sqlDB.Close()
		return nil, &StoreError{Op: "migrate", Err: err}
	}
	dbLogf("db: migrations for %s completed in %s", dbType, time.Since(migStart))

	s := &BunStore{
		bun:    createBunDB(sqlDB, dbType),
		dbType: dbType,
		hasher: security.NewBcryptHasher(0),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// sqliteDSN turns dsn into a file: URI with foreign keys on and a busy
// timeout so concurrent writers wait for the lock instead of failing. File
// databases also start write transactions with BEGIN IMMEDIATE, which makes
// the edge lock in SetOwner a real writer lock. Pragmas already present in
// dsn are left alone.
func sqliteDSN(dsn string) string {
	if dsn == ":memory:" {
		dsn = "file::memory:"
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	params := []string{}
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !sqliteInMemory(dsn) && !strings.Contains(dsn, "_txlock") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func sqliteInMemory(dsn string) bool {
	return strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}

// mysqlDSN makes DATETIME columns scan into time.Time and makes UPDATE
// report matched rather than changed rows, which the not-found checks rely on.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

// configurePool applies connection pool limits. Values can be overridden via
// environment variables for CI or production tuning.
func configurePool(sqlDB *sql.DB, dbType, dsn string) (maxOpen, connIdle int, connMax time.Duration) {
	const (
		defaultMaxOpenConns    = 25
		defaultMaxIdleConns    = 25
		defaultConnMaxLifetime = 5 * time.Minute
		defaultConnMaxIdleSecs = 60
	)

	maxOpen = envInt("EDGEMASTER_DB_MAX_OPEN_CONNS", defaultMaxOpenConns)
	maxIdle := envInt("EDGEMASTER_DB_MAX_IDLE_CONNS", defaultMaxIdleConns)

	// An unshared in-memory database exists per connection, so pin the pool
	// to a single connection or schema changes become invisible to other conns.
	if dbType == TypeSQLite && sqliteInMemory(dsn) && !strings.Contains(dsn, "cache=shared") {
		maxOpen = 1
		maxIdle = 1
	}
	connMax = time.Duration(envInt("EDGEMASTER_DB_CONN_MAX_LIFETIME_SECONDS", int(defaultConnMaxLifetime/time.Second))) * time.Second
	connIdle = envInt("EDGEMASTER_DB_CONN_MAX_IDLE_SECONDS", defaultConnMaxIdleSecs)

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(connMax)
	sqlDB.SetConnMaxIdleTime(time.Duration(connIdle) * time.Second)
	return maxOpen, connIdle, connMax
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// createBunDB constructs a *bun.DB for the provided *sql.DB and dbType.
func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case TypePostgres:
		return bun.NewDB(sqlDB, pgdialect.New())
	case TypeMySQL:
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// RunMigrations applies the embedded migrations for dbType that are not yet
// recorded in schema_migrations. Each migration runs in its own transaction.
func RunMigrations(ctx context.Context, db *sql.DB, dbType string) error {
	migrationsPath := fmt.Sprintf("migrations/%s", dbType)

	entries, err := fs.ReadDir(embeddedMigrations, migrationsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			dbLogf("db: no migrations embedded for %s", dbType)
			return nil
		}
		return fmt.Errorf("failed to read embedded migrations (%s): %w", migrationsPath, err)
	}

	var ups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	if err := ensureSchemaMigrationsTable(ctx, db, dbType); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	selectQuery := "SELECT 1 FROM schema_migrations WHERE version = ?"
	insertQuery := "INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)"
	if dbType == TypePostgres {
		selectQuery = "SELECT 1 FROM schema_migrations WHERE version = $1"
		insertQuery = "INSERT INTO schema_migrations(version, applied_at) VALUES($1, $2)"
	}

	for _, fname := range ups {
		version := strings.TrimSuffix(fname, ".up.sql")

		var exists int
		err := db.QueryRowContext(ctx, selectQuery, version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check migration version %s: %w", version, err)
		}

		p := path.Join(migrationsPath, fname)
		data, err := embeddedMigrations.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", p, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", version, err)
		}
		for _, stmt := range splitStatements(string(data)) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to execute migration %s: %w", version, err)
			}
		}
		if _, err := tx.ExecContext(ctx, insertQuery, version, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", version, err)
		}
		dbLogf("db: applied migration %s", version)
	}
	return nil
}

// splitStatements splits a migration file on statement terminators so each
// statement is sent separately; the MySQL driver rejects multi-statement
// strings unless multiStatements is enabled. Lines starting with "--" are
// dropped.
func splitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// ensureSchemaMigrationsTable creates schema_migrations if missing.
// MySQL cannot index TEXT columns without a length, so it gets a VARCHAR.
func ensureSchemaMigrationsTable(ctx context.Context, db *sql.DB, dbType string) error {
	ddl := `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP)`
	if dbType == TypeMySQL {
		ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(191) PRIMARY KEY, applied_at TIMESTAMP NULL)`
	}
	_, err := db.ExecContext(ctx, ddl)
	return err
}

// Maintain performs engine-specific maintenance tasks. For SQLite this runs
// PRAGMA optimize, VACUUM, a WAL checkpoint and an integrity check. For
// Postgres it runs VACUUM ANALYZE. For MySQL it runs OPTIMIZE TABLE for every
// table.
func (s *BunStore) Maintain(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	sqlDB := s.bun.DB

	switch s.dbType {
	case TypeSQLite:
		// PRAGMA optimize is not useful everywhere (e.g. in-memory databases).
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
			dbLogf("db: sqlite optimize failed (ignored): %v", err)
		}
		if _, err := sqlDB.ExecContext(ctx, "VACUUM;"); err != nil {
			return &StoreError{Op: "maintain", Err: fmt.Errorf("sqlite vacuum failed: %w", err)}
		}
		_, _ = sqlDB.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);")
		var res string
		if err := sqlDB.QueryRowContext(ctx, "PRAGMA integrity_check;").Scan(&res); err != nil {
			return &StoreError{Op: "maintain", Err: err}
		}
		if res != "ok" {
			return &StoreError{Op: "maintain", Err: fmt.Errorf("sqlite integrity_check failed: %s", res)}
		}
	case TypePostgres:
		if _, err := sqlDB.ExecContext(ctx, "VACUUM ANALYZE;"); err != nil {
			return &StoreError{Op: "maintain", Err: fmt.Errorf("postgres vacuum failed: %w", err)}
		}
	case TypeMySQL:
		rows, err := sqlDB.QueryContext(ctx, "SHOW TABLES")
		if err != nil {
			return &StoreError{Op: "maintain", Err: fmt.Errorf("mysql show tables failed: %w", err)}
		}
		var tables []string
		for rows.Next() {
			var table string
			if err := rows.Scan(&table); err != nil {
				_ = rows.Close()
				return &StoreError{Op: "maintain", Err: err}
			}
			tables = append(tables, table)
		}
		_ = rows.Close()
		var lastErr error
		for _, table := range tables {
			if _, err := sqlDB.ExecContext(ctx, fmt.Sprintf("OPTIMIZE TABLE `%s`", table)); err != nil {
				dbLogf("db: mysql optimize table %s failed: %v", table, err)
				lastErr = err
			}
		}
		if lastErr != nil {
			return &StoreError{Op: "maintain", Err: fmt.Errorf("mysql optimize encountered errors: %w", lastErr)}
		}
	}
	return nil
}
