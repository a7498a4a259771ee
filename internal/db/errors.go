// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinels matched by the typed errors below, for use with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrStore       = errors.New("store failure")
	ErrConsistency = errors.New("ownership invariant violated")
	// ErrDuplicate is returned when attempting to insert a record that already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// ValidationError reports an empty or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an operation on an id that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StoreError wraps a connection, query or transaction failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// ConsistencyError reports an edge observed with more than one link row.
type ConsistencyError struct {
	EdgeID     string
	AccountIDs []string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("edge %s has %d owners (%s)", e.EdgeID, len(e.AccountIDs), strings.Join(e.AccountIDs, ", "))
}

func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }

// MapDBError inspects low-level driver errors and maps unique constraint
// violations to ErrDuplicate. Typed driver errors are checked first; the
// string match covers SQLite and wrapped errors.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return ErrDuplicate
	}
	le := strings.ToLower(err.Error())
	if strings.Contains(le, "duplicate") || strings.Contains(le, "unique") || strings.Contains(le, "23505") || strings.Contains(le, "1062") {
		return ErrDuplicate
	}
	return err
}

// wrapStoreErr leaves the package's own typed errors untouched and wraps
// everything else in a StoreError. Duplicates keep ErrDuplicate in the chain.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		ce *ConsistencyError
		se *StoreError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &ce) || errors.As(err, &se) {
		return err
	}
	if MapDBError(err) == ErrDuplicate {
		return &StoreError{Op: op, Err: fmt.Errorf("%w: %v", ErrDuplicate, err)}
	}
	return &StoreError{Op: op, Err: err}
}
