package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_DuplicateStrings(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"mysql duplicate entry", errors.New("Error 1062: Duplicate entry 'x' for key 'PRIMARY'")},
		{"postgres unique violation", errors.New("duplicate key value violates unique constraint \"accounts_username_key\" (SQLSTATE 23505)")},
		{"sqlite unique constraint", errors.New("UNIQUE constraint failed: accounts.username")},
		{"pgconn typed", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})},
		{"mysql typed", &mysql.MySQLError{Number: 1062, Message: "dup"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mapped := MapDBError(c.err)
			if !errors.Is(mapped, ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate for case %s, got: %v", c.name, mapped)
			}
		})
	}
}

func TestMapDBError_NonDuplicatePassthrough(t *testing.T) {
	e := errors.New("some network error")
	mapped := MapDBError(e)
	if mapped == nil {
		t.Fatalf("expected non-nil error for non-duplicate input")
	}
	if errors.Is(mapped, ErrDuplicate) {
		t.Fatalf("did not expect ErrDuplicate for non-duplicate error")
	}
	if mapped != e {
		t.Fatalf("expected original error to be returned unchanged, got: %v", mapped)
	}
	if MapDBError(nil) != nil {
		t.Fatalf("nil should map to nil")
	}
}

func TestTypedErrors_MatchSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{&ValidationError{Field: "username"}, ErrValidation},
		{&NotFoundError{Entity: "edge", ID: "e1"}, ErrNotFound},
		{&StoreError{Op: "list", Err: errors.New("closed")}, ErrStore},
		{&ConsistencyError{EdgeID: "e1", AccountIDs: []string{"a", "b"}}, ErrConsistency},
	}
	all := []error{ErrValidation, ErrNotFound, ErrStore, ErrConsistency}
	for _, c := range cases {
		wrapped := fmt.Errorf("cli: %w", c.err)
		for _, s := range all {
			if got, want := errors.Is(wrapped, s), s == c.sentinel; got != want {
				t.Fatalf("errors.Is(%T, %v) = %v; want %v", c.err, s, got, want)
			}
		}
	}
}

func TestWrapStoreErr(t *testing.T) {
	if wrapStoreErr("x", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	nf := &NotFoundError{Entity: "account", ID: "1"}
	if got := wrapStoreErr("x", nf); got != nf {
		t.Fatalf("typed errors must pass through unchanged, got %v", got)
	}
	base := errors.New("UNIQUE constraint failed: accounts.username")
	got := wrapStoreErr("create account", base)
	var se *StoreError
	if !errors.As(got, &se) || se.Op != "create account" {
		t.Fatalf("expected StoreError, got %v", got)
	}
	if !errors.Is(got, ErrDuplicate) {
		t.Fatalf("duplicate should stay detectable through the wrapper")
	}
}

func TestErrorMessages(t *testing.T) {
	if got := (&ValidationError{Field: "type", Reason: "must not be empty"}).Error(); got != "invalid type: must not be empty" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := (&NotFoundError{Entity: "edge", ID: "e1"}).Error(); got != "edge not found: e1" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := (&ConsistencyError{EdgeID: "e1", AccountIDs: []string{"a", "b"}}).Error(); got != "edge e1 has 2 owners (a, b)" {
		t.Fatalf("unexpected message %q", got)
	}
}
