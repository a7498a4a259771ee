// Package db contains the data-access layer of Edgemaster.
//
// A BunStore is opened once per process with Open and handed to callers that
// need it; there is no package-level store. It implements four small
// contracts that callers should depend on instead of the concrete type:
//
//   - AccountManager and EdgeManager: entity CRUD with soft and hard delete.
//   - OwnershipManager: the only code path that writes ownership_links. An
//     edge has at most one owner; SetOwner replaces the link set of an edge
//     inside a single transaction.
//   - AggregateReader: per-account device counts and owner-annotated edge
//     listings.
//
// Errors
//   - Callers classify failures with errors.Is against ErrValidation,
//     ErrNotFound, ErrStore and ErrConsistency, or errors.As against the
//     typed errors in errors.go. Unique violations additionally match
//     ErrDuplicate.
//
// Testing notes
//   - Use WithTestStore in package tests; it opens a private in-memory sqlite
//     database with migrations applied and closes it afterwards.
package db
