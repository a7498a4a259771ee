// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toeirei/edgemaster/internal/model"
	"github.com/toeirei/edgemaster/internal/security"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const entityAccount = "account"

// ListAccounts returns every account, soft-deleted ones included, ordered by
// username.
func (s *BunStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var am []AccountModel
	if err := s.bun.NewSelect().Model(&am).OrderExpr("username ASC").Scan(ctx); err != nil {
		return nil, wrapStoreErr("list accounts", err)
	}
	out := make([]model.Account, 0, len(am))
	for _, a := range am {
		out = append(out, accountModelToModel(a))
	}
	return out, nil
}

// GetAccount returns the account with the given id.
func (s *BunStore) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	var am AccountModel
	err := s.bun.NewSelect().Model(&am).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: entityAccount, ID: id}
		}
		return nil, wrapStoreErr("get account", err)
	}
	m := accountModelToModel(am)
	return &m, nil
}

// GetAccountByUsername looks an account up by its (trimmed) username.
func (s *BunStore) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	var am AccountModel
	err := s.bun.NewSelect().Model(&am).Where("username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: entityAccount, ID: username}
		}
		return nil, wrapStoreErr("get account", err)
	}
	m := accountModelToModel(am)
	return &m, nil
}

// CreateAccount hashes password, stores a new active account and returns its id.
func (s *BunStore) CreateAccount(ctx context.Context, username, password string, roles []string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if password == "" {
		return "", &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return "", err
	}

	am := &AccountModel{
		ID:             uuid.NewString(),
		Username:       username,
		CredentialHash: security.FromString(hash),
		Roles:          model.NewRoleSet(roles...),
		UpdatedAt:      s.timestamp(),
	}
	if _, err := s.bun.NewInsert().Model(am).Exec(ctx); err != nil {
		return "", wrapStoreErr("create account", err)
	}
	dbLogf("db: created account %s", am.ID)
	return am.ID, nil
}

// UpdateAccount replaces username and roles. A nil or empty newPassword keeps
// the stored hash; anything else is hashed and stored.
func (s *BunStore) UpdateAccount(ctx context.Context, id, username string, roles []string, newPassword *string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	query := "UPDATE accounts SET username = ?, roles = ?, updated_at = ?"
	args := []interface{}{username, model.NewRoleSet(roles...), s.timestamp()}
	if newPassword != nil && *newPassword != "" {
		hash, err := s.hashPassword(*newPassword)
		if err != nil {
			return err
		}
		query += ", credential_hash = ?"
		args = append(args, security.FromString(hash))
	}
	res, err := ExecRaw(ctx, s.bun, query+" WHERE id = ?", append(args, id)...)
	if err != nil {
		return wrapStoreErr("update account", err)
	}
	if rowsAffected(res) == 0 {
		return &NotFoundError{Entity: entityAccount, ID: id}
	}
	return nil
}

// SetAccountDeleted soft-deletes (deleted_at = now) or restores (deleted_at =
// NULL) an account. Repeating a call leaves the account in the same state.
func (s *BunStore) SetAccountDeleted(ctx context.Context, id string, deleted bool) error {
	now := s.timestamp()
	var deletedAt *time.Time
	if deleted {
		deletedAt = &now
	}
	res, err := ExecRaw(ctx, s.bun, "UPDATE accounts SET deleted_at = ?, updated_at = ? WHERE id = ?", deletedAt, now, id)
	if err != nil {
		return wrapStoreErr("set account deleted", err)
	}
	if rowsAffected(res) == 0 {
		return &NotFoundError{Entity: entityAccount, ID: id}
	}
	return nil
}

// HardDeleteAccount removes the account and every ownership link it holds in
// one transaction.
func (s *BunStore) HardDeleteAccount(ctx context.Context, id string) error {
	err := WithTx(ctx, s.bun, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*OwnershipLinkModel)(nil)).Where("account_id = ?", id).Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*AccountModel)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		if rowsAffected(res) == 0 {
			return &NotFoundError{Entity: entityAccount, ID: id}
		}
		return nil
	})
	if err != nil {
		return wrapStoreErr("hard delete account", err)
	}
	dbLogf("db: hard deleted account %s", id)
	return nil
}

// hashPassword reports inputs the hasher rejects as validation failures.
func (s *BunStore) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	switch {
	case err == nil:
		return hash, nil
	case errors.Is(err, security.ErrPasswordTooLong), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at most %d bytes", security.MaxPasswordBytes)}
	case errors.Is(err, security.ErrEmptyPassword):
		return "", &ValidationError{Field: "password", Reason: "must not be empty"}
	}
	return "", wrapStoreErr("hash credential", err)
}
