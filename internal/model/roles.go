// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// RoleSet is an order-irrelevant set of role names. Values built through
// NewRoleSet are trimmed, de-duplicated and sorted so two sets with the same
// members compare equal.
//
// It is persisted as a JSON array in a TEXT column so the same schema works
// on every supported engine.
type RoleSet []string

// NewRoleSet normalizes the given role names into a RoleSet.
func NewRoleSet(roles ...string) RoleSet {
	out := make(RoleSet, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ParseRoles splits a comma-separated list such as "admin, viewer".
func ParseRoles(csv string) RoleSet {
	return NewRoleSet(strings.Split(csv, ",")...)
}

// Has reports whether role is a member of the set.
func (r RoleSet) Has(role string) bool {
	return slices.Contains(r, strings.TrimSpace(role))
}

// String renders the set as "a, b, c".
func (r RoleSet) String() string {
	return strings.Join(r, ", ")
}

// Value implements driver.Valuer.
func (r RoleSet) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (r *RoleSet) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = RoleSet{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported scan type %T for roles", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		*r = RoleSet{}
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return fmt.Errorf("invalid roles value: %w", err)
	}
	*r = NewRoleSet(names...)
	return nil
}
