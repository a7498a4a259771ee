// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/toeirei/edgemaster/internal/db"
	"github.com/toeirei/edgemaster/internal/i18n"
	"github.com/toeirei/edgemaster/internal/model"
	"golang.org/x/term"
)

// readPassword prompts on out and reads one password from in. Terminals get
// a no-echo read; anything else (pipes, tests) is read line by line.
func readPassword(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, i18n.T("prompt.password"))
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// resolveAccount finds an account by id first, then by username.
func resolveAccount(ctx context.Context, s db.AccountManager, ref string) (*model.Account, error) {
	acc, err := s.GetAccount(ctx, ref)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	acc, err = s.GetAccountByUsername(ctx, ref)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &db.NotFoundError{Entity: "account", ID: ref}
		}
		return nil, err
	}
	return acc, nil
}

// resolveEdge finds an edge by id first, then by exact serial number. A
// serial shared by several edges is an error listing their ids.
func resolveEdge(ctx context.Context, s db.EdgeManager, ref string) (*model.Edge, error) {
	e, err := s.GetEdge(ctx, ref)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	candidates, err := s.SearchEdges(ctx, ref)
	if err != nil {
		return nil, err
	}
	var matches []model.Edge
	for _, e := range candidates {
		if e.SerialNumber == ref {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &db.NotFoundError{Entity: "edge", ID: ref}
	case 1:
		return &matches[0], nil
	}
	ids := make([]string, 0, len(matches))
	for _, e := range matches {
		ids = append(ids, e.ID)
	}
	return nil, errors.New(i18n.T("edge.ambiguous", ref, len(matches), strings.Join(ids, ", ")))
}

// requireYes fails unless the --yes flag was given for a destructive action.
func requireYes(yes bool, action string) error {
	if yes {
		return nil
	}
	return errors.New(i18n.T("confirm.required", action))
}
