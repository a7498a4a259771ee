// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/edgemaster/internal/i18n"
	"github.com/toeirei/edgemaster/internal/model"
)

// newAccountCmd builds the account command group.
func newAccountCmd(c *Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts (list, create, update, delete, restore)",
		Long: `The 'account' command group manages the principals that may own edges:
  - List accounts with their device counts
  - View one account and the edges it owns
  - Create accounts (the password is stored as a bcrypt hash)
  - Update username, roles or password
  - Soft-delete and restore accounts, or purge them permanently`,
	}
	cmd.AddCommand(
		newAccountListCmd(c),
		newAccountShowCmd(c),
		newAccountCreateCmd(c),
		newAccountUpdateCmd(c),
		newAccountDeleteCmd(c),
		newAccountRestoreCmd(c),
		newAccountPurgeCmd(c),
	)
	return cmd
}

func newAccountListCmd(c *Console) *cobra.Command {
	var search string
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		Long: `Display all accounts in table format with roles, owned device count and status.
Soft-deleted accounts are included unless --active is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				accounts []model.Account
				err      error
			)
			if search != "" {
				accounts, err = c.Store.SearchAccounts(ctx, search)
			} else {
				accounts, err = c.Store.ListAccounts(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}
			counts, err := c.Store.CountDevicesByAccount(ctx)
			if err != nil {
				return fmt.Errorf("failed to count devices: %w", err)
			}

			if activeOnly {
				filtered := accounts[:0]
				for _, acc := range accounts {
					if !acc.IsDeleted() {
						filtered = append(filtered, acc)
					}
				}
				accounts = filtered
			}

			out := cmd.OutOrStdout()
			if len(accounts) == 0 {
				fmt.Fprintln(out, i18n.T("account.none"))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tROLES\tDEVICES\tSTATUS")
			for _, acc := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					acc.ID, acc.Username, acc.Roles, counts[acc.ID], accountStatus(acc))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Filter by username or role")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Hide soft-deleted accounts")
	return cmd
}

func newAccountShowCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id or username>",
		Short: "Show detailed account information",
		Long:  `Display full details of an account including the edges it owns.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			acc, err := resolveAccount(ctx, c.Store, args[0])
			if err != nil {
				return err
			}
			edges, err := c.Store.ListEdges(ctx, &acc.ID)
			if err != nil {
				return fmt.Errorf("failed to list owned edges: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", acc.ID)
			fmt.Fprintf(out, "Username: %s\n", acc.Username)
			fmt.Fprintf(out, "Roles:    %s\n", acc.Roles)
			fmt.Fprintf(out, "Status:   %s\n", accountStatus(*acc))
			fmt.Fprintf(out, "Updated:  %s\n", acc.UpdatedAt.Format(time.RFC3339))
			if acc.DeletedAt != nil {
				fmt.Fprintf(out, "Deleted:  %s\n", acc.DeletedAt.Format(time.RFC3339))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, i18n.T("account.owned_edges"))
			if len(edges) == 0 {
				fmt.Fprintf(out, "  %s\n", i18n.T("edge.none"))
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, e := range edges {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", e.ID, e.SerialNumber, e.Type)
			}
			return w.Flush()
		},
	}
}

func newAccountCreateCmd(c *Console) *cobra.Command {
	var username, password, roles string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new account",
		Long: `Create a new account. When --password is omitted the password is read
from the terminal without echo (or from stdin when it is not a terminal).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := readPassword(c.In, cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = pw
			}
			id, err := c.Store.CreateAccount(cmd.Context(), username, password, model.ParseRoles(roles))
			if err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("account.created", username, id))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVarP(&roles, "roles", "r", "", "Comma-separated roles, e.g. admin,viewer")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newAccountUpdateCmd(c *Console) *cobra.Command {
	var username, password, roles string
	var promptPassword bool
	cmd := &cobra.Command{
		Use:   "update <id or username>",
		Short: "Update account properties",
		Long: `Update username, roles or password. Only the flags you pass are changed;
the stored password hash is kept unless a new password is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			acc, err := resolveAccount(ctx, c.Store, args[0])
			if err != nil {
				return err
			}

			newUsername := acc.Username
			if cmd.Flags().Changed("username") {
				newUsername = username
			}
			newRoles := []string(acc.Roles)
			if cmd.Flags().Changed("roles") {
				newRoles = model.ParseRoles(roles)
			}
			var newPassword *string
			switch {
			case cmd.Flags().Changed("password"):
				newPassword = &password
			case promptPassword:
				pw, err := readPassword(c.In, cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				newPassword = &pw
			}

			if err := c.Store.UpdateAccount(ctx, acc.ID, newUsername, newRoles, newPassword); err != nil {
				return fmt.Errorf("failed to update account: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("account.updated", newUsername))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "New username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "New password")
	cmd.Flags().StringVarP(&roles, "roles", "r", "", "Replace roles with this comma-separated list")
	cmd.Flags().BoolVar(&promptPassword, "prompt-password", false, "Read a new password interactively")
	return cmd
}

func newAccountDeleteCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id or username>",
		Short: "Soft-delete an account",
		Long: `Mark an account as deleted. The row and its ownership links are kept and
the account can be restored with 'account restore'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.setDeleted(cmd, args[0], true)
		},
	}
}

func newAccountRestoreCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id or username>",
		Short: "Restore a soft-deleted account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.setDeleted(cmd, args[0], false)
		},
	}
}

func (c *Console) setDeleted(cmd *cobra.Command, ref string, deleted bool) error {
	ctx := cmd.Context()
	acc, err := resolveAccount(ctx, c.Store, ref)
	if err != nil {
		return err
	}
	if err := c.Store.SetAccountDeleted(ctx, acc.ID, deleted); err != nil {
		return fmt.Errorf("failed to change account status: %w", err)
	}
	msg := "account.restored"
	if deleted {
		msg = "account.deleted"
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T(msg, acc.Username))
	return nil
}

func newAccountPurgeCmd(c *Console) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge <id or username>",
		Short: "Permanently delete an account",
		Long: `Remove an account row and every ownership link it holds. The edges it
owned become unowned. This cannot be undone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireYes(yes, "purge account"); err != nil {
				return err
			}
			ctx := cmd.Context()
			acc, err := resolveAccount(ctx, c.Store, args[0])
			if err != nil {
				return err
			}
			if err := c.Store.HardDeleteAccount(ctx, acc.ID); err != nil {
				return fmt.Errorf("failed to purge account: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("account.purged", acc.Username))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm permanent deletion")
	return cmd
}

func accountStatus(acc model.Account) string {
	if acc.IsDeleted() {
		return i18n.T("account.status_deleted")
	}
	return i18n.T("account.status_active")
}
