// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toeirei/edgemaster/internal/i18n"
)

// newMigrateCmd applies pending schema migrations. Opening the store runs
// them, so the command only has to report the result.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("migrate.done"))
			return nil
		},
	}
}

// newDBCmd groups database housekeeping commands.
func newDBCmd(c *Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database housekeeping",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "maintain",
		Short: "Run engine-specific maintenance (VACUUM, OPTIMIZE, integrity check)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.Store.Maintain(cmd.Context()); err != nil {
				return fmt.Errorf("maintenance failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("maintain.done"))
			return nil
		},
	})
	return cmd
}
