// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toeirei/edgemaster/internal/config"
	"github.com/toeirei/edgemaster/internal/i18n"
)

// newConfigCmd builds the config command group.
func newConfigCmd(c *Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or persist the resolved configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "database.type: %s\n", cfg.Database.Type)
			fmt.Fprintf(out, "database.dsn:  %s\n", cfg.Database.Redacted())
			fmt.Fprintf(out, "language:      %s\n", cfg.Language)
			fmt.Fprintf(out, "debug:         %t\n", cfg.Debug)
			fmt.Fprintf(out, "bcrypt_cost:   %d\n", cfg.BcryptCost)
			return nil
		},
	})

	var system bool
	write := &cobra.Command{
		Use:   "write",
		Short: "Write the effective configuration to the config file",
		Long: `Write the effective configuration as YAML to the user config path (or the
system path with --system). The database password is never written; supply
it through EDGEMASTER_DATABASE_PASSWORD instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config
			path, err := config.WriteConfigFile(&cfg, system)
			if err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("config.written", path))
			return nil
		},
	}
	write.Flags().BoolVar(&system, "system", false, "Write to the system-wide config path")
	cmd.AddCommand(write)
	return cmd
}
