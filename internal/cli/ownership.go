// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/toeirei/edgemaster/internal/db"
	"github.com/toeirei/edgemaster/internal/i18n"
)

// newOwnerCmd builds the owner command group. Every change replaces the
// previous owner in one transaction; an edge never ends up with two.
func newOwnerCmd(c *Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Show or change the owner of an edge",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <edge id or serial>",
			Short: "Print the owning account of an edge",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				edgeID, label, err := resolveEdgeID(ctx, c.Store, args[0])
				if err != nil {
					return err
				}
				ownerID, err := c.Store.GetOwner(ctx, edgeID)
				if err != nil {
					return fmt.Errorf("failed to read owner: %w", err)
				}
				out := cmd.OutOrStdout()
				if ownerID == nil {
					fmt.Fprintln(out, i18n.T("owner.none", label))
					return nil
				}
				acc, err := c.Store.GetAccount(ctx, *ownerID)
				if err != nil {
					return fmt.Errorf("failed to load owner: %w", err)
				}
				fmt.Fprintf(out, "%s\t%s\n", acc.ID, acc.Username)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <edge id or serial> <account id or username>",
			Short: "Make an account the sole owner of an edge",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				edgeID, label, err := resolveEdgeID(ctx, c.Store, args[0])
				if err != nil {
					return err
				}
				acc, err := resolveAccount(ctx, c.Store, args[1])
				if err != nil {
					return err
				}
				if err := c.Store.SetOwner(ctx, edgeID, &acc.ID); err != nil {
					return fmt.Errorf("failed to set owner: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("owner.set", label, acc.Username))
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear <edge id or serial>",
			Short: "Remove the owner of an edge",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				edgeID, label, err := resolveEdgeID(ctx, c.Store, args[0])
				if err != nil {
					return err
				}
				if err := c.Store.SetOwner(ctx, edgeID, nil); err != nil {
					return fmt.Errorf("failed to clear owner: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("owner.cleared", label))
				return nil
			},
		},
	)
	return cmd
}

// resolveEdgeID returns the id of the referenced edge and a label for
// messages. An edge with several owners can still be addressed by its id so
// that 'owner set' and 'owner clear' can repair it.
func resolveEdgeID(ctx context.Context, s db.EdgeManager, ref string) (id, label string, err error) {
	e, err := resolveEdge(ctx, s, ref)
	if err == nil {
		return e.ID, e.SerialNumber, nil
	}
	var ce *db.ConsistencyError
	if errors.As(err, &ce) && ce.EdgeID == ref {
		return ce.EdgeID, ce.EdgeID, nil
	}
	return "", "", err
}

// newStatsCmd prints the owned device count of every account.
func newStatsCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number of edges owned by each account",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := c.Store.DeviceCounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to count devices: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintln(out, i18n.T("account.none"))
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USERNAME\tACCOUNT ID\tDEVICES")
			total := 0
			for _, dc := range counts {
				fmt.Fprintf(w, "%s\t%s\t%d\n", dc.Username, dc.AccountID, dc.Count)
				total += dc.Count
			}
			fmt.Fprintf(w, "TOTAL\t\t%d\n", total)
			return w.Flush()
		},
	}
}

// newDoctorCmd reports edges that violate single ownership. It exits non-zero
// when any are found so it can gate scripts.
func newDoctorCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that every edge has at most one owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			conflicts, err := c.Store.CheckConsistency(cmd.Context())
			if err != nil {
				return fmt.Errorf("consistency check failed: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(conflicts) == 0 {
				fmt.Fprintln(out, i18n.T("doctor.ok"))
				return nil
			}
			for _, cf := range conflicts {
				fmt.Fprintln(out, i18n.T("doctor.conflict", cf.EdgeID, len(cf.AccountIDs), strings.Join(cf.AccountIDs, ", ")))
			}
			return errors.New(i18n.T("doctor.failed", len(conflicts)))
		},
	}
}
