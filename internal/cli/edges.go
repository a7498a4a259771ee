// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/edgemaster/internal/i18n"
	"github.com/toeirei/edgemaster/internal/model"
)

// newEdgeCmd builds the edge command group.
func newEdgeCmd(c *Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "Manage edge devices (list, create, update, delete)",
		Long: `The 'edge' command group manages edge devices:
  - List edges with their owner, optionally only those of one account
  - View one edge
  - Register edges and optionally assign an owner right away
  - Update serial number or type
  - Delete edges together with their ownership link`,
	}
	cmd.AddCommand(
		newEdgeListCmd(c),
		newEdgeShowCmd(c),
		newEdgeCreateCmd(c),
		newEdgeUpdateCmd(c),
		newEdgeDeleteCmd(c),
	)
	return cmd
}

func newEdgeListCmd(c *Console) *cobra.Command {
	var owner, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List edges with their owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				edges []model.Edge
				err   error
			)
			switch {
			case owner != "":
				acc, rerr := resolveAccount(ctx, c.Store, owner)
				if rerr != nil {
					return rerr
				}
				edges, err = c.Store.ListEdgesWithOwner(ctx, &acc.ID)
			case search != "":
				edges, err = c.Store.SearchEdges(ctx, search)
			default:
				edges, err = c.Store.ListEdgesWithOwner(ctx, nil)
			}
			if err != nil {
				return fmt.Errorf("failed to list edges: %w", err)
			}
			return printEdges(cmd.OutOrStdout(), edges)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Only edges owned by this account (id or username)")
	cmd.Flags().StringVar(&search, "search", "", "Filter by serial number, type or owner username")
	return cmd
}

func printEdges(out io.Writer, edges []model.Edge) error {
	if len(edges) == 0 {
		fmt.Fprintln(out, i18n.T("edge.none"))
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSERIAL\tTYPE\tOWNER")
	for _, e := range edges {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.SerialNumber, e.Type, ownerLabel(e))
	}
	return w.Flush()
}

func ownerLabel(e model.Edge) string {
	if !e.IsOwned() {
		return i18n.T("edge.unowned")
	}
	return e.OwnerUsername
}

func newEdgeShowCmd(c *Console) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id or serial>",
		Short: "Show detailed edge information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := resolveEdge(cmd.Context(), c.Store, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", e.ID)
			fmt.Fprintf(out, "Serial:  %s\n", e.SerialNumber)
			fmt.Fprintf(out, "Type:    %s\n", e.Type)
			if e.IsOwned() {
				fmt.Fprintf(out, "Owner:   %s (%s)\n", e.OwnerUsername, e.OwnerAccountID)
			} else {
				fmt.Fprintf(out, "Owner:   %s\n", i18n.T("edge.unowned"))
			}
			if e.UpdatedAt != nil {
				fmt.Fprintf(out, "Updated: %s\n", e.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newEdgeCreateCmd(c *Console) *cobra.Command {
	var serial, typ, owner string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new edge",
		Long: `Register a new edge device. With --owner the edge is assigned to that
account right after it is created.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var ownerID *string
			if owner != "" {
				acc, err := resolveAccount(ctx, c.Store, owner)
				if err != nil {
					return err
				}
				ownerID = &acc.ID
			}
			id, err := c.Store.CreateEdge(ctx, serial, typ)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			if ownerID != nil {
				if err := c.Store.SetOwner(ctx, id, ownerID); err != nil {
					return fmt.Errorf("edge %s created but owner not set: %w", id, err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("edge.created", serial, id))
			return nil
		},
	}
	cmd.Flags().StringVar(&serial, "serial", "", "Serial number (required)")
	cmd.Flags().StringVar(&typ, "type", "", "Device type (required)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owning account (id or username)")
	_ = cmd.MarkFlagRequired("serial")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newEdgeUpdateCmd(c *Console) *cobra.Command {
	var serial, typ, owner string
	cmd := &cobra.Command{
		Use:   "update <id or serial>",
		Short: "Update serial number, type or owner",
		Long: `Update an edge device. Only the fields whose flags are given change.
--owner assigns the edge to that account after the fields are saved; an empty
--owner "" leaves the edge unowned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := resolveEdge(ctx, c.Store, args[0])
			if err != nil {
				return err
			}
			changeOwner := cmd.Flags().Changed("owner")
			var ownerID *string
			if changeOwner && owner != "" {
				acc, err := resolveAccount(ctx, c.Store, owner)
				if err != nil {
					return err
				}
				ownerID = &acc.ID
			}
			newSerial, newType := e.SerialNumber, e.Type
			if cmd.Flags().Changed("serial") {
				newSerial = serial
			}
			if cmd.Flags().Changed("type") {
				newType = typ
			}
			if err := c.Store.UpdateEdge(ctx, e.ID, newSerial, newType); err != nil {
				return fmt.Errorf("failed to update edge: %w", err)
			}
			if changeOwner {
				if err := c.Store.SetOwner(ctx, e.ID, ownerID); err != nil {
					return fmt.Errorf("edge %s updated but owner not set: %w", e.ID, err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("edge.updated", newSerial))
			return nil
		},
	}
	cmd.Flags().StringVar(&serial, "serial", "", "New serial number")
	cmd.Flags().StringVar(&typ, "type", "", "New device type")
	cmd.Flags().StringVar(&owner, "owner", "", "New owning account (id or username), empty to clear")
	return cmd
}

func newEdgeDeleteCmd(c *Console) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id or serial>",
		Short: "Delete an edge and its ownership link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireYes(yes, "delete edge"); err != nil {
				return err
			}
			ctx := cmd.Context()
			e, err := resolveEdge(ctx, c.Store, args[0])
			if err != nil {
				return err
			}
			if err := c.Store.HardDeleteEdge(ctx, e.ID); err != nil {
				return fmt.Errorf("failed to delete edge: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("edge.deleted", e.SerialNumber))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
