// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"github.com/toeirei/edgemaster/internal/i18n"
	"github.com/toeirei/edgemaster/internal/model"
)

// newBackupCmd builds the 'backup' command.
func newBackupCmd(c *Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup [output-file]",
		Short: "Create a compressed (zstd) JSON backup of the database",
		Long: `Exports accounts, edges and ownership links into a single Zstandard-compressed
JSON file. The export is read in one transaction so it is consistent.
If no output file is specified, a default filename 'edgemaster-backup-YYYY-MM-DD.json.zst' is used.
The file contains credential hashes and is written with 0600 permissions.`,
		Example: `  # Backup to a default file (e.g., edgemaster-backup-2026-10-17.json.zst)
  edgemaster backup

  # Backup to a specific file
  edgemaster backup my-backup.json`, // .zst will be appended
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFile := backupFileName(args, time.Now())
			snap, err := c.Store.ExportSnapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to export data: %w", err)
			}
			if err := writeCompressedSnapshot(outputFile, snap); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("backup.written", outputFile))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "info <backup-file.zst>",
		Short: "Summarize a backup file without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readCompressedSnapshot(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "schema version: %d\n", snap.SchemaVersion)
			fmt.Fprintf(out, "created:        %s\n", snap.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "accounts:       %d\n", len(snap.Accounts))
			fmt.Fprintf(out, "edges:          %d\n", len(snap.Edges))
			fmt.Fprintf(out, "links:          %d\n", len(snap.Links))
			return nil
		},
	})
	return cmd
}

func backupFileName(args []string, now time.Time) string {
	if len(args) == 0 {
		return fmt.Sprintf("edgemaster-backup-%s.json.zst", now.Format("2006-01-02"))
	}
	name := args[0]
	if !strings.HasSuffix(name, ".zst") {
		name += ".zst"
	}
	return name
}

// writeCompressedSnapshot streams the JSON encoding of snap through a zstd
// writer into filename.
func writeCompressedSnapshot(filename string, snap *model.Snapshot) error {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdWriter, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}

	encoder := json.NewEncoder(zstdWriter)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		_ = zstdWriter.Close()
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	if err := zstdWriter.Close(); err != nil {
		return fmt.Errorf("could not flush zstd writer: %w", err)
	}
	return file.Close()
}

// readCompressedSnapshot decodes a file written by writeCompressedSnapshot.
func readCompressedSnapshot(filename string) (*model.Snapshot, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdReader, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zstdReader.Close()

	var snap model.Snapshot
	if err := json.NewDecoder(zstdReader).Decode(&snap); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}
	return &snap, nil
}
