// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/edgemaster/buildvars"
	"github.com/toeirei/edgemaster/internal/config"
	"github.com/toeirei/edgemaster/internal/db"
	"github.com/toeirei/edgemaster/internal/i18n"
	"github.com/toeirei/edgemaster/internal/logging"
	"github.com/toeirei/edgemaster/internal/security"
)

// StoreOpener opens the store described by cfg.
type StoreOpener func(ctx context.Context, cfg config.Config) (db.Store, error)

// Console is the state shared by every command of one root command: the
// resolved configuration and the store handle. Commands never reach for
// package-level state; they get the store from here.
type Console struct {
	Config config.Config
	Store  db.Store
	In     io.Reader

	open      StoreOpener
	ownsStore bool
	cfgFile   string
	verbose   bool
}

// Option customizes a Console before commands run.
type Option func(*Console)

// WithStore injects an already opened store. The console will not close it.
func WithStore(s db.Store) Option {
	return func(c *Console) { c.Store = s }
}

// WithStoreOpener replaces the function used to open the configured store.
func WithStoreOpener(open StoreOpener) Option {
	return func(c *Console) { c.open = open }
}

// WithInput sets the reader used for password prompts and confirmations.
func WithInput(r io.Reader) Option {
	return func(c *Console) { c.In = r }
}

// OpenConfiguredStore opens the database named by cfg with the configured
// bcrypt cost. Only the redacted DSN is logged.
func OpenConfiguredStore(ctx context.Context, cfg config.Config) (db.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Debugf("opening %s database %s", cfg.Database.Type, cfg.Database.Redacted())
	s, err := db.Open(ctx, cfg.Database.Type, cfg.Database.ConnectionString(),
		db.WithHasher(security.NewBcryptHasher(cfg.BcryptCost)))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// needsNoStore lists the command paths that run without opening the
// database.
var needsNoStore = map[string]bool{
	"edgemaster version":      true,
	"edgemaster help":         true,
	"edgemaster config show":  true,
	"edgemaster config write": true,
	"edgemaster backup info":  true,
}

// setup resolves configuration and opens the store for cmd.
func (c *Console) setup(cmd *cobra.Command) error {
	var explicit *string
	if c.cfgFile != "" {
		if _, err := os.Stat(c.cfgFile); err != nil {
			return fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		explicit = &c.cfgFile
	}

	cfg, err := config.LoadConfig[config.Config](cmd, config.Defaults(), explicit)
	if err != nil && !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		return fmt.Errorf("%s: %w", i18n.T("config.error_load"), err)
	}
	c.Config = cfg

	if c.verbose || cfg.Debug {
		logging.SetDebug(true)
	}
	i18n.Init(cfg.Language)

	path := cmd.CommandPath()
	if c.Store != nil || needsNoStore[path] || strings.HasPrefix(path, "edgemaster completion") {
		return nil
	}

	s, err := c.open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("config.error_init_db"), err)
	}
	c.Store = s
	c.ownsStore = true
	return nil
}

func (c *Console) teardown() error {
	if !c.ownsStore || c.Store == nil {
		return nil
	}
	err := c.Store.Close()
	c.Store = nil
	c.ownsStore = false
	return err
}

func newConsole(opts ...Option) *Console {
	c := &Console{In: os.Stdin, open: OpenConfiguredStore}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRootCmd creates and configures a new root cobra command. Every call
// builds a fresh command tree bound to a fresh Console.
func NewRootCmd(opts ...Option) *cobra.Command {
	return newConsole(opts...).rootCmd()
}

func (c *Console) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edgemaster",
		Short: "Edgemaster manages accounts, edge devices and who owns them.",
		Long: `Edgemaster is an administrative console for accounts and edge devices.
Every edge has at most one owning account; ownership changes replace the
previous owner atomically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
	}
	cmd.Version = compositeVersion(resolveBuildVersion(nil))

	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `Output language ("en", "de")`)
	cmd.PersistentFlags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("database.dsn", "./edgemaster.db", "Database connection string (DSN)")

	cmd.AddCommand(
		newAccountCmd(c),
		newEdgeCmd(c),
		newOwnerCmd(c),
		newStatsCmd(c),
		newDoctorCmd(c),
		newBackupCmd(c),
		newMigrateCmd(),
		newDBCmd(c),
		newConfigCmd(c),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the CLI entrypoint. The main package should call this
// function and handle process exit.
func Execute() error {
	c := newConsole()
	err := c.rootCmd().ExecuteContext(context.Background())
	// PersistentPostRunE is skipped when a command fails.
	if cerr := c.teardown(); err == nil {
		err = cerr
	}
	if err != nil {
		logging.Errorf("%v", err)
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			v, commit, date := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "commit: %s\n", commit)
			if date != "" {
				fmt.Fprintf(out, "built: %s\n", date)
			}
		},
	}
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	versionOut = buildvars.VersionOrDefault("dev")
	commitOut = buildvars.Commit
	if commitOut == "" {
		commitOut = "dev"
	}
	dateOut = buildvars.Date

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}
	if info == nil {
		return versionOut, commitOut, dateOut
	}

	if versionOut == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		versionOut = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if s.Value != "" && commitOut == "dev" {
				commitOut = s.Value
				if len(commitOut) > 12 {
					commitOut = commitOut[:12]
				}
			}
		case "vcs.time":
			if s.Value != "" && dateOut == "" {
				dateOut = s.Value
			}
		}
	}
	return versionOut, commitOut, dateOut
}

func compositeVersion(v, commit, date string) string {
	out := v
	if commit != "" && commit != "dev" {
		out += " (" + commit + ")"
	}
	if date != "" {
		out += " built: " + date
	}
	return out
}
