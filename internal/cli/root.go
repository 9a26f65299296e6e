package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hray3182/lifeledger/internal/config"
	"github.com/hray3182/lifeledger/internal/ledger"
	"github.com/hray3182/lifeledger/internal/logging"
	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/recurrence"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format     string // "json" | "text"
	LogLevel   string
	Driver     string
	SQLitePath string
	Today      string

	// LogWriter receives log output; nil means stderr.
	LogWriter io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the lifeledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lifeledger",
		Short: "LifeLedger - recurring bills and income",
		Long: `Generate ledger entries from recurring bill and income rules.

Rules are stored in SQLite or PostgreSQL (STORE_DRIVER). Entries are generated
on demand: when a session starts, after rules are added, or with "run".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level, overrides LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "store driver (sqlite|postgres), overrides STORE_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "sqlite-path", "", "SQLite database file, overrides SQLITE_PATH")
	cmd.PersistentFlags().StringVar(&opts.Today, "today", "", "treat this date (YYYY-MM-DD) as today")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewEntriesCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewBotCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// env is the configuration shared by every command invocation.
type env struct {
	cfg *config.Config
	log zerolog.Logger
	loc *time.Location
}

func (o *RootOptions) load() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Driver != "" {
		cfg.StoreDriver = o.Driver
	}
	if o.SQLitePath != "" {
		cfg.SQLitePath = o.SQLitePath
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	w := o.LogWriter
	if w == nil {
		w = os.Stderr
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, w)
	return &env{cfg: cfg, log: log, loc: loc}, nil
}

func (e *env) openStore(ctx context.Context) (ledger.Store, error) {
	store, err := ledger.Open(ctx, e.cfg, e.log)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return store, nil
}

func (e *env) engine(store recurrence.Store) *recurrence.Engine {
	return recurrence.NewEngine(store,
		recurrence.WithCatchUpLimit(e.cfg.CatchUpLimit),
		recurrence.WithLogger(e.log),
	)
}

// today resolves --today, or the current date in the configured timezone.
func (o *RootOptions) today(loc *time.Location) (time.Time, error) {
	if o.Today == "" {
		return models.Today(time.Now(), loc), nil
	}
	t, err := models.ParseDate(o.Today)
	if err != nil {
		return time.Time{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid --today %q: expected YYYY-MM-DD", o.Today))
	}
	return t, nil
}

func closeStore(store ledger.Store, log zerolog.Logger) {
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("error closing store")
	}
}
