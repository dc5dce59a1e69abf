package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/gofrs/uuid"
	"github.com/maloquacious/semver"
	"github.com/silktrader/socialdb/pkg/storage/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}

var (
	ErrResetAborted     = errors.New("reset aborted, the database was left untouched")
	ErrSchemaIncomplete = errors.New("database schema is incomplete, run `socialdb init`")
)

// application carries what every command needs once the configuration has been read.
type application struct {
	cfg    Configuration
	logger logrus.FieldLogger
}

func newRootCommand() *cobra.Command {
	var app application
	var configPath, filename string
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "socialdb",
		Short:         "Social network database schema tool",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var overrides flagOverrides
			if cmd.Flags().Changed("config") {
				overrides.configPath = &configPath
			}
			if cmd.Flags().Changed("db") {
				overrides.filename = &filename
			}
			if cmd.Flags().Changed("debug") {
				overrides.debug = &debug
			}

			cfg, err := loadConfiguration(overrides)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.OutOrStdout(), cfg.Debug)
			if err != nil {
				return err
			}
			app = application{cfg: cfg, logger: logger}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path of the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&filename, "db", "", "path of the SQLite database file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log every schema step")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create every missing table, column, trigger and index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSignals(func(ctx context.Context) error { return app.initialise(ctx) })
		},
	}

	var allColumns bool
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Add the posts.visibility_status column to an existing database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSignals(func(ctx context.Context) error { return app.migrate(ctx, allColumns) })
		},
	}
	migrateCmd.Flags().BoolVar(&allColumns, "all", false, "also add the chat attachment columns")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Report schema objects the database lacks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSignals(func(ctx context.Context) error { return app.verify(ctx) })
		},
	}

	var confirmed bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the database, after confirmation, and initialise it again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				if err := confirmReset(cmd.InOrStdin(), cmd.OutOrStdout(), app.cfg.DB.Filename); err != nil {
					return err
				}
			}
			return withSignals(func(ctx context.Context) error { return app.reset(ctx) })
		},
	}
	resetCmd.Flags().BoolVar(&confirmed, "yes", false, "skip the confirmation prompt; ALL DATA WILL BE LOST")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the program version",
		// the version doesn't depend on any configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	rootCmd.AddCommand(initCmd, migrateCmd, verifyCmd, resetCmd, versionCmd)
	return rootCmd
}

// newLogger creates the run logger; every entry carries the run unique ID.
func newLogger(out io.Writer, debug bool) (logrus.FieldLogger, error) {
	logger := logrus.New()
	logger.SetOutput(out)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	runUUID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("can't generate a run UUID: %w", err)
	}
	return logger.WithField("runid", runUUID.String()), nil
}

// withSignals cancels the context passed to fn on SIGINT or SIGTERM.
func withSignals(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx)
}

func (app application) initialise(ctx context.Context) error {
	storage, err := sqlite.Open(app.logger, app.cfg.DB.Filename)
	if err != nil {
		app.logger.WithError(err).Error("error opening storage")
		return err
	}
	defer storage.Close()

	if err = storage.Initialise(ctx); err != nil {
		app.logger.WithError(err).Error("error initialising schema")
		return fmt.Errorf("initialising schema: %w", err)
	}
	return nil
}

func (app application) migrate(ctx context.Context, allColumns bool) error {
	if !allColumns {
		added, err := sqlite.MigrateVisibility(ctx, app.logger, app.cfg.DB.Filename)
		if err != nil {
			app.logger.WithError(err).Error("error migrating posts")
			return err
		}
		app.logger.WithField("added", added).Info("migration complete")
		return nil
	}

	storage, err := sqlite.OpenExisting(app.logger, app.cfg.DB.Filename)
	if err != nil {
		app.logger.WithError(err).Error("error opening storage")
		return err
	}
	defer storage.Close()

	added, err := storage.Upgrade(ctx)
	if err != nil {
		app.logger.WithError(err).Error("error upgrading columns")
		return err
	}
	for _, column := range added {
		app.logger.WithField("column", column.String()).Info("column added")
	}
	app.logger.WithField("added", len(added)).Info("migration complete")
	return nil
}

func (app application) verify(ctx context.Context) error {
	storage, err := sqlite.OpenExisting(app.logger, app.cfg.DB.Filename)
	if err != nil {
		app.logger.WithError(err).Error("error opening storage")
		return err
	}
	defer storage.Close()

	differences, err := storage.Verify(ctx)
	if err != nil {
		return fmt.Errorf("verifying schema: %w", err)
	}
	for _, difference := range differences {
		app.logger.Warn(difference.String())
	}
	if len(differences) > 0 {
		return ErrSchemaIncomplete
	}
	app.logger.Info("database schema is complete")
	return nil
}

func (app application) reset(ctx context.Context) error {
	app.logger.WithField("path", app.cfg.DB.Filename).Warn("removing database")
	if err := sqlite.Remove(app.cfg.DB.Filename); err != nil {
		return err
	}
	return app.initialise(ctx)
}

// confirmReset asks the operator to type YES before the database at path is destroyed.
func confirmReset(in io.Reader, out io.Writer, path string) error {
	_, _ = fmt.Fprintln(out, color.YellowString("WARNING: resetting %q deletes ALL of its data.", path))
	_, _ = fmt.Fprint(out, "Type YES to continue: ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(answer), "YES") {
		return ErrResetAborted
	}
	return nil
}
