package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Storage owns the connection to a single file-backed database.
type Storage struct {
	Connection *sql.DB
	Path       string
	logger     logrus.FieldLogger
}

// Open connects to the database at path, creating the file when it doesn't exist yet.
// Foreign keys constraints are enabled for every pooled connection through the connection string.
func Open(logger logrus.FieldLogger, path string) (*Storage, error) {
	logger.WithField("path", path).Debug("opening SQLite database")

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}

	// attempt to create the parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating the directory of %q: %w", path, err)
	}

	connection, err := sql.Open("sqlite3", getConnectionString(path))
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	// opening the DB will fail silently when the package is compiled without CGO_ENABLED
	if err = connection.Ping(); err != nil {
		_ = connection.Close()
		return nil, fmt.Errorf("connecting to database %q: %w", path, err)
	}

	return &Storage{Connection: connection, Path: path, logger: logger}, nil
}

// OpenExisting connects to a database that must already exist, without ever creating a new file.
func OpenExisting(logger logrus.FieldLogger, path string) (*Storage, error) {
	if err := mustExist(path); err != nil {
		return nil, err
	}
	return Open(logger, path)
}

// Close releases the connection; it's safe to call on a storage that failed to open.
func (s *Storage) Close() error {
	if s == nil || s.Connection == nil {
		return nil
	}
	s.logger.Debug("database stopping")
	return s.Connection.Close()
}

// Initialise applies every table, column upgrade, trigger and index of the canonical schema.
// Statements are idempotent, so the call is safe against an already initialised database; any failure rolls back
// the whole batch.
func (s *Storage) Initialise(ctx context.Context) error {
	if s == nil || s.Connection == nil {
		return ErrNotOpened
	}
	s.logger.Info("initialising database schema")

	tx, err := s.Connection.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}

	// rolling back after a transaction commit will result in a safe NOP
	defer tx.Rollback()

	if err = applyStatements(ctx, s.logger, tx, tables); err != nil {
		return err
	}

	added, err := applyUpgrades(ctx, s.logger, tx)
	if err != nil {
		return err
	}

	if err = applyStatements(ctx, s.logger, tx, triggers); err != nil {
		return err
	}
	if err = applyStatements(ctx, s.logger, tx, indexes); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"tables":   len(tables),
		"triggers": len(triggers),
		"indexes":  len(indexes),
		"upgraded": len(added),
	}).Info("database schema ready")
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func applyStatements(ctx context.Context, logger logrus.FieldLogger, db execer, statements []statement) error {
	for _, st := range statements {
		logger.WithField(string(st.kind), st.name).Debugf("creating %s", st.kind)
		if _, err := db.ExecContext(ctx, st.sql); err != nil {
			return fmt.Errorf("creating %s %s: %w", st.kind, st.name, err)
		}
	}
	return nil
}

// getConnectionString provides a configuration string that enables foreign keys constraints.
// The path is escaped into a URI filename, otherwise a '?' or '#' in it would split the parameters off.
func getConnectionString(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?_fk=on&_busy_timeout=5000"
}
