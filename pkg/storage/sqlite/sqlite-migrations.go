package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// AddedColumn identifies a column appended to an existing table.
type AddedColumn struct {
	Table  string
	Column string
}

func (c AddedColumn) String() string {
	return c.Table + "." + c.Column
}

// MigrateVisibility adds the posts.visibility_status column, defaulting to 'VISIBLE', to an existing database.
// The database must already exist: a missing file yields ErrDatabaseMissing and no file is created.
func MigrateVisibility(ctx context.Context, logger logrus.FieldLogger, path string) (added bool, err error) {
	storage, err := OpenExisting(logger, path)
	if err != nil {
		return false, err
	}
	defer storage.Close()

	columns, err := columnsOf(ctx, storage.Connection, "posts")
	if err != nil {
		return false, err
	}
	if len(columns) == 0 {
		return false, fmt.Errorf("table posts not found in %q: %w", path, ErrDatabaseMissing)
	}

	added, err = addColumn(ctx, logger, storage.Connection, columns, visibilityUpgrade)
	if err != nil {
		return false, err
	}
	if !added {
		logger.Info("column posts.visibility_status already exists, nothing to do")
	}
	return added, nil
}

// Upgrade appends every column older revisions of the schema lacked, to tables that already exist.
func (s *Storage) Upgrade(ctx context.Context) ([]AddedColumn, error) {
	if s == nil || s.Connection == nil {
		return nil, ErrNotOpened
	}

	tx, err := s.Connection.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning upgrade transaction: %w", err)
	}
	defer tx.Rollback()

	added, err := applyUpgrades(ctx, s.logger, tx)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing upgrades: %w", err)
	}
	return added, nil
}

func applyUpgrades(ctx context.Context, logger logrus.FieldLogger, db execer) ([]AddedColumn, error) {
	var added = make([]AddedColumn, 0)

	// the column set is read once per table, upgrades of the same table are contiguous
	var columnsByTable = make(map[string]map[string]bool)
	for _, upgrade := range upgrades {
		columns, found := columnsByTable[upgrade.table]
		if !found {
			var err error
			if columns, err = columnsOf(ctx, db, upgrade.table); err != nil {
				return added, err
			}
			columnsByTable[upgrade.table] = columns
		}

		// a missing table is created later on with its full set of columns
		if len(columns) == 0 {
			continue
		}

		ok, err := addColumn(ctx, logger, db, columns, upgrade)
		if err != nil {
			return added, err
		}
		if ok {
			added = append(added, AddedColumn{upgrade.table, upgrade.column})
			columns[upgrade.column] = true
		}
	}
	return added, nil
}

func addColumn(ctx context.Context, logger logrus.FieldLogger, db execer, columns map[string]bool, upgrade columnUpgrade) (bool, error) {
	if columns[upgrade.column] {
		return false, nil
	}

	logger.WithFields(logrus.Fields{
		"table":  upgrade.table,
		"column": upgrade.column,
	}).Info("adding missing column")

	// table and column names come from the static upgrades list, never from input
	var query = fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", upgrade.table, upgrade.column, upgrade.definition)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return false, fmt.Errorf("adding column %s.%s: %w", upgrade.table, upgrade.column, err)
	}
	return true, nil
}

// columnsOf returns the live column set of a table, empty when the table doesn't exist.
func columnsOf(ctx context.Context, db execer, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}

	var columns = make(map[string]bool)
	var name string
	for rows.Next() {
		if err = rows.Scan(&name); err != nil {
			_ = rows.Close()
			return columns, err
		}
		columns[name] = true
	}

	if err = rows.Err(); err != nil {
		_ = rows.Close()
		return columns, err
	}

	if err = rows.Close(); err != nil {
		return columns, err
	}

	return columns, nil
}

func mustExist(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrDatabaseMissing, path)
	}
	if err != nil {
		return fmt.Errorf("checking database %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	return nil
}
