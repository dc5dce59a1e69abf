package sqlite

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrDatabaseMissing = errors.New("database file not found, run `socialdb init` to create the schema first")
	ErrNotOpened       = errors.New("database not opened")
	ErrIsDirectory     = errors.New("database path is a directory")
)

// IsUniqueViolation reports whether err stems from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	return hasExtendedCode(err, sqlite3.ErrConstraintUnique)
}

// IsForeignKeyViolation reports whether err stems from a FOREIGN KEY constraint.
func IsForeignKeyViolation(err error) bool {
	return hasExtendedCode(err, sqlite3.ErrConstraintForeignKey)
}

// IsCheckViolation reports whether err stems from a CHECK constraint.
func IsCheckViolation(err error) bool {
	return hasExtendedCode(err, sqlite3.ErrConstraintCheck)
}

func hasExtendedCode(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == code
	}
	return false
}
