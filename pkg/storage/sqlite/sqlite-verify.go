package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Difference describes a schema object, or a table column, that the canonical schema defines and the database lacks.
type Difference struct {
	Kind   string
	Name   string
	Column string
}

func (d Difference) String() string {
	if d.Column != "" {
		return fmt.Sprintf("missing column %s.%s", d.Name, d.Column)
	}
	return fmt.Sprintf("missing %s %s", d.Kind, d.Name)
}

// Verify compares the database against the canonical schema, built from scratch in memory.
// Objects the canonical schema doesn't know about are tolerated; an empty result means the schema is complete.
func (s *Storage) Verify(ctx context.Context) ([]Difference, error) {
	if s == nil || s.Connection == nil {
		return nil, ErrNotOpened
	}

	desired, err := canonical(ctx)
	if err != nil {
		return nil, fmt.Errorf("building canonical schema: %w", err)
	}
	defer desired.Close()

	desiredObjects, err := mapSchema(ctx, desired)
	if err != nil {
		return nil, err
	}
	actualObjects, err := mapSchema(ctx, s.Connection)
	if err != nil {
		return nil, err
	}

	var differences = make([]Difference, 0)
	for _, name := range sortedKeys(desiredObjects) {
		var kind = desiredObjects[name]
		if actualKind, found := actualObjects[name]; !found || actualKind != kind {
			differences = append(differences, Difference{Kind: kind, Name: name})
			continue
		}
		if kind != string(kindTable) {
			continue
		}

		// tables exist on both sides, compare their columns
		desiredColumns, err := columnsOf(ctx, desired, name)
		if err != nil {
			return nil, err
		}
		actualColumns, err := columnsOf(ctx, s.Connection, name)
		if err != nil {
			return nil, err
		}
		for _, column := range sortedKeys(desiredColumns) {
			if !actualColumns[column] {
				differences = append(differences, Difference{Kind: kind, Name: name, Column: column})
			}
		}
	}

	s.logger.WithField("differences", len(differences)).Debug("schema verified")
	return differences, nil
}

// canonical opens a private in-memory database holding the canonical schema.
func canonical(ctx context.Context) (*sql.DB, error) {
	connection, err := sql.Open("sqlite3", getConnectionString(":memory:"))
	if err != nil {
		return nil, err
	}

	// every pooled connection to :memory: would get a database of its own
	connection.SetMaxOpenConns(1)

	var silent = logrus.New()
	silent.SetLevel(logrus.PanicLevel)
	var all = append(append(append([]statement{}, tables...), triggers...), indexes...)
	if err = applyStatements(ctx, silent, connection, all); err != nil {
		_ = connection.Close()
		return nil, err
	}
	return connection, nil
}

// mapSchema maps the name of every user defined table, trigger and index to its kind.
func mapSchema(ctx context.Context, connection *sql.DB) (objects map[string]string, err error) {
	rows, err := connection.QueryContext(ctx,
		`SELECT name, type FROM sqlite_master WHERE type IN ('table', 'trigger', 'index') AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}

	objects = make(map[string]string)
	var name, kind string
	for rows.Next() {
		if err = rows.Scan(&name, &kind); err != nil {
			_ = rows.Close()
			return objects, err
		}
		objects[name] = kind
	}

	if err = rows.Err(); err != nil {
		_ = rows.Close()
		return objects, err
	}

	err = rows.Close()
	return objects, err
}

func sortedKeys[V any](m map[string]V) []string {
	var keys = make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
