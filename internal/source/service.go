// Package source reads the embedded SQLite database holding the normalized
// retail dataset. It is the read-only side of the migration: table
// verification and row streaming, nothing else.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"retailsync/pkg/errors"
)

// ExpectedTables is the fixed table set the source must expose, case-sensitive
// as named in the source database.
var ExpectedTables = []string{
	"Region",
	"Country",
	"Customer",
	"ProductCategory",
	"Product",
	"OrderDetail",
}

// Service provides read access to the source database.
type Service struct {
	db   *sql.DB
	path string
}

// NewService opens the SQLite file at path. The file must already exist:
// the sqlite driver would happily create an empty database otherwise, and an
// empty source must fail verification, not schema reset.
func NewService(path string) (*Service, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.SourceNotFoundError(path, err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.SourceNotFoundError(path, err)
	}

	// One connection for the whole run; the copy is strictly sequential.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.SourceNotFoundError(path, err)
	}

	return &Service{db: db, path: path}, nil
}

// NewServiceWithDB wraps an existing handle; used by tests.
func NewServiceWithDB(db *sql.DB) *Service {
	return &Service{db: db}
}

// Close releases the source connection.
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// VerifyTables lists the tables present in the source and compares them
// against ExpectedTables. It reports exactly the missing names, sorted.
func (s *Service) VerifyTables(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSourceRead, "Failed to list source tables")
	}
	defer rows.Close()

	found := make(map[string]bool)
	var foundNames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return errors.Wrap(err, errors.ErrCodeSourceRead, "Failed to scan source table name")
		}
		found[name] = true
		foundNames = append(foundNames, name)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSourceRead, "Failed to list source tables")
	}

	var missing []string
	for _, table := range ExpectedTables {
		if !found[table] {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		sort.Strings(foundNames)
		return errors.MissingTablesError(missing, foundNames)
	}

	return nil
}

// QueryTable streams the listed columns of a source table, in the order given.
// The caller owns the returned rows and must close them.
func (s *Service) QueryTable(ctx context.Context, table string, columns []string) (*sql.Rows, error) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceRead, fmt.Sprintf("Failed to read source table %s", table)).
			WithContext("table", table)
	}
	return rows, nil
}

// quoteIdent double-quotes an identifier. Table and column names here come
// from the fixed mapping set, never from user input.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
