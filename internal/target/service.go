// Package target manages the server-side Postgres database that receives the
// migrated schema and data.
package target

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"

	"retailsync/pkg/errors"
)

// maxQueryParams is the Postgres extended-protocol parameter limit; multi-row
// inserts are paged to stay under it.
const maxQueryParams = 65535

// insertPageSize caps rows per INSERT statement within a batch transaction.
const insertPageSize = 10000

// Config holds the target connection settings.
type Config struct {
	Username string
	Password string
	Server   string // host or host:port
	Database string
	SSLMode  string
	Timeout  time.Duration
}

// DSN builds the connection string. The password is URL-escaped; a literal
// '@' or '/' in it must not break the URL.
func (c Config) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}
	return fmt.Sprintf("postgresql://%s:%s@%s/%s?sslmode=%s",
		url.QueryEscape(c.Username),
		url.QueryEscape(c.Password),
		c.Server,
		c.Database,
		sslmode,
	)
}

// Service provides Postgres operations for the migrator and the assistant.
type Service struct {
	db        *sql.DB
	config    Config
	connected bool
}

// NewService creates a service; call Connect before use.
func NewService(config Config) *Service {
	return &Service{config: config}
}

// NewServiceWithDB wraps an existing handle; used by tests.
func NewServiceWithDB(db *sql.DB) *Service {
	return &Service{db: db, connected: true}
}

// Connect opens the connection pool and verifies it with a ping.
func (s *Service) Connect() error {
	if s.connected {
		return nil
	}

	db, err := sql.Open("postgres", s.config.DSN())
	if err != nil {
		return errors.ConnectionError("Failed to open Postgres connection", err).
			WithContext("server", s.config.Server).
			WithContext("database", s.config.Database)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := s.getContext()
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		if strings.Contains(err.Error(), "password authentication failed") {
			return errors.New(errors.ErrCodeAuthenticationFailed, "Postgres authentication failed").
				WithContext("user", s.config.Username).
				WithSuggestions(
					"Verify POSTGRES_USERNAME and POSTGRES_PASSWORD",
					"Check pg_hba.conf on the server if you manage it",
				)
		}

		return errors.ConnectionError("Failed to connect to Postgres", err).
			WithContext("server", s.config.Server)
	}

	s.db = db
	s.connected = true
	return nil
}

// Close closes the database connection.
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	s.connected = false
	return nil
}

// DB exposes the underlying handle for read-only consumers (assistant queries).
func (s *Service) DB() *sql.DB {
	return s.db
}

// ResetSchema drops any prior retail schema (and the legacy clinical tables
// that may share the database), then recreates the six tables, all inside a
// single transaction. Postgres DDL is transactional, so a failure rolls the
// whole reset back and leaves no half-built schema.
func (s *Service) ResetSchema(ctx context.Context) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to database").
			WithSuggestions("Call Connect() before resetting the schema")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin schema transaction")
	}

	ddl := legacySchemaDrops + schemaDrops + SchemaDDL
	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return errors.SchemaResetError("Target schema reset failed", err).
				WithContext("statement", stmt)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.SchemaResetError("Failed to commit schema reset", err)
	}

	return nil
}

// InsertRows writes one batch of rows into a table as multi-row INSERT
// statements, paged to respect the parameter limit, inside one transaction.
// The commit makes the batch an independent durable unit of work.
func (s *Service) InsertRows(ctx context.Context, table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to database").
			WithSuggestions("Call Connect() before inserting rows")
	}

	pageSize := insertPageSize
	if limit := maxQueryParams / len(columns); limit < pageSize {
		pageSize = limit
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin insert transaction")
	}

	for start := 0; start < len(rows); start += pageSize {
		end := start + pageSize
		if end > len(rows) {
			end = len(rows)
		}
		page := rows[start:end]

		query, args := buildInsert(table, columns, page)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return s.classifyInsertError(table, query, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction,
			fmt.Sprintf("Failed to commit batch for table %s", table)).
			WithContext("table", table)
	}

	return nil
}

// Query runs a read query against the target, for the assistant and metrics.
func (s *Service) Query(ctx context.Context, query string) (*sql.Rows, error) {
	if !s.connected {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "Not connected to database")
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.SQLError("Query execution failed", query, err)
	}
	return rows, nil
}

// buildInsert renders a multi-row VALUES insert with positional placeholders.
func buildInsert(table string, columns []string, rows [][]interface{}) (string, []interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	args := make([]interface{}, 0, len(rows)*len(columns))
	n := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
			args = append(args, row[j])
		}
		b.WriteString(")")
	}

	return b.String(), args
}

// classifyInsertError maps integrity-constraint rejections (class 23) onto
// the dedicated error; those are never retried because they mean ordering was
// violated or the source data is inconsistent.
func (s *Service) classifyInsertError(table, query string, err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Class() == "23" {
		return errors.ConstraintViolationError(table, err)
	}
	return errors.SQLError(fmt.Sprintf("Bulk insert into %s failed", table), query, err).
		WithContext("table", table)
}

// splitStatements splits an SQL block on semicolons that are outside string
// literals.
func splitStatements(block string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := rune(0)

	for _, char := range block {
		if !inString {
			if char == '\'' || char == '"' {
				inString = true
				stringChar = char
			} else if char == ';' {
				statements = append(statements, current.String())
				current.Reset()
				continue
			}
		} else if char == stringChar {
			inString = false
		}
		current.WriteRune(char)
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}

	return statements
}

// getContext returns a bounded context for connection-level operations.
func (s *Service) getContext() (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
