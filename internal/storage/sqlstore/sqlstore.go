// Package sqlstore reads the guestbook straight from a SQL database: the
// Postgres instance behind the hosted service, or a local SQLite file.
package sqlstore

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/sirosfoundation/go-dugong/internal/domain"
	"github.com/sirosfoundation/go-dugong/internal/storage"
	"github.com/sirosfoundation/go-dugong/pkg/config"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// Store implements storage.GuestbookStore on database/sql
type Store struct {
	db    *sqlx.DB
	query string
}

// New wraps an open connection. schema may be empty.
func New(db *sqlx.DB, schema, table string) *Store {
	return &Store{
		db:    db,
		query: fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC", qualifiedName(schema, table), pq.QuoteIdentifier(domain.IDColumn)),
	}
}

// NewPostgres connects to Postgres and verifies the connection
func NewPostgres(ctx context.Context, cfg *config.PostgresConfig, svc *config.ServiceConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", storage.ErrUnavailable)
	}

	db, err := sqlx.ConnectContext(ctx, driverPostgres, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return New(db, svc.Schema, svc.Table), nil
}

// NewSQLite opens (and creates if needed) a SQLite database holding the guestbook table
func NewSQLite(ctx context.Context, cfg *config.SQLiteConfig, table string) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sqlx.ConnectContext(ctx, driverSQLite, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A local file has nobody else to create the table
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, pq.QuoteIdentifier(table))
	if _, err := db.ExecContext(ctx, create); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create guestbook table: %w", err)
	}

	return New(db, "", table), nil
}

// ListEntries runs the single read query of the guestbook
func (s *Store) ListEntries(ctx context.Context) (domain.GuestbookEntries, error) {
	rows, err := s.db.QueryxContext(ctx, s.query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	entries := domain.GuestbookEntries{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, classify(err)
		}
		for k, v := range row {
			// Drivers hand out text-like columns as bytes
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		entries = append(entries, domain.GuestbookEntry(row))
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return entries, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func qualifiedName(schema, table string) string {
	if schema == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

// classify turns driver errors into storage errors
func classify(err error) error {
	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &storage.QueryError{
			Code:    string(pqErr.Code),
			Message: pqErr.Message,
			Hint:    pqErr.Hint,
		}
	}

	return &storage.QueryError{Message: strings.TrimSpace(err.Error())}
}
