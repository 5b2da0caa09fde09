// Package store persists word definition graphs across normalized relational tables.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/starford/wordhoard/internal/migrate"
	"github.com/starford/wordhoard/internal/store/migrations"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// sqliteParams are appended to SQLite DSNs that carry no query string.
// _txlock=immediate makes every write transaction take the write lock up
// front so that concurrent writers queue on busy_timeout instead of failing on
// a stale WAL snapshot.
const sqliteParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"

// Store is the authoritative relational store for word definitions.
type Store struct {
	db *sqlx.DB
	// rdb serves reads. For file-backed SQLite it is a separate pool whose
	// transactions begin deferred, so readers see a WAL snapshot and never
	// wait on the write lock. Otherwise it is db.
	rdb     *sqlx.DB
	driver  string
	applied []string

	// checkpoint, when set, is called between write stages and aborts the
	// write when it returns an error.
	checkpoint func(stage string) error
}

// Open connects to the database, verifies the connection and applies any
// pending migrations for the driver's dialect.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("store: dsn is required")
	}
	var root string
	switch driver {
	case DriverSQLite:
		root = "sqlite"
		if !strings.Contains(dsn, "?") {
			dsn += sqliteParams
		}
	case DriverPostgres:
		root = "postgres"
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	applied, err := migrate.Apply(ctx, db, migrations.FS, root)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: run migrations: %w", err)
	}
	rdb := db
	if driver == DriverSQLite && !isMemoryDSN(dsn) {
		rdb, err = sqlx.Open(driver, deferredDSN(dsn))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("store: open read db: %w", err)
		}
		if err := rdb.PingContext(ctx); err != nil {
			rdb.Close()
			db.Close()
			return nil, fmt.Errorf("store: ping read db: %w", err)
		}
	}
	return &Store{db: db, rdb: rdb, driver: driver, applied: applied}, nil
}

// deferredDSN rewrites a SQLite DSN so its transactions begin deferred.
func deferredDSN(dsn string) string {
	if strings.Contains(dsn, "_txlock=") {
		for _, mode := range []string{"immediate", "exclusive"} {
			dsn = strings.ReplaceAll(dsn, "_txlock="+mode, "_txlock=deferred")
		}
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_txlock=deferred"
	}
	return dsn + "?_txlock=deferred"
}

// isMemoryDSN reports whether a SQLite DSN names an in-memory database, which
// a second pool could not share.
func isMemoryDSN(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Applied returns the migrations applied when the store was opened.
func (s *Store) Applied() []string {
	return s.applied
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pools.
func (s *Store) Close() error {
	var rerr error
	if s.rdb != s.db {
		rerr = s.rdb.Close()
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	return rerr
}

func (s *Store) reach(stage string) error {
	if s.checkpoint == nil {
		return nil
	}
	return s.checkpoint(stage)
}

// pgUniqueViolation is the SQLSTATE Postgres reports for unique violations.
const pgUniqueViolation = "23505"

// isUniqueConstraintErr reports whether err is a unique or primary key
// violation from either driver.
func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
