package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Config describes how to open a Session.
type Config struct {
	// Driver is DriverSQLite (default) or DriverPostgres.
	Driver string

	// DSN is the data source name. Defaults to ":memory:" for SQLite.
	DSN string

	// SkipSeed leaves the database without reference data.
	SkipSeed bool

	// Logger receives statement-level debug logs. Nil discards them.
	Logger *slog.Logger
}

// Session is a database connection owned by a single test or command.
type Session struct {
	db      *sql.DB
	dialect *dialect
	id      string
	seed    bool
	logger  *slog.Logger
}

// Open connects to the database, applies the schema and inserts the seed data.
//
// This function is idempotent on an existing database: every DDL statement
// uses IF NOT EXISTS or CREATE OR REPLACE, and the seed ignores conflicts.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dsn == "" {
		if d.name != DriverSQLite {
			return nil, fmt.Errorf("dsn is required for driver %s", d.name)
		}
		dsn = ":memory:"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	conn, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d.singleConn {
		// One connection keeps an in-memory database alive and visible
		// to every statement of the session.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Session{
		db:      conn,
		dialect: d,
		id:      uuid.NewString(),
		seed:    !cfg.SkipSeed,
		logger:  logger,
	}
	s.logger = logger.With("session", s.id, "driver", d.name)

	if err := s.applyPragmas(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := s.applySchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if s.seed {
		if err := s.applySeed(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	s.logger.Debug("session opened")
	return s, nil
}

// Close closes the database connection.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("session closed")
	return s.db.Close()
}

// ID returns the unique identifier of this session, used in log lines.
func (s *Session) ID() string {
	return s.id
}

// Driver returns the resolved driver name.
func (s *Session) Driver() string {
	return s.dialect.name
}

// DB returns the underlying sql.DB for direct queries.
func (s *Session) DB() *sql.DB {
	return s.db
}

// SchemaVersion returns the schema version recorded in the database.
func (s *Session) SchemaVersion(ctx context.Context) (int, error) {
	version, err := s.dialect.readVersion(ctx, s.db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (s *Session) applyPragmas(ctx context.Context) error {
	for _, pragma := range s.dialect.pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *Session) applySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	version, err := s.dialect.readVersion(ctx, s.db)
	if err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}
	if version < currentSchemaVersion {
		if err := s.dialect.writeVersion(ctx, s.db, currentSchemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	return nil
}

func (s *Session) applySeed(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, seedSQL); err != nil {
		return fmt.Errorf("failed to execute seed: %w", err)
	}
	return nil
}
