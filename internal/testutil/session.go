// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/roach88/reserv/internal/db"
)

// PostgresDSNEnv names the variable that enables PostgreSQL tests.
const PostgresDSNEnv = "RESERV_TEST_POSTGRES_DSN"

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewSession opens a seeded in-memory SQLite session closed at test cleanup.
func NewSession(t testing.TB) *db.Session {
	t.Helper()
	s, err := db.Open(context.Background(), db.Config{Driver: db.DriverSQLite})
	if err != nil {
		t.Fatalf("db.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NewPostgresSession opens a reset PostgreSQL session, or skips the test
// when RESERV_TEST_POSTGRES_DSN is not set.
func NewPostgresSession(t testing.TB) *db.Session {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("Skipping PostgreSQL test - requires %s", PostgresDSNEnv)
	}

	s, err := db.Open(context.Background(), db.Config{Driver: db.DriverPostgres, DSN: dsn})
	if err != nil {
		t.Fatalf("db.Open(postgres) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	return s
}
