package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// postgresDSNEnv names the variable that enables PostgreSQL tests.
const postgresDSNEnv = "RESERV_TEST_POSTGRES_DSN"

// openTestSession creates a new in-memory SQLite session for testing.
func openTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: DriverSQLite})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// openFileSession creates a file-backed SQLite session in a temp directory.
func openFileSession(t *testing.T, path string) *Session {
	t.Helper()
	if path == "" {
		path = filepath.Join(t.TempDir(), "reserv.db")
	}
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: path})
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// openPostgresSession skips the test unless a PostgreSQL DSN is configured.
func openPostgresSession(t *testing.T) *Session {
	t.Helper()
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("Skipping PostgreSQL test - requires %s", postgresDSNEnv)
	}
	s, err := Open(context.Background(), Config{Driver: DriverPostgres, DSN: dsn})
	if err != nil {
		t.Fatalf("Open(postgres) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	return s
}
