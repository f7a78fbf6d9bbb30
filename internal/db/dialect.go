package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

//go:embed schema/postgres.sql
var postgresSchema string

//go:embed schema/seed.sql
var seedSQL string

// Schema version tracking:
// 1 - membres/calendrier logging triggers
const currentSchemaVersion = 1

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned for a driver name with no dialect.
var ErrUnknownDriver = errors.New("unknown database driver")

type dialect struct {
	name       string
	sqlDriver  string // name registered with database/sql
	schema     string
	pragmas    []string
	reset      []string
	singleConn bool

	readVersion  func(ctx context.Context, db *sql.DB) (int, error)
	writeVersion func(ctx context.Context, db *sql.DB, version int) error
}

var dialects = map[string]*dialect{
	DriverSQLite: {
		name:      DriverSQLite,
		sqlDriver: "sqlite3",
		schema:    sqliteSchema,
		pragmas: []string{
			"PRAGMA busy_timeout = 5000",
			"PRAGMA foreign_keys = ON",
		},
		// Children before parents; deleting members and bookings fires the
		// logging triggers, so logs is cleared last.
		reset: []string{
			"DELETE FROM calendrier",
			"DELETE FROM membres",
			"DELETE FROM locaux",
			"DELETE FROM pavillons",
			"DELETE FROM departements",
			"DELETE FROM facultes",
			"DELETE FROM logs",
			"DELETE FROM sqlite_sequence",
		},
		singleConn: true,
		readVersion: func(ctx context.Context, db *sql.DB) (int, error) {
			var version int
			err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
			return version, err
		},
		writeVersion: func(ctx context.Context, db *sql.DB, version int) error {
			_, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version))
			return err
		},
	},
	DriverPostgres: {
		name:      DriverPostgres,
		sqlDriver: "pgx",
		schema:    postgresSchema,
		// TRUNCATE does not fire row triggers.
		reset: []string{
			"TRUNCATE calendrier, membres, locaux, pavillons, departements, facultes, logs RESTART IDENTITY CASCADE",
		},
		readVersion: func(ctx context.Context, db *sql.DB) (int, error) {
			var version sql.NullInt64
			err := db.QueryRowContext(ctx, "SELECT max(version) FROM reserv_schema").Scan(&version)
			return int(version.Int64), err
		},
		writeVersion: func(ctx context.Context, db *sql.DB, version int) error {
			_, err := db.ExecContext(ctx,
				"INSERT INTO reserv_schema (version) VALUES ($1) ON CONFLICT DO NOTHING", version)
			return err
		},
	},
}

// lookupDialect resolves a driver name. "pgx" and "postgresql" are accepted
// as aliases for postgres, "sqlite" for sqlite3.
func lookupDialect(driver string) (*dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", DriverSQLite:
		return dialects[DriverSQLite], nil
	case "pgx", "postgresql", DriverPostgres:
		return dialects[DriverPostgres], nil
	}
	return nil, fmt.Errorf("%w %q: must be one of %v", ErrUnknownDriver, driver, Drivers())
}

// CanonicalDriver resolves an alias to one of the names returned by Drivers.
func CanonicalDriver(driver string) (string, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return "", err
	}
	return d.name, nil
}

// Drivers lists the supported driver names.
func Drivers() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema returns the DDL applied by Open for the given driver.
func Schema(driver string) (string, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return "", err
	}
	return d.schema, nil
}

// Seed returns the reference data inserted after the schema.
func Seed() string {
	return seedSQL
}
