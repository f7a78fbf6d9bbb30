// Package db provides the room-reservation database under test and the
// session used by the harness to drive it.
//
// The schema keeps members (membres), buildings (pavillons), rooms (locaux)
// and bookings (calendrier). Triggers write an audit row to the logs table
// whenever a member or a booking is added or removed:
//
//	INSERT INTO membres ...     -> 'Ajout du membre <cip>'
//	DELETE FROM membres ...     -> 'Suppression du membre <cip>'
//	INSERT INTO calendrier ...  -> 'Ajout de la réservation du <date>'
//	DELETE FROM calendrier ...  -> 'Annulation de la réservation du <date>'
//
// # Dialects
//
//   - sqlite3: mattn/go-sqlite3, in-memory by default (DSN ":memory:")
//   - postgres: jackc/pgx/v5 through database/sql
//
// Both dialects embed an idempotent DDL file and share the same seed data.
//
// # Sessions
//
// A Session owns one database for the duration of a test. Execute runs a
// statement, ExecuteFetch returns every row of a query as a rowset.RowSet,
// and Reset wipes all data and re-seeds so the next test starts clean.
// SQLite sessions are pinned to a single connection: with ":memory:" every
// connection would otherwise see its own empty database.
package db
