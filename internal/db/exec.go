package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/reserv/internal/rowset"
)

// Execute runs a statement that returns no rows and reports rows affected.
// Drivers that cannot report rows affected yield 0.
func (s *Session) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("execute %q: %w", statementLabel(query), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}

	s.logger.Debug("statement executed",
		"statement", statementLabel(query),
		"rows_affected", affected,
	)
	return affected, nil
}

// ExecuteFetch runs a query and returns all of its rows.
// A query matching nothing returns an empty, non-nil RowSet.
func (s *Session) ExecuteFetch(ctx context.Context, query string, args ...any) (*rowset.RowSet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", statementLabel(query), err)
	}
	defer rows.Close()

	rs, err := rowset.Scan(rows)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", statementLabel(query), err)
	}

	s.logger.Debug("query fetched",
		"statement", statementLabel(query),
		"rows", rs.Len(),
	)
	return rs, nil
}

// Reset deletes every row, restarts identity sequences and re-inserts the seed data.
func (s *Session) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset: begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range s.dialect.reset {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %q: %w", statementLabel(stmt), err)
		}
	}
	if s.seed {
		if _, err := tx.ExecContext(ctx, seedSQL); err != nil {
			return fmt.Errorf("reset: seed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reset: commit: %w", err)
	}

	s.logger.Debug("session reset")
	return nil
}

// statementLabel shortens a statement to its first non-blank line for error
// messages and logs. Long lines are cut after maxLen runes.
func statementLabel(query string) string {
	const maxLen = 80

	label := ""
	for _, line := range strings.Split(query, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			label = line
			break
		}
	}
	runes := 0
	for i := range label {
		if runes == maxLen {
			return label[:i] + "..."
		}
		runes++
	}
	return label
}
