package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/reserv/internal/fixture"
	"github.com/roach88/reserv/internal/rowset"
)

// Session is the database surface a scenario needs.
// *db.Session implements it.
type Session interface {
	Execute(ctx context.Context, query string, args ...any) (int64, error)
	ExecuteFetch(ctx context.Context, query string, args ...any) (*rowset.RowSet, error)
	Reset(ctx context.Context) error
}

// Harness runs scenarios sequentially against one session.
type Harness struct {
	session  Session
	fixtures *fixture.Store
	logger   *slog.Logger
	reset    bool
	newRunID func() string
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithReset controls whether the session is reset before each scenario.
// Enabled by default.
func WithReset(reset bool) Option {
	return func(h *Harness) {
		h.reset = reset
	}
}

// WithRunIDs replaces the uuid run ID generator.
func WithRunIDs(next func() string) Option {
	return func(h *Harness) {
		if next != nil {
			h.newRunID = next
		}
	}
}

// New creates a harness over session, comparing against fixtures.
func New(session Session, fixtures *fixture.Store, opts ...Option) *Harness {
	h := &Harness{
		session:  session,
		fixtures: fixtures,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		reset:    true,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fixtures returns the fixture store used for comparisons.
func (h *Harness) Fixtures() *fixture.Store {
	return h.fixtures
}

// Execute resets the session (if enabled), runs every mutate statement in
// order and returns the rows selected by the scenario query.
func (h *Harness) Execute(ctx context.Context, scenario *Scenario) (*rowset.RowSet, error) {
	if err := Validate(scenario); err != nil {
		return nil, err
	}

	if h.reset {
		if err := h.session.Reset(ctx); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	for i, stmt := range scenario.Mutate {
		if _, err := h.session.Execute(ctx, stmt); err != nil {
			return nil, fmt.Errorf("scenario %s: mutate[%d]: %w", scenario.Name, i, err)
		}
	}

	actual, err := h.session.ExecuteFetch(ctx, scenario.Query)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	return actual, nil
}

// Run executes a scenario and compares the live rows with its fixture.
//
// A mismatch is not an error: it is reported through Result.Pass and
// Result.Errors. Errors are returned only when the scenario cannot run
// (invalid scenario, SQL failure, missing or unreadable fixture).
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	runID := h.newRunID()
	logger := h.logger.With("scenario", scenario.Name, "run_id", runID)

	actual, err := h.Execute(ctx, scenario)
	if err != nil {
		return nil, err
	}

	expected, err := h.fixtures.Load(scenario.FixtureName())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult(scenario.Name, scenario.FixtureName(), runID)
	result.Expected = expected
	result.Actual = actual
	for _, diff := range rowset.Diff(expected, actual, !scenario.Unordered) {
		result.AddError(diff)
	}

	if result.Pass {
		logger.Info("scenario passed", "fixture", result.Fixture, "rows", actual.Len())
	} else {
		logger.Warn("scenario failed",
			"fixture", result.Fixture,
			"rows", actual.Len(),
			"differences", len(result.Errors),
		)
	}
	return result, nil
}

// Record executes a scenario and saves the live rows as its fixture.
func (h *Harness) Record(ctx context.Context, scenario *Scenario) (*rowset.RowSet, error) {
	actual, err := h.Execute(ctx, scenario)
	if err != nil {
		return nil, err
	}

	if err := h.fixtures.Dump(scenario.FixtureName(), actual); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	h.logger.Info("fixture recorded",
		"scenario", scenario.Name,
		"fixture", scenario.FixtureName(),
		"rows", actual.Len(),
	)
	return actual, nil
}

// RunAll runs scenarios in order and stops at the first scenario that
// cannot run. Mismatches do not stop the run.
func (h *Harness) RunAll(ctx context.Context, scenarios []*Scenario) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, scenario := range scenarios {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := h.Run(ctx, scenario)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}
