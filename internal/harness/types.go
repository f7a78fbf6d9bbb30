package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/reserv/internal/rowset"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// RunID identifies this run in log lines.
	RunID string `json:"run_id"`

	// Fixture is the fixture the live rows were compared with.
	Fixture string `json:"fixture"`

	// Pass is true when the live rows equal the fixture.
	Pass bool `json:"pass"`

	// Errors lists every difference. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Expected and Actual hold the compared row sets.
	Expected *rowset.RowSet `json:"-"`
	Actual   *rowset.RowSet `json:"-"`
}

// NewResult creates a new passing result.
func NewResult(name, fixture, runID string) *Result {
	return &Result{
		Name:    name,
		RunID:   runID,
		Fixture: fixture,
		Pass:    true,
		Errors:  []string{},
	}
}

// AddError records a difference and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Err returns a *MismatchError when the result failed, nil otherwise.
func (r *Result) Err() error {
	if r.Pass {
		return nil
	}
	return &MismatchError{
		Scenario: r.Name,
		Fixture:  r.Fixture,
		Diffs:    r.Errors,
		Actual:   r.Actual,
	}
}

// MismatchError reports live rows that diverge from the fixture.
type MismatchError struct {
	Scenario string
	Fixture  string
	Diffs    []string
	Actual   *rowset.RowSet
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "scenario %s does not match fixture %s\n", e.Scenario, e.Fixture)
	for _, d := range e.Diffs {
		fmt.Fprintf(&buf, "  %s\n", d)
	}

	// The live rows, in fixture form, for copy-paste when re-recording.
	if e.Actual != nil {
		fmt.Fprintf(&buf, "\nActual rows:\n%s", e.Actual)
	}

	return buf.String()
}
