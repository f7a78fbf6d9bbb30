package harness

import (
	"context"
	"testing"

	"github.com/roach88/reserv/internal/fixture"
)

// RunWithGolden executes a scenario and compares the live rows against the
// fixture file byte for byte using goldie. Row order is significant even for
// unordered scenarios.
//
// To regenerate fixtures, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the rows don't match the fixture.
func RunWithGolden(t *testing.T, h *Harness, scenario *Scenario) error {
	t.Helper()

	actual, err := h.Execute(context.Background(), scenario)
	if err != nil {
		return err
	}

	fixture.AssertGolden(t, h.fixtures.Dir, scenario.FixtureName(), actual)
	return nil
}
