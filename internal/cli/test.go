package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/reserv/internal/config"
	"github.com/roach88/reserv/internal/db"
	"github.com/roach88/reserv/internal/fixture"
	"github.com/roach88/reserv/internal/harness"
	"github.com/roach88/reserv/internal/watch"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // record fixtures instead of comparing
	Filter string // scenario filter (glob pattern)
	Watch  bool   // re-run on file changes
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name     string   `json:"name"`
	Fixture  string   `json:"fixture,omitempty"`
	RunID    string   `json:"run_id,omitempty"`
	Pass     bool     `json:"pass"`
	Recorded bool     `json:"recorded,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test [scenarios-dir]",
		Short: "Check the audit log against recorded fixtures",
		Long: `Run every scenario: apply its mutations on a fresh database, run its
query against the logs table and compare the rows with its fixture.

The scenarios directory defaults to the "scenarios" setting.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, SQL errors, missing fixtures, etc.)

Examples:
  reserv test
  reserv test ./testdata/scenarios --filter "*member*"
  reserv test --update
  reserv test --watch
  reserv test --driver postgres --dsn postgres://localhost/reserv --format json`,
		Args:          commandArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestCommand(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "record fixtures from the live rows")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "re-run when scenarios or fixtures change")
	cmd.Flags().Bool(config.KeyReset, true, "reset the database before each scenario")

	return cmd
}

func runTestCommand(cmd *cobra.Command, opts *TestOptions, args []string) error {
	cfg, logger, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.ScenarioDir = args[0]
	}

	if opts.Watch && opts.Update {
		return NewExitError(ExitCommandError, "--watch cannot be combined with --update")
	}
	if _, err := os.Stat(cfg.ScenarioDir); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", cfg.ScenarioDir))
	}

	ctx := commandContext(cmd)
	if !opts.Watch {
		return runTests(ctx, cmd, opts, cfg, logger)
	}

	w := watch.New(
		watch.WithLogger(logger),
		watch.WithErrorHandler(func(err error) {
			if GetExitCode(err) != ExitFailure {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
		}),
	)
	dirs := []string{cfg.ScenarioDir}
	if _, err := os.Stat(cfg.FixtureDir); err == nil {
		dirs = append(dirs, cfg.FixtureDir)
	}
	return w.Run(ctx, dirs, watch.DefaultDebounce, func(ctx context.Context) error {
		return runTests(ctx, cmd, opts, cfg, logger)
	})
}

func runTests(ctx context.Context, cmd *cobra.Command, opts *TestOptions, cfg *config.Config, logger *slog.Logger) error {
	out := newFormatter(cmd, opts.RootOptions)

	scenarios, err := harness.LoadScenarios(cfg.ScenarioDir, opts.Filter)
	if err != nil {
		return out.Fail(CodeScenario, "failed to load scenarios", err)
	}

	if len(scenarios) == 0 {
		if out.JSON() {
			return out.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(out.Writer, "No scenarios found.")
		return nil
	}

	sessionCfg := cfg.Session()
	sessionCfg.Logger = logger
	session, err := db.Open(ctx, sessionCfg)
	if err != nil {
		return out.Fail(CodeDatabase, "failed to open database", err)
	}
	defer session.Close()

	h := harness.New(session, fixture.NewStore(cfg.FixtureDir),
		harness.WithLogger(logger),
		harness.WithReset(cfg.Reset),
	)

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarios)),
		Total:     len(scenarios),
	}
	for _, scenario := range scenarios {
		if err := ctx.Err(); err != nil {
			return err
		}

		var sr ScenarioResult
		if opts.Update {
			sr = recordScenario(ctx, h, scenario)
		} else {
			sr = runScenario(ctx, h, scenario)
		}
		if !out.JSON() {
			printScenario(out, sr)
		}

		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if out.JSON() {
		return outputTestJSON(out, result)
	}
	return outputTestText(out, result)
}

// runScenario compares one scenario with its fixture. Errors that stop the
// scenario (SQL failures, missing fixtures) count as a failed scenario.
func runScenario(ctx context.Context, h *harness.Harness, scenario *harness.Scenario) ScenarioResult {
	sr := ScenarioResult{Name: scenario.Name, Fixture: scenario.FixtureName()}

	result, err := h.Run(ctx, scenario)
	if err != nil {
		sr.Errors = []string{err.Error()}
		if errors.Is(err, fixture.ErrNotFound) {
			sr.Errors = []string{fmt.Sprintf("fixture %s not found (record it with --update)", scenario.FixtureName())}
		}
		return sr
	}

	sr.RunID = result.RunID
	sr.Pass = result.Pass
	if !result.Pass {
		sr.Errors = result.Errors
	}
	return sr
}

func recordScenario(ctx context.Context, h *harness.Harness, scenario *harness.Scenario) ScenarioResult {
	sr := ScenarioResult{Name: scenario.Name, Fixture: scenario.FixtureName()}

	if _, err := h.Record(ctx, scenario); err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to record fixture: %v", err)}
		return sr
	}
	sr.Pass = true
	sr.Recorded = true
	return sr
}

func printScenario(out *OutputFormatter, sr ScenarioResult) {
	switch {
	case sr.Recorded:
		fmt.Fprintf(out.Writer, "✓ %s (fixture recorded)\n", sr.Name)
	case sr.Pass:
		fmt.Fprintf(out.Writer, "✓ %s\n", sr.Name)
	default:
		fmt.Fprintf(out.Writer, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(out.Writer, "  %s\n", e)
		}
	}
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(out *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    CodeFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := out.encode(response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(out *OutputFormatter, result TestResult) error {
	w := out.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
