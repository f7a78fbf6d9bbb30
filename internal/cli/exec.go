package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reserv/internal/rowset"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Query string // query run after the statements
}

// ExecResult is the JSON payload of the exec command.
type ExecResult struct {
	Affected []int64        `json:"affected"`
	Rows     *rowset.RowSet `json:"rows,omitempty"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <sql>...",
		Short: "Run statements, then optionally a query, in one session",
		Long: `Run write statements in order on a freshly seeded database, then
run --query in the same session. Use it to see what the logging
triggers write before recording a scenario.

Examples:
  reserv exec "INSERT INTO calendrier VALUES ('D7',3020,'2200-04-05','girp2705','toto',30,35)" \
    --query "SELECT cip, numeropavillon, numerolocal, message FROM logs"`,
		Args:          commandArgs(cobra.MinimumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "query to run after the statements")

	return cmd
}

func runExec(cmd *cobra.Command, opts *ExecOptions, stmts []string) error {
	out := newFormatter(cmd, opts.RootOptions)
	session, _, err := openSession(cmd, opts.RootOptions, out)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx := commandContext(cmd)
	result := ExecResult{Affected: make([]int64, 0, len(stmts))}
	for i, stmt := range stmts {
		n, err := session.Execute(ctx, stmt)
		if err != nil {
			return out.Fail(CodeSQL, fmt.Sprintf("statement %d failed", i+1), err)
		}
		result.Affected = append(result.Affected, n)
		out.VerboseLog("statement %d: %d row(s) affected", i+1, n)
	}

	if opts.Query != "" {
		rs, err := session.ExecuteFetch(ctx, opts.Query)
		if err != nil {
			return out.Fail(CodeSQL, "query failed", err)
		}
		result.Rows = rs
	}

	if out.JSON() {
		return out.Success(result)
	}
	for i, n := range result.Affected {
		fmt.Fprintf(out.Writer, "statement %d: %d row(s) affected\n", i+1, n)
	}
	if result.Rows != nil {
		fmt.Fprint(out.Writer, result.Rows.String())
	}
	return nil
}
