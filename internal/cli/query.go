package cli

import (
	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a query on a freshly seeded database",
		Long: `Run a query on a freshly seeded database and print the rows in
fixture form.

Examples:
  reserv query "SELECT * FROM membres"
  reserv query "SELECT * FROM logs" --driver postgres --dsn "$DSN"`,
		Args:          commandArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			session, _, err := openSession(cmd, rootOpts, out)
			if err != nil {
				return err
			}
			defer session.Close()

			rs, err := session.ExecuteFetch(commandContext(cmd), args[0])
			if err != nil {
				return out.Fail(CodeSQL, "query failed", err)
			}

			if out.JSON() {
				return out.Success(rs)
			}
			_, err = out.Writer.Write([]byte(rs.String()))
			return err
		},
	}
	return cmd
}
