package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reserv/internal/fixture"
)

// FixturesResult is the JSON payload of the fixtures command.
type FixturesResult struct {
	Dir      string   `json:"dir"`
	Fixtures []string `json:"fixtures"`
}

// NewFixturesCommand creates the fixtures command.
func NewFixturesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures [name]",
		Short: "List recorded fixtures, or print one",
		Long: `List the fixtures in the fixture directory. With a name, print that
fixture's rows.

Examples:
  reserv fixtures
  reserv fixtures test_logs_events --fixtures ./testdata/fixtures`,
		Args:          commandArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			cfg, _, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return err
			}
			store := fixture.NewStore(cfg.FixtureDir)

			if len(args) == 1 {
				rs, err := store.Load(args[0])
				if err != nil {
					if errors.Is(err, fixture.ErrNotFound) || errors.Is(err, fixture.ErrInvalidName) {
						return out.Fail(CodeFixture, "fixture not found", err)
					}
					return out.Fail(CodeFixture, "failed to load fixture", err)
				}
				if out.JSON() {
					return out.Success(rs)
				}
				fmt.Fprint(out.Writer, rs.String())
				return nil
			}

			names, err := store.List()
			if err != nil {
				return out.Fail(CodeFixture, "failed to list fixtures", err)
			}
			if out.JSON() {
				return out.Success(FixturesResult{Dir: cfg.FixtureDir, Fixtures: names})
			}
			if len(names) == 0 {
				fmt.Fprintf(out.Writer, "No fixtures found in %s.\n", cfg.FixtureDir)
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out.Writer, name)
			}
			return nil
		},
	}
	return cmd
}
