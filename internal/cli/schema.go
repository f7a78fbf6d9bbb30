package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reserv/internal/db"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Apply bool
}

// SchemaResult is the JSON payload of the schema command.
type SchemaResult struct {
	Driver  string `json:"driver"`
	Version int    `json:"version,omitempty"`
	DDL     string `json:"ddl,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print or apply the schema and logging triggers",
		Long: `Print the tables and logging triggers for the configured driver.
With --apply, create them (and the reference rows) in the database
named by --dsn. Applying is idempotent.

Examples:
  reserv schema --driver postgres
  reserv schema --apply --driver postgres --dsn postgres://localhost/reserv`,
		Args:          commandArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "apply the schema to the database")

	return cmd
}

func runSchema(cmd *cobra.Command, opts *SchemaOptions) error {
	out := newFormatter(cmd, opts.RootOptions)

	if !opts.Apply {
		cfg, _, err := opts.loadConfig(cmd)
		if err != nil {
			return err
		}
		ddl, err := db.Schema(cfg.Driver)
		if err != nil {
			return out.Fail(CodeConfig, "unknown driver", err)
		}
		if out.JSON() {
			return out.Success(SchemaResult{Driver: cfg.Driver, DDL: ddl})
		}
		fmt.Fprint(out.Writer, ddl)
		return nil
	}

	session, cfg, err := openSession(cmd, opts.RootOptions, out)
	if err != nil {
		return err
	}
	defer session.Close()

	version, err := session.SchemaVersion(commandContext(cmd))
	if err != nil {
		return out.Fail(CodeDatabase, "failed to read schema version", err)
	}
	return out.Success(
		SchemaResult{Driver: cfg.Driver, Version: version},
		fmt.Sprintf("✓ schema version %d applied (%s)", version, cfg.Driver),
	)
}
