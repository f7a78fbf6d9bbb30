package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/reserv/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the reserv CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "reserv",
		Short: "reserv - room reservations with audit logs",
		Long: `Room-reservation database whose triggers write an audit log,
and the harness that checks those logs against recorded fixtures.

Settings come from flags, RESERV_* environment variables and an
optional --config file, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Config flags, resolved through viper
	cmd.PersistentFlags().String(config.KeyConfig, "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().String(config.KeyDriver, def.Driver, "database driver (sqlite3|postgres)")
	cmd.PersistentFlags().String(config.KeyDSN, def.DSN, "database connection string")
	cmd.PersistentFlags().String(config.KeyFixtures, def.FixtureDir, "fixture directory")
	cmd.PersistentFlags().String(config.KeyLogLevel, def.LogLevel, "log level (debug|info|warn|error)")
	cmd.PersistentFlags().String(config.KeyLogFormat, def.LogFormat, "log format (text|json)")

	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewFixturesCommand(opts))

	return cmd
}

// loadConfig resolves settings for cmd. Every flag of cmd (inherited ones
// included) is bound under its own name, so a changed flag wins over the
// environment and the config file.
func (o *RootOptions) loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	v := config.NewViper()
	if err := bindFlags(cmd.Flags(), v); err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to bind flags", err)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, err := cfg.NewLogger(cmd.ErrOrStderr(), o.Verbose)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	logger.Debug("config resolved",
		"driver", cfg.Driver,
		"fixtures", cfg.FixtureDir,
		"scenarios", cfg.ScenarioDir,
		"reset", cfg.Reset,
	)
	return cfg, logger, nil
}

// bindFlags binds every flag in fs to the viper key of the same name.
// Global output flags are not settings and stay unbound.
func bindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == "format" || f.Name == "verbose" {
			return
		}
		err = v.BindPFlag(f.Name, f)
	})
	return err
}

// commandArgs marks argument validation failures as command errors.
func commandArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
