package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/reserv/internal/config"
	"github.com/roach88/reserv/internal/db"
)

// openSession resolves config and opens a seeded session for cmd.
// The caller closes the session.
func openSession(cmd *cobra.Command, opts *RootOptions, out *OutputFormatter) (*db.Session, *config.Config, error) {
	cfg, logger, err := opts.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	sessionCfg := cfg.Session()
	sessionCfg.Logger = logger
	session, err := db.Open(commandContext(cmd), sessionCfg)
	if err != nil {
		return nil, nil, out.Fail(CodeDatabase, "failed to open database", err)
	}
	return session, cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
