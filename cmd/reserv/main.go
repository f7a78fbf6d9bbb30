// Command reserv runs the room-reservation audit-log harness.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/reserv/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	// Scenario failures were already reported by the test summary.
	var exitErr *cli.ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.Code == cli.ExitFailure) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
