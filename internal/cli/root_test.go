package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "reserv", cmd.Use)
	assert.Contains(t, cmd.Long, "RESERV_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"test", "query", "exec", "schema", "fixtures"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	for name, def := range map[string]string{
		"format":     "text",
		"config":     "",
		"driver":     "sqlite3",
		"dsn":        ":memory:",
		"fixtures":   "testdata/fixtures",
		"log-level":  "info",
		"log-format": "text",
	} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, def, flag.DefValue, name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "fixtures", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestUsageErrorsAreCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"unknown flag", []string{"test", "--nope"}, "unknown flag: --nope"},
		{"too many args", []string{"query", "SELECT 1", "SELECT 2"}, "accepts 1 arg(s)"},
		{"missing args", []string{"exec"}, "requires at least 1 arg"},
		{"unexpected arg", []string{"schema", "extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.msg)
			assert.NotContains(t, stdout+stderr, "Usage:")
		})
	}
}

func TestInvalidDriver(t *testing.T) {
	_, _, err := execute(t, "query", "SELECT 1", "--driver", "mysql")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown database driver")
}

func TestVerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := execute(t, "query", "SELECT 1 AS one", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "config resolved")
	assert.Contains(t, stderr, "level=DEBUG")
	assert.NotContains(t, stdout, "config resolved")
}

func TestJSONLogFormat(t *testing.T) {
	_, stderr, err := execute(t, "query", "SELECT 1 AS one", "--verbose", "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"config resolved"`)
}
