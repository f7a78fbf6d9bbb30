package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reserv/internal/rowset"
)

func decodeResponse(t *testing.T, data []byte, payload any) CLIResponse {
	t.Helper()
	resp := CLIResponse{Data: payload}
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestOutputFormatter_ExecResultJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	rows := rowset.New([]string{"cip", "message"}, rowset.MustRow("logs1234", "Ajout du membre logs1234"))

	require.NoError(t, f.Success(ExecResult{Affected: []int64{1}, Rows: rows}))

	var payload struct {
		Affected []int64 `json:"affected"`
		Rows     struct {
			Columns []string `json:"columns"`
			Rows    [][]any  `json:"rows"`
		} `json:"rows"`
	}
	resp := decodeResponse(t, buf.Bytes(), &payload)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, []int64{1}, payload.Affected)
	assert.Equal(t, []string{"cip", "message"}, payload.Rows.Columns)
	assert.Equal(t, [][]any{{"logs1234", "Ajout du membre logs1234"}}, payload.Rows.Rows)
}

func TestOutputFormatter_FixturesResultText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	// Text mode prints the data value when no lines are given.
	require.NoError(t, f.Success(FixturesResult{Dir: "fx", Fixtures: []string{"test_logs_events"}}))
	assert.Equal(t, "{fx [test_logs_events]}\n", buf.String())
}

func TestOutputFormatter_SuccessTextLines(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success(SchemaResult{Driver: "sqlite3", Version: 1}, "line one", "line two"))
	assert.Equal(t, "line one\nline two\n", buf.String())
}

func TestOutputFormatter_ErrorCodes(t *testing.T) {
	for _, code := range []string{CodeConfig, CodeDatabase, CodeSQL, CodeFixture, CodeScenario, CodeFailed} {
		t.Run(code, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: buf}

			require.NoError(t, f.Error(code, "boom", map[string]string{"fixture": "test_logs_events"}))

			resp := decodeResponse(t, buf.Bytes(), nil)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, code, resp.Error.Code)
			assert.Equal(t, map[string]any{"fixture": "test_logs_events"}, resp.Error.Details)
		})
	}
}

func TestOutputFormatter_ErrorText(t *testing.T) {
	tests := []struct {
		verbose     bool
		wantDetails bool
	}{
		{false, false},
		{true, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("verbose=%v", tt.verbose), func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, f.Error(CodeFixture, "fixture not found", "testdata/fixtures/nope.json"))
			assert.Contains(t, buf.String(), "Error [E_FIXTURE]: fixture not found\n")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details: testdata/fixtures/nope.json")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	err := f.Fail(CodeSQL, "query failed", errors.New("no such table: nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, buf.Bytes(), nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeSQL, resp.Error.Code)
	assert.Equal(t, "query failed: no such table: nope", resp.Error.Message)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	f.VerboseLog("statement %d: %d row(s) affected", 1, 1)
	assert.Empty(t, out.String())
	assert.Equal(t, "statement 1: 1 row(s) affected\n", errOut.String())

	quiet := &OutputFormatter{Format: "text", Writer: out}
	quiet.VerboseLog("hidden")
	assert.Empty(t, out.String())

	fallback := &OutputFormatter{Format: "text", Writer: out, Verbose: true}
	fallback.VerboseLog("shown")
	assert.Equal(t, "shown\n", out.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad dsn")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitFailure, "1 scenario(s) failed"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestExitError(t *testing.T) {
	cause := errors.New("no such table: nope")
	err := WrapExitError(ExitCommandError, "query failed", cause)

	assert.Equal(t, "query failed: no such table: nope", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "1 scenario(s) failed", NewExitError(ExitFailure, "1 scenario(s) failed").Error())
}
