package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"delivered": 10}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"delivered": float64(10)}, resp.Data)
	assert.NotContains(t, buf.String(), "run_id")
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	details := map[string]string{"field": "belt.feed.capacity"}
	require.NoError(t, formatter.Error("E212", "must be > 0, got 0", details))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E212", resp.Error.Code)
	assert.Equal(t, "must be > 0, got 0", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_Text(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}

		require.NoError(t, formatter.Success("Topology valid"))
		assert.Equal(t, "Topology valid\n", buf.String())
	})

	t.Run("error hides details", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}

		require.NoError(t, formatter.Error("E005", "topology directory not found", "x"))
		assert.Equal(t, "Error [E005]: topology directory not found\n", buf.String())
	})

	t.Run("verbose error shows details", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

		require.NoError(t, formatter.Error("E005", "topology directory not found", "./factory"))
		assert.Contains(t, buf.String(), "Details: ./factory")
	})
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		errW    bool
	}{
		{"disabled", false, false},
		{"enabled falls back to writer", true, false},
		{"enabled uses err writer", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, Verbose: tt.verbose}
			if tt.errW {
				formatter.ErrWriter = errOut
			}

			formatter.VerboseLog("loading %s", "factory.cue")

			switch {
			case !tt.verbose:
				assert.Empty(t, out.String())
				assert.Empty(t, errOut.String())
			case tt.errW:
				assert.Empty(t, out.String())
				assert.Equal(t, "loading factory.cue\n", errOut.String())
			default:
				assert.Equal(t, "loading factory.cue\n", out.String())
			}
		})
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("no such file")

	plain := NewExitError(ExitFailure, "1 scenario(s) failed")
	assert.Equal(t, "1 scenario(s) failed", plain.Error())
	assert.Nil(t, plain.Unwrap())

	wrapped := WrapExitError(ExitCommandError, "failed to open database", cause)
	assert.Equal(t, "failed to open database: no such file", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)

	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("outer: %w", wrapped)))
	assert.Equal(t, ExitFailure, GetExitCode(cause))
}

func TestWriteJSON_Indented(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeJSON(buf, CLIResponse{Status: "ok", RunID: "run-1"}))
	assert.Equal(t, "{\n  \"status\": \"ok\",\n  \"run_id\": \"run-1\"\n}\n", buf.String())
}
