package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_BACKEND", "memory")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDueDateCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"cycle after cutoff", []string{"duedate", "--term", "60", "--entry", "2024-03-26"}, "2024-06-25 (term 60, cycle)"},
		{"cycle before cutoff", []string{"duedate", "--term", "30", "--entry", "2024-03-10"}, "2024-04-25 (term 30, cycle)"},
		{"day count", []string{"duedate", "--term", "14", "--invoice", "2024-03-01"}, "2024-03-15 (term 14, day count)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestDueDateCommandJSONAndErrors(t *testing.T) {
	out, err := run(t, "--json", "duedate", "--term", "90", "--invoice", "2024-01-31")
	require.NoError(t, err)
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "2024-05-25", res["due_date"])
	assert.Equal(t, true, res["cycle_term"])

	_, err = run(t, "duedate", "--term", "30")
	assert.EqualError(t, err, "pass --entry or --invoice")

	_, err = run(t, "duedate", "--entry", "26/03/2024")
	assert.Error(t, err)
}

func TestExportCommandWritesHeader(t *testing.T) {
	out, err := run(t, "export", "--out", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Invoice Number,PO Number,Vendor Name,Entry Date,Due Date,Amount,Currency,Status,Aging"))

	_, err = run(t, "export", "--format", "xlsx")
	assert.Error(t, err)
}

func TestForecastCommandEmpty(t *testing.T) {
	out, err := run(t, "forecast", "--delay", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "TOTAL")
}
