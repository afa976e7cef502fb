package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlpad/internal/cli/testutil"
)

func newRunTestCommand(t *testing.T, output string) *testutil.TestCommand {
	t.Helper()
	cfg := testutil.SQLiteConfig(testutil.SetupTestDatabase(t), output)
	return testutil.NewTestCommand(t, NewRunCommand(), cfg)
}

func TestRunCommand_Args(t *testing.T) {
	tc := newRunTestCommand(t, "csv")

	// Decimals display their integer quotient.
	require.NoError(t, tc.Run("SELECT city, area FROM cities", "ORDER BY id"))
	assert.Equal(t, "city,area\nLisbon,100\nPorto,41\nBraga,\n", tc.Output())
}

func TestRunCommand_Selection(t *testing.T) {
	tc := newRunTestCommand(t, "csv")

	text := "SELECT 1 AS a;\nSELECT 2 AS b;"
	require.NoError(t, tc.Run(text, "--from", "15", "--to", "28"))
	assert.Equal(t, "b\n2\n", tc.Output())
}

func TestRunCommand_BackwardSelection(t *testing.T) {
	tc := newRunTestCommand(t, "csv")

	require.NoError(t, tc.Run("SELECT 1 AS a;\nSELECT 2 AS b;", "--from", "13", "--to", "0"))
	assert.Equal(t, "a\n1\n", tc.Output())
}

func TestRunCommand_File(t *testing.T) {
	tc := newRunTestCommand(t, "json")
	path := testutil.WriteFile(t, t.TempDir(), "q.sql", "SELECT city FROM big_cities")

	require.NoError(t, tc.Run("-f", path))
	assert.JSONEq(t, `[{"city": "Lisbon"}]`, tc.Output())
}

func TestRunCommand_Stdin(t *testing.T) {
	tc := newRunTestCommand(t, "csv")
	tc.SetIn(strings.NewReader("SELECT count(*) AS n FROM cities"))

	require.NoError(t, tc.Run())
	assert.Equal(t, "n\n3\n", tc.Output())
}

func TestRunCommand_Limit(t *testing.T) {
	tc := newRunTestCommand(t, "md")

	require.NoError(t, tc.Run("SELECT id FROM cities ORDER BY id", "--limit", "1"))
	output := tc.Output()
	assert.Contains(t, output, "| 1 |")
	assert.NotContains(t, output, "| 2 |")
	assert.Contains(t, output, "| ⋮ |")
	assert.Contains(t, output, "(1 of 3 rows)")
}

func TestRunCommand_LimitFromConfig(t *testing.T) {
	cfg := testutil.SQLiteConfig(testutil.SetupTestDatabase(t), "csv")
	cfg.RowLimit = 2
	tc := testutil.NewTestCommand(t, NewRunCommand(), cfg)

	require.NoError(t, tc.Run("SELECT id FROM cities ORDER BY id"))
	assert.Equal(t, "id\n1\n2\n", tc.Output())
}

func TestRunCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"query error", []string{"SELECT * FROM nope"}, "no such table"},
		{"empty selection text", []string{"   "}, "nothing to run"},
		{"watch without file", []string{"--watch"}, "--watch requires --file"},
		{"missing file", []string{"-f", "does-not-exist.sql"}, "failed to read file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newRunTestCommand(t, "csv")
			err := tc.Run(tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunCommand_UnknownBackend(t *testing.T) {
	cfg := testutil.SQLiteConfig(":memory:", "csv")
	cfg.Backend = "oracle"
	tc := testutil.NewTestCommand(t, NewRunCommand(), cfg)

	err := tc.Run("SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open oracle database")
}

func TestReadSQL(t *testing.T) {
	got, err := readSQL([]string{"SELECT", "1"}, "ignored.sql", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", got)

	got, err = readSQL(nil, "", strings.NewReader("SELECT 2"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", got)
}

func TestRunCommand_ExactDecimals(t *testing.T) {
	tc := newRunTestCommand(t, "csv")

	require.NoError(t, tc.Run("SELECT area FROM cities ORDER BY id", "--exact-decimals"))
	assert.Equal(t, "area\n100.05\n41.42\n\n", tc.Output())
}
