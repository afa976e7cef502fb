package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlpad/internal/cli"
	"github.com/leapstack-labs/sqlpad/internal/cli/testutil"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, output, "sqlpad v")
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "", "--help")
	require.NoError(t, err)

	for _, expected := range []string{"repl", "run", "complete", "import", "tui", "--backend", "--database"} {
		assert.Contains(t, output, expected)
	}
}

func TestRootRunsArguments(t *testing.T) {
	db := testutil.SetupTestDatabase(t)

	output, err := execute(t, "",
		"--backend", "sqlite", "--database", db, "-o", "csv",
		"SELECT city FROM cities WHERE id = 2")
	require.NoError(t, err)
	assert.Equal(t, "city\nPorto\n", output)
}

func TestRootRunsStdin(t *testing.T) {
	db := testutil.SetupTestDatabase(t)

	output, err := execute(t, "SELECT count(*) AS n FROM big_cities",
		"--backend", "sqlite", "--database", db, "-o", "csv")
	require.NoError(t, err)
	assert.Equal(t, "n\n1\n", output)
}

func TestConfigFile(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	dir := t.TempDir()
	cfgPath := testutil.WriteFile(t, dir, "sqlpad.yaml",
		"backend: sqlite\ndatabase: "+filepath.ToSlash(db)+"\noutput: json\nrow_limit: 1\n")

	output, err := execute(t, "", "--config", cfgPath, "run", "SELECT id FROM cities ORDER BY id")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "1"}]`, output)
}

func TestFlagOverridesConfigFile(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	cfgPath := testutil.WriteFile(t, t.TempDir(), "sqlpad.yaml",
		"backend: sqlite\ndatabase: "+filepath.ToSlash(db)+"\noutput: json\n")

	output, err := execute(t, "", "--config", cfgPath, "-o", "csv", "run", "SELECT 1 AS one")
	require.NoError(t, err)
	assert.Equal(t, "one\n1\n", output)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := execute(t, "", "--backend", "sqlite", "-o", "xml", "run", "SELECT 1")
	require.Error(t, err)
}

func TestCompleteCommand(t *testing.T) {
	db := testutil.SetupTestDatabase(t)

	output, err := execute(t, "", "--backend", "sqlite", "--database", db, "complete", "SELECT * FROM bi")
	require.NoError(t, err)
	assert.Equal(t, "from: 14\nbig_cities\n", output)
}

func TestCompletionScript(t *testing.T) {
	output, err := execute(t, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, output, "sqlpad")
}
