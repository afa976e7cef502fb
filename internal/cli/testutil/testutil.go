// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpad/internal/cli/config"
	itestutil "github.com/leapstack-labs/sqlpad/internal/testutil"

	// sqlite driver for fixture databases.
	_ "modernc.org/sqlite"
)

// SetupTestDatabase creates a SQLite database with a cities table of
// three rows and a big_cities view. It returns the database path.
func SetupTestDatabase(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer func() { _ = db.Close() }()

	schema := `
		CREATE TABLE cities (
			id INTEGER NOT NULL,
			city TEXT NOT NULL,
			population INTEGER,
			area DECIMAL(10,2)
		);

		INSERT INTO cities VALUES
			(1, 'Lisbon', 545000, 100.05),
			(2, 'Porto', 232000, 41.42),
			(3, 'Braga', 0, NULL);

		CREATE VIEW big_cities AS SELECT city FROM cities WHERE population > 300000;
	`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}
	return path
}

// WriteFile writes content to name inside dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	return path
}

// SQLiteConfig returns a configuration for the SQLite database at path with
// the given output format.
func SQLiteConfig(path, output string) *config.Config {
	cfg := config.Defaults()
	cfg.Backend = "sqlite"
	cfg.Database = path
	cfg.Output = output
	return cfg
}

// TestCommand is a command whose context carries a configuration and a
// test logger, with output captured in buffers.
type TestCommand struct {
	*cobra.Command
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestCommand wraps cmd for running outside the root command.
func NewTestCommand(t *testing.T, cmd *cobra.Command, cfg *config.Config) *TestCommand {
	t.Helper()

	ctx := context.WithValue(context.Background(), config.ConfigKey(), cfg)
	ctx = context.WithValue(ctx, config.LoggerKey(), itestutil.NewTestLogger(t))
	cmd.SetContext(ctx)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(""))

	return &TestCommand{Command: cmd, Out: out, ErrOut: errOut}
}

// Run executes the command with args.
func (tc *TestCommand) Run(args ...string) error {
	tc.SetArgs(args)
	return tc.ExecuteContext(tc.Context())
}

// Output returns the stdout output as a string.
func (tc *TestCommand) Output() string {
	return tc.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tc *TestCommand) ErrorOutput() string {
	return tc.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdownTable checks that every non-empty line up to the
// footer is a pipe-delimited row with the same number of cells.
func AssertValidMarkdownTable(t *testing.T, md string) {
	t.Helper()

	cells := -1
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "(") {
			continue
		}
		if !strings.HasPrefix(trimmed, "|") || !strings.HasSuffix(trimmed, "|") {
			t.Errorf("line %d is not a table row: %q", i+1, line)
			continue
		}
		n := strings.Count(strings.ReplaceAll(trimmed, `\|`, ""), "|") - 1
		if cells >= 0 && n != cells {
			t.Errorf("line %d has %d cells, want %d: %q", i+1, n, cells, line)
		}
		cells = n
	}
}
