package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlpad/internal/testutil"
)

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("backend", DefaultBackend, "")
	flags.String("database", "", "")
	flags.StringP("output", "o", DefaultOutput, "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "sqlpad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultBackend, cfg.Backend)
	assert.Equal(t, ":memory:", cfg.Database)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultPrompt, cfg.Prompt)
	assert.Equal(t, DefaultInitialQuery, cfg.InitialQuery)
	assert.Equal(t, DefaultRowLimit, cfg.RowLimit)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.ConfigFile)
	assert.NotContains(t, cfg.HistoryFile, "~")
}

func TestLoadConfig_FileFoundUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
backend: sqlite
database: data/pad.db
output: json
prompt: "db> "
duckdb:
  extensions: [json]
`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, filepath.Join(root, "data", "pad.db"), cfg.Database)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "db> ", cfg.Prompt)
	assert.Equal(t, filepath.Join(root, "sqlpad.yaml"), cfg.ConfigFile)
	assert.Equal(t, []any{"json"}, cfg.DuckDB["extensions"])
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeConfig(t, dir, "backend: sqlite\noutput: csv\nrow_limit: 20\n")

	t.Setenv("SQLPAD_OUTPUT", "yaml")
	t.Setenv("SQLPAD_ROW_LIMIT", "50")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--backend", "duckdb", "-v"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Backend, "flag beats file")
	assert.Equal(t, "yaml", cfg.Output, "env beats file")
	assert.Equal(t, 50, cfg.RowLimit)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_FlagDatabaseRelativeToCwd(t *testing.T) {
	cwd := t.TempDir()
	t.Chdir(cwd)

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--database", "local.duckdb"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "local.duckdb"), cfg.Database)
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("PAD_DB_URL", "postgres://me@db/app")
	t.Setenv("PAD_PASSWORD", "s3cret")
	path := writeConfig(t, dir, `
backend: postgres
database: ${PAD_DB_URL}
postgres:
  password: ${PAD_PASSWORD}
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://me@db/app", cfg.Database)
	require.NotNil(t, cfg.Postgres)
	assert.Equal(t, "s3cret", cfg.Postgres.Password)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := writeConfig(t, dir, "backend: oracle\n")
	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Backend: "duckdb", Output: "table"}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		errSubstr string
	}{
		{"valid", func(*Config) {}, ""},
		{"uppercase backend", func(c *Config) { c.Backend = "DuckDB" }, ""},
		{"empty backend", func(c *Config) { c.Backend = "" }, "backend is required"},
		{"unknown backend", func(c *Config) { c.Backend = "mysql" }, "unknown backend"},
		{"unknown output", func(c *Config) { c.Output = "xml" }, "unknown output format"},
		{"negative limit", func(c *Config) { c.RowLimit = -1 }, "row_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_AdapterConfig(t *testing.T) {
	duck := Config{Backend: "duckdb", Database: "/tmp/x.duckdb", DuckDB: map[string]any{"extensions": []any{"json"}}}
	ac := duck.AdapterConfig()
	assert.Equal(t, "duckdb", ac.Type)
	assert.Equal(t, "/tmp/x.duckdb", ac.Path)
	assert.Equal(t, duck.DuckDB, ac.Params)

	pg := Config{
		Backend:  "Postgres",
		Database: ":memory:",
		Postgres: &PostgresConfig{Host: "db", Port: 6543, User: "me", DBName: "app", SSLMode: "require"},
	}
	ac = pg.AdapterConfig()
	assert.Equal(t, "postgres", ac.Type)
	assert.Equal(t, "db", ac.Host)
	assert.Equal(t, 6543, ac.Port)
	assert.Equal(t, "me", ac.Username)
	assert.Equal(t, "app", ac.Database)
	assert.Equal(t, "require", ac.Options["sslmode"])
	assert.Nil(t, ac.Params)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := testutil.NewTestLogger(t)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestGetConfig(t *testing.T) {
	def := GetConfig(context.Background())
	assert.Equal(t, DefaultBackend, def.Backend)
	assert.Equal(t, DefaultRowLimit, def.RowLimit)
	assert.NoError(t, def.Validate())

	cfg := &Config{Backend: "sqlite"}
	ctx := context.WithValue(context.Background(), ConfigKey(), cfg)
	assert.Same(t, cfg, GetConfig(ctx))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".sqlpad_history"), expandHome("~/.sqlpad_history"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}

func TestResolveDatabasePath(t *testing.T) {
	assert.Equal(t, ":memory:", resolveDatabasePath(":memory:", "/base"))
	assert.Equal(t, "postgres://h/db", resolveDatabasePath("postgres://h/db", "/base"))
	assert.Equal(t, "host=h dbname=db", resolveDatabasePath("host=h dbname=db", "/base"))
	assert.Equal(t, filepath.Join("/base", "pad.db"), resolveDatabasePath("pad.db", "/base"))
}
