// Package config provides configuration management for the sqlpad CLI.
//
// Values are layered with koanf: built-in defaults, then sqlpad.yaml, then
// SQLPAD_* environment variables, then explicitly set command line flags.
package config

import (
	"strings"

	"github.com/leapstack-labs/sqlpad/pkg/adapter"
)

// Config holds all CLI configuration options.
type Config struct {
	Backend      string          `koanf:"backend"`
	Database     string          `koanf:"database"`
	Output       string          `koanf:"output"`
	HistoryFile  string          `koanf:"history_file"`
	Prompt       string          `koanf:"prompt"`
	Verbose      bool            `koanf:"verbose"`
	InitialQuery string          `koanf:"initial_query"`
	RowLimit     int             `koanf:"row_limit"`
	Postgres     *PostgresConfig `koanf:"postgres"`
	// DuckDB holds adapter params such as extensions, secrets and settings.
	DuckDB map[string]any `koanf:"duckdb"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `koanf:"-"`
}

// PostgresConfig holds connection settings used when Database is not a URL.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// Default configuration values.
const (
	DefaultBackend      = "duckdb"
	DefaultDatabase     = ":memory:"
	DefaultOutput       = "auto" // Auto-detect: TTY=table, non-TTY=markdown
	DefaultHistoryFile  = "~/.sqlpad_history"
	DefaultPrompt       = "sqlpad> "
	DefaultInitialQuery = "SELECT * FROM generate_series(10)"
	DefaultRowLimit     = 100
)

// Backends lists the supported backend names.
var Backends = []string{"duckdb", "postgres", "sqlite"}

// OutputFormats lists the supported output formats.
var OutputFormats = []string{"auto", "table", "json", "csv", "md", "markdown", "yaml"}

// AdapterConfig converts the configuration into adapter settings.
func (c *Config) AdapterConfig() adapter.Config {
	cfg := adapter.Config{
		Type: strings.ToLower(c.Backend),
		Path: c.Database,
	}

	switch cfg.Type {
	case "duckdb":
		cfg.Params = c.DuckDB
	case "postgres":
		if pg := c.Postgres; pg != nil {
			cfg.Host = pg.Host
			cfg.Port = pg.Port
			cfg.Username = pg.User
			cfg.Password = pg.Password
			cfg.Database = pg.DBName
			if pg.SSLMode != "" {
				cfg.Options = map[string]string{"sslmode": pg.SSLMode}
			}
		}
		if cfg.Database == "" && !isURL(c.Database) && c.Database != DefaultDatabase {
			cfg.Database = c.Database
		}
	}
	return cfg
}

func isURL(s string) bool {
	return strings.Contains(s, "://")
}
