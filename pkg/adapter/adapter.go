// Package adapter defines the database backends the console can run
// queries against.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves by name from init. Import them with a blank identifier:
//
//	import _ "github.com/leapstack-labs/sqlpad/pkg/adapters/duckdb"
package adapter

import (
	"context"
	"database/sql"
	"errors"

	"github.com/leapstack-labs/sqlpad/pkg/completion"
)

// ErrNotConnected is returned by operations on an adapter without an open
// connection.
var ErrNotConnected = errors.New("database connection not established")

// Config holds connection settings for an adapter.
type Config struct {
	Type string
	// Path is a database file, ":memory:", or a full DSN.
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
	// Params holds adapter specific settings, decoded by the adapter.
	Params map[string]any
}

// Column describes a column of a catalog table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
}

// Adapter is a connected query backend.
type Adapter interface {
	// Name returns the registered adapter name.
	Name() string

	// Connect opens the connection described by cfg.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection.
	Close() error

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string) error

	// Query runs a statement and returns its rows. The caller closes them.
	Query(ctx context.Context, sql string) (*sql.Rows, error)

	// Tables lists user tables and views.
	Tables(ctx context.Context) ([]string, error)

	// Describe returns the columns of a table or view.
	Describe(ctx context.Context, table string) ([]Column, error)

	// Import loads a data file into a new table.
	Import(ctx context.Context, table, path string) error

	// Suggest returns ranked completion candidates for a line prefix.
	Suggest(ctx context.Context, prefix string) ([]completion.Suggestion, error)
}
