// Package sqlite provides a SQLite database adapter for sqlpad, backed by
// the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlpad/pkg/adapter"
	"github.com/leapstack-labs/sqlpad/pkg/completion"

	_ "modernc.org/sqlite" // sqlite driver
)

const (
	tablesQuery = `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
	columnNamesQuery = `
		SELECT DISTINCT p.name
		FROM sqlite_master m JOIN pragma_table_info(m.name) p
		WHERE m.type IN ('table', 'view') AND m.name NOT LIKE 'sqlite_%'
		ORDER BY p.name
	`
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Name returns the registered adapter name.
func (a *Adapter) Name() string {
	return "sqlite"
}

// Connect opens the database file at cfg.Path, or an in-memory database
// when the path is empty or ":memory:". Options["mode"] = "ro" opens the
// file read-only.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	dsn := path
	if mode := cfg.Options["mode"]; mode != "" {
		dsn += "?mode=" + mode
	}

	a.Logger.Debug("opening sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Every pooled connection to :memory: would see its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Tables lists user tables and views.
func (a *Adapter) Tables(ctx context.Context) ([]string, error) {
	tables, err := a.QueryStrings(ctx, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// Describe returns the columns of a table or view from PRAGMA table_info.
func (a *Adapter) Describe(ctx context.Context, table string) ([]adapter.Column, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	rows, err := a.DB.QueryContext(ctx, "SELECT cid, name, type, \"notnull\" FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var (
			col     adapter.Column
			cid     int
			notNull bool
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = cid + 1
		col.Nullable = !notNull
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return columns, nil
}

// Import loads a CSV file into table with one TEXT column per header field.
func (a *Adapter) Import(ctx context.Context, table, path string) error {
	return a.ImportCSV(ctx, table, path, adapter.QuestionPlaceholder)
}

// Suggest completes keywords and catalog names.
func (a *Adapter) Suggest(ctx context.Context, prefix string) ([]completion.Suggestion, error) {
	return a.SuggestFromCatalog(ctx, prefix, func(ctx context.Context) ([]string, error) {
		return a.CatalogNames(ctx, a.Tables, columnNamesQuery)
	})
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
