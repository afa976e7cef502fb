// Package duckdb provides a DuckDB database adapter for sqlpad.
//
// Completion is served by DuckDB's autocomplete extension through the
// sql_auto_complete table function. The extension is installed and loaded
// on connect when available.
//
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/sqlpad/pkg/adapters/duckdb"
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlpad/pkg/adapter"
	"github.com/leapstack-labs/sqlpad/pkg/completion"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
	params *Params
}

// New creates a new DuckDB adapter instance.
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
	return "duckdb"
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" or an empty path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("opening duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.params = params

	if err := a.applyParams(ctx, params); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}

	if !params.DisableAutocomplete {
		a.loadAutocomplete(ctx)
	}
	return nil
}

// applyParams installs extensions, creates secrets and applies settings.
func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		if err := a.loadExtension(ctx, ext); err != nil {
			return err
		}
	}

	for i, secret := range p.Secrets {
		if err := a.Exec(ctx, buildCreateSecretSQL(secret)); err != nil {
			return fmt.Errorf("failed to create secret %d (%s): %w", i, secret.Type, err)
		}
	}

	for key, value := range p.Settings {
		//nolint:gosec // setting names come from the config file
		if err := a.Exec(ctx, fmt.Sprintf("SET %s = %s", key, adapter.QuoteLiteral(value))); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", key, err)
		}
	}
	return nil
}

func (a *Adapter) loadExtension(ctx context.Context, name string) error {
	if err := a.Exec(ctx, "INSTALL "+name); err != nil {
		return fmt.Errorf("failed to install extension %s: %w", name, err)
	}
	if err := a.Exec(ctx, "LOAD "+name); err != nil {
		return fmt.Errorf("failed to load extension %s: %w", name, err)
	}
	a.Logger.Debug("loaded extension", slog.String("extension", name))
	return nil
}

// loadAutocomplete makes sql_auto_complete available. Offline installs may
// lack the extension; Suggest then fails and completion stays silent.
func (a *Adapter) loadAutocomplete(ctx context.Context) {
	if err := a.loadExtension(ctx, "autocomplete"); err != nil {
		a.Logger.Debug("autocomplete extension unavailable", slog.String("error", err.Error()))
	}
}

// buildCreateSecretSQL renders a CREATE SECRET statement.
func buildCreateSecretSQL(s SecretConfig) string {
	parts := []string{"TYPE " + s.Type}
	if s.Provider != "" {
		parts = append(parts, "PROVIDER "+s.Provider)
	}
	if s.Region != "" {
		parts = append(parts, "REGION "+adapter.QuoteLiteral(s.Region))
	}
	if scope := formatScope(s.Scope); scope != "" {
		parts = append(parts, "SCOPE "+scope)
	}
	if s.KeyID != "" {
		parts = append(parts, "KEY_ID "+adapter.QuoteLiteral(s.KeyID))
	}
	if s.Secret != "" {
		parts = append(parts, "SECRET "+adapter.QuoteLiteral(s.Secret))
	}
	if s.Endpoint != "" {
		parts = append(parts, "ENDPOINT "+adapter.QuoteLiteral(s.Endpoint))
	}
	if s.URLStyle != "" {
		parts = append(parts, "URL_STYLE "+adapter.QuoteLiteral(s.URLStyle))
	}
	if s.UseSSL != nil {
		parts = append(parts, fmt.Sprintf("USE_SSL %t", *s.UseSSL))
	}
	return "CREATE SECRET (\n    " + strings.Join(parts, ",\n    ") + "\n)"
}

func formatScope(scope any) string {
	var items []string
	switch v := scope.(type) {
	case nil:
		return ""
	case string:
		return adapter.QuoteLiteral(v)
	case []string:
		items = v
	case []any:
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
	default:
		return adapter.QuoteLiteral(fmt.Sprint(v))
	}
	if len(items) == 1 {
		return adapter.QuoteLiteral(items[0])
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = adapter.QuoteLiteral(item)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// Tables lists user tables and views.
func (a *Adapter) Tables(ctx context.Context) ([]string, error) {
	return a.TablesFromInformationSchema(ctx)
}

// Describe returns the columns of a table or view.
func (a *Adapter) Describe(ctx context.Context, table string) ([]adapter.Column, error) {
	return a.DescribeFromInformationSchema(ctx, table, "main", adapter.QuestionPlaceholder)
}

// Import loads a CSV, Parquet or JSON file into table, replacing any
// existing table. DuckDB infers the reader and schema from the file.
func (a *Adapter) Import(ctx context.Context, table, path string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s",
		adapter.QuoteIdent(table), adapter.QuoteLiteral(absPath))
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to import %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Suggest asks DuckDB for completions of prefix. Each suggestion carries
// the byte offset into prefix where its replacement starts.
func (a *Adapter) Suggest(ctx context.Context, prefix string) ([]completion.Suggestion, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	query := "SELECT suggestion, suggestion_start FROM sql_auto_complete(" + adapter.QuoteLiteral(prefix) + ")"
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []completion.Suggestion
	for rows.Next() {
		var s completion.Suggestion
		if err := rows.Scan(&s.Label, &s.Start); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		s.Source = prefix
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completions: %w", err)
	}
	return out, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
