// Package postgres provides a PostgreSQL database adapter for sqlpad.
//
// PostgreSQL has no completion service, so Suggest offers keywords plus
// table and column names from information_schema.
package postgres

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/sqlpad/pkg/adapter"
	"github.com/leapstack-labs/sqlpad/pkg/completion"
)

const columnNamesQuery = `
	SELECT DISTINCT column_name
	FROM information_schema.columns
	WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
	ORDER BY column_name
`

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
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
	return "postgres"
}

// Connect establishes a connection to PostgreSQL. A Path starting with
// postgres:// or postgresql:// is used as the DSN verbatim.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	if strings.HasPrefix(cfg.Path, "postgres://") || strings.HasPrefix(cfg.Path, "postgresql://") {
		return cfg.Path
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// Tables lists user tables and views.
func (a *Adapter) Tables(ctx context.Context) ([]string, error) {
	return a.TablesFromInformationSchema(ctx)
}

// Describe returns the columns of a table or view.
func (a *Adapter) Describe(ctx context.Context, table string) ([]adapter.Column, error) {
	return a.DescribeFromInformationSchema(ctx, table, "public", adapter.DollarPlaceholder)
}

// Suggest completes keywords and catalog names.
func (a *Adapter) Suggest(ctx context.Context, prefix string) ([]completion.Suggestion, error) {
	return a.SuggestFromCatalog(ctx, prefix, a.names)
}

func (a *Adapter) names(ctx context.Context) ([]string, error) {
	return a.CatalogNames(ctx, a.Tables, columnNamesQuery)
}

// Import loads a CSV file into table using COPY FROM STDIN.
// All columns are created as TEXT type for robustness.
func (a *Adapter) Import(ctx context.Context, table, path string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	file, err := os.Open(absPath) //nolint:gosec // absPath is derived from user-provided path, which is expected
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	headers, err := csv.NewReader(file).Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	if err := a.createTextTable(ctx, table, headers); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to reset file: %w", err)
	}

	if err := a.copyFromCSV(ctx, table, file); err != nil {
		return fmt.Errorf("failed to copy data: %w", err)
	}
	return nil
}

// createTextTable creates or replaces a table with all TEXT columns.
func (a *Adapter) createTextTable(ctx context.Context, table string, columns []string) error {
	ident := adapter.QuoteIdent(table)
	if _, err := a.DB.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return err
	}

	colDefs := make([]string, len(columns))
	for i, col := range columns {
		colDefs[i] = sanitizeIdentifier(col) + " TEXT"
	}

	//nolint:gosec // identifiers are sanitized
	_, err := a.DB.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", ident, strings.Join(colDefs, ", ")))
	return err
}

// copyFromCSV uses PostgreSQL COPY to load CSV data.
func (a *Adapter) copyFromCSV(ctx context.Context, table string, r io.Reader) error {
	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		pgxConn, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		copySQL := fmt.Sprintf("COPY %s FROM STDIN WITH (FORMAT csv, HEADER true)", adapter.QuoteIdent(table))
		_, err := pgxConn.Conn().PgConn().CopyFrom(ctx, r, copySQL)
		return err
	})
}

// sanitizeIdentifier makes a column name safe for SQL.
func sanitizeIdentifier(name string) string {
	safe := strings.ReplaceAll(name, " ", "_")
	safe = strings.ReplaceAll(safe, "-", "_")
	if strings.ContainsAny(safe, "()[]{}") || isReservedWord(safe) {
		return adapter.QuoteIdent(safe)
	}
	return safe
}

// isReservedWord checks if a name is a PostgreSQL reserved word.
func isReservedWord(name string) bool {
	reserved := map[string]bool{
		"user": true, "order": true, "group": true, "table": true,
		"select": true, "from": true, "where": true, "index": true,
	}
	return reserved[strings.ToLower(name)]
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
