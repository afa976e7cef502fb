package adapter

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlpad/pkg/completion"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed it in concrete adapters to get Close, Exec, Query and the catalog
// helpers.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return ErrNotConnected
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*sql.Rows, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// ParseQualifiedName splits a table reference into schema and name, using
// defaultSchema when none is given.
func ParseQualifiedName(table, defaultSchema string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return defaultSchema, table
}

// QueryStrings runs a query returning a single string column.
func (b *BaseSQLAdapter) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TablesFromInformationSchema lists tables and views outside the system
// schemas.
func (b *BaseSQLAdapter) TablesFromInformationSchema(ctx context.Context) ([]string, error) {
	tables, err := b.QueryStrings(ctx, `
		SELECT CASE WHEN table_schema IN ('main', 'public') THEN table_name
		            ELSE table_schema || '.' || table_name END
		FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
		ORDER BY table_schema, table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// DescribeFromInformationSchema reads column metadata from
// information_schema.columns. placeholder formats the n-th bind parameter.
func (b *BaseSQLAdapter) DescribeFromInformationSchema(ctx context.Context, table, defaultSchema string, placeholder func(n int) string) ([]Column, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	schema, tableName := ParseQualifiedName(table, defaultSchema)

	//nolint:gosec // placeholders are generated, not user input
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, placeholder(1), placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
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

// CatalogNames returns table names followed by distinct column names, the
// identifiers offered by SuggestFromCatalog.
func (b *BaseSQLAdapter) CatalogNames(ctx context.Context, tables func(context.Context) ([]string, error), columns string) ([]string, error) {
	names, err := tables(ctx)
	if err != nil {
		return nil, err
	}
	if columns == "" {
		return names, nil
	}
	cols, err := b.QueryStrings(ctx, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	return append(names, cols...), nil
}

// SuggestFromCatalog completes keywords and catalog names for backends that
// have no completion service.
func (b *BaseSQLAdapter) SuggestFromCatalog(ctx context.Context, prefix string, names func(context.Context) ([]string, error)) ([]completion.Suggestion, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	return completion.NewKeywordSource(names).Fetch(ctx, prefix)
}

// ImportCSV creates table with one TEXT column per CSV header field and
// inserts every record. placeholder formats the n-th bind parameter.
func (b *BaseSQLAdapter) ImportCSV(ctx context.Context, table, path string, placeholder func(n int) string) error {
	if b.DB == nil {
		return ErrNotConnected
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	file, err := os.Open(absPath) //nolint:gosec // path is supplied by the user on purpose
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	colDefs := make([]string, len(headers))
	params := make([]string, len(headers))
	for i, h := range headers {
		colDefs[i] = QuoteIdent(h) + " TEXT"
		params[i] = placeholder(i + 1)
	}

	ident := QuoteIdent(table)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	//nolint:gosec // identifiers are quoted
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", ident, strings.Join(colDefs, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	//nolint:gosec // identifiers are quoted, values are bound
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", ident, strings.Join(params, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		args := make([]any, len(record))
		for i, v := range record {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// QuoteIdent quotes an identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a string literal with single quotes.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuestionPlaceholder formats bind parameters as "?".
func QuestionPlaceholder(int) string { return "?" }

// DollarPlaceholder formats bind parameters as "$n".
func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// TableNameFromPath derives an unquoted-safe table name from a file name.
// The directory and extension are dropped, characters outside
// [a-zA-Z0-9_] become '_', and a leading digit gets a '_' prefix.
func TableNameFromPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, stem)
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
