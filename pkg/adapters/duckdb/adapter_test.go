package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlpad/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, cfg adapter.Config) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_ConnectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.duckdb")
	adp := connect(t, adapter.Config{Path: path})

	assert.Equal(t, "duckdb", adp.Name())
	assert.True(t, adp.IsConnected())
	_, err := os.Stat(path)
	assert.NoError(t, err, "database file should exist")
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	assert.Error(t, adp.Exec(ctx, "SELECT 1"))
	_, err := adp.Query(ctx, "SELECT 1")
	assert.Error(t, err)
	assert.NoError(t, adp.Close(), "close without connect")
}

func TestAdapter_QueryDecimal(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, adapter.Config{Path: ":memory:"})

	rows, err := adp.Query(ctx, "SELECT 12.345::DECIMAL(10,3) AS amount, 'x' AS label")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	types, err := rows.ColumnTypes()
	require.NoError(t, err)
	require.Len(t, types, 2)
	prec, scale, ok := types[0].DecimalSize()
	require.True(t, ok)
	assert.Equal(t, int64(10), prec)
	assert.Equal(t, int64(3), scale)
	assert.True(t, rows.Next())
}

func TestAdapter_Describe(t *testing.T) {
	tests := []struct {
		name        string
		setupTable  func(t *testing.T, ctx context.Context, adp *Adapter)
		tableName   string
		wantErr     bool
		wantColumns map[string]string
	}{
		{
			name: "existing table",
			setupTable: func(t *testing.T, ctx context.Context, adp *Adapter) {
				require.NoError(t, adp.Exec(ctx, `
					CREATE TABLE products (
						product_id INTEGER NOT NULL,
						name VARCHAR,
						price DECIMAL(10,2),
						in_stock BOOLEAN
					)
				`))
			},
			tableName: "products",
			wantColumns: map[string]string{
				"product_id": "INTEGER",
				"name":       "VARCHAR",
				"price":      "DECIMAL(10,2)",
				"in_stock":   "BOOLEAN",
			},
		},
		{
			name:      "nonexistent table",
			tableName: "nonexistent_table",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			require.NoError(t, adp.Connect(ctx, adapter.Config{Path: ":memory:"}))
			defer func() { _ = adp.Close() }()

			if tt.setupTable != nil {
				tt.setupTable(t, ctx, adp)
			}

			columns, err := adp.Describe(ctx, tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Len(t, columns, len(tt.wantColumns))
			for _, col := range columns {
				assert.Equal(t, tt.wantColumns[col.Name], col.Type, "column %s", col.Name)
			}
			assert.False(t, columns[0].Nullable)
			assert.True(t, columns[1].Nullable)

			tables, err := adp.Tables(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.tableName}, tables)
		})
	}
}

func TestAdapter_Import(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	require.NoError(t, adp.Connect(ctx, adapter.Config{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	csvPath := filepath.Join(t.TempDir(), "test_data.csv")
	csvContent := `id,name,value
1,alice,100.5
2,bob,200.75
3,charlie,300.25`
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0600))

	require.NoError(t, adp.Import(ctx, adapter.TableNameFromPath(csvPath), csvPath))

	rows, err := adp.Query(ctx, "SELECT COUNT(*) FROM test_data")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var count int
	if rows.Next() {
		require.NoError(t, rows.Scan(&count))
	}
	assert.Equal(t, 3, count)

	columns, err := adp.Describe(ctx, "test_data")
	require.NoError(t, err)
	assert.Len(t, columns, 3)

	assert.Error(t, adp.Import(ctx, "missing", filepath.Join(t.TempDir(), "missing.csv")))
}

func TestAdapter_Suggest(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	require.NoError(t, adp.Connect(ctx, adapter.Config{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	got, err := adp.Suggest(ctx, "SELECT * FR")
	if err != nil {
		t.Skipf("autocomplete extension not available: %v", err)
	}

	require.NotEmpty(t, got)
	var labels []string
	for _, s := range got {
		assert.Equal(t, "SELECT * FR", s.Source)
		labels = append(labels, strings.TrimSpace(s.Label))
	}
	assert.Contains(t, labels, "FROM")
	assert.Equal(t, 9, got[0].Start)
}

func TestAdapter_SuggestNotConnected(t *testing.T) {
	_, err := New(nil).Suggest(context.Background(), "SEL")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
}

func TestBuildCreateSecretSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  SecretConfig
		want string
	}{
		{
			name: "type only",
			cfg:  SecretConfig{Type: "s3"},
			want: "CREATE SECRET (\n    TYPE s3\n)",
		},
		{
			name: "credential chain with scopes",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "credential_chain",
				Scope:    []any{"s3://exports", "s3://archive"},
			},
			want: "CREATE SECRET (\n    TYPE s3,\n    PROVIDER credential_chain,\n    SCOPE ('s3://exports', 's3://archive')\n)",
		},
		{
			name: "local object store",
			cfg: SecretConfig{
				Type:     "s3",
				KeyID:    "minio",
				Secret:   "it's secret",
				Endpoint: "localhost:9000",
				URLStyle: "path",
				Scope:    []string{"s3://scratch"},
				UseSSL:   new(bool),
			},
			want: "CREATE SECRET (\n    TYPE s3,\n    SCOPE 's3://scratch',\n    KEY_ID 'minio',\n    SECRET 'it''s secret',\n" +
				"    ENDPOINT 'localhost:9000',\n    URL_STYLE 'path',\n    USE_SSL false\n)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildCreateSecretSQL(tt.cfg))
		})
	}
}

func TestConnect_AppliesParams(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, adapter.Config{
		Path: ":memory:",
		Params: map[string]any{
			"settings":             map[string]any{"threads": 2},
			"disable_autocomplete": true,
		},
	})

	rows, err := adp.Query(ctx, "SELECT current_setting('threads')")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())

	var threads string
	require.NoError(t, rows.Scan(&threads))
	assert.Equal(t, "2", threads)
}

func TestConnect_InvalidParams(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), adapter.Config{
		Path:   ":memory:",
		Params: map[string]any{"extensionz": []any{"json"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duckdb params")
	assert.False(t, adp.IsConnected())
}
