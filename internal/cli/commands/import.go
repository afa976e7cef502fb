package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a data file into a table",
		Long: `Create a table from a CSV or Parquet file. The table is named after the
file unless --table is given, and replaces any table with the same name.

DuckDB reads any format it can scan directly. Postgres and SQLite accept
CSV files with a header row and store every column as text.`,
		Example: `  sqlpad import cities.csv
  sqlpad import data/2024.parquet --table sales --database sales.duckdb`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			name, err := cmdCtx.Engine.Import(cmd.Context(), args[0], table)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as %s\n", args[0], name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&table, "table", "t", "", "Table name (default: file name without extension)")

	return cmd
}
