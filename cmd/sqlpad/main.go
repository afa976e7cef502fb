// Package main is the entry point for the sqlpad query console.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlpad/internal/cli"

	// Register the database backends.
	_ "github.com/leapstack-labs/sqlpad/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlpad/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqlpad/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
