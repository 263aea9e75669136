// Package main provides the entconsole interactive entity query console.
package main

import (
	"os"

	"github.com/leapstack-labs/entconsole/internal/cli"

	// Register session backends via init()
	_ "github.com/leapstack-labs/entconsole/pkg/sessions/duckdb"
	_ "github.com/leapstack-labs/entconsole/pkg/sessions/postgres"
	_ "github.com/leapstack-labs/entconsole/pkg/sessions/sqlite"
)

func main() {
	os.Exit(cli.Execute())
}
