// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/entconsole/internal/testutil"
	"github.com/leapstack-labs/entconsole/pkg/session"
	"github.com/leapstack-labs/entconsole/pkg/sessions/sqlite"
)

// SetupTestProject creates a temporary directory holding an entconsole.yaml
// with a "dev" profile, its schema manifest and a seeded SQLite database.
// extra is appended to the configuration file. It returns the config path.
func SetupTestProject(t *testing.T, extra string) string {
	t.Helper()

	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "schema.yaml"), []byte(testutil.SchemaManifest), 0600))

	sess := sqlite.New(nil)
	require.NoError(t, sess.Connect(context.Background(), session.Config{
		Driver:   "sqlite",
		Database: filepath.Join(tmpDir, "dev.db"),
	}))
	_, err := sess.DB.Exec(testutil.SchemaDDL)
	require.NoError(t, err)
	_, err = sess.DB.Exec(`
		INSERT INTO usuario (codigo, num_documento, nombre, direccion) VALUES (1, '111', 'jose', 'Calle 1');
		INSERT INTO usuario (codigo, num_documento, nombre, direccion) VALUES (2, '222', 'jaime', NULL);
	`)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	cfg := `profiles:
  dev:
    driver: sqlite
    database: dev.db
    manifest: schema.yaml
` + extra
	cfgPath := filepath.Join(tmpDir, "entconsole.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))
	return cfgPath
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
