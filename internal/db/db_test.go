package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	conn, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	// missing directory is a warning, not an error
	assert.NoError(t, RunMigrations(conn, filepath.Join(t.TempDir(), "nope")))

	// every start reruns the same files
	require.NoError(t, RunMigrations(conn, "../../migrations"))
	require.NoError(t, RunMigrations(conn, "../../migrations"))

	var n int
	require.NoError(t, conn.Get(&n, "SELECT COUNT(*) FROM resources"))
	assert.Zero(t, n)
}

func TestRunMigrationsStopsOnBadSQL(t *testing.T) {
	conn, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_bad.up.sql"), []byte("CREATE TABLE ("), 0o644))
	assert.Error(t, RunMigrations(conn, dir))
}
