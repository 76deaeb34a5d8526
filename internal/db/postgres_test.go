package db

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	names, err := migrationNames(Migrations())
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_orders.sql", "0002_tryon_jobs.sql"}, names)

	body, err := fs.ReadFile(Migrations(), "0002_tryon_jobs.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "tryon_output_iff_done")
}

func TestMigrationNamesSkipsNonSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_b.sql": {Data: []byte("SELECT 2")},
		"README.md":  {Data: []byte("docs")},
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"nested/x":   {Data: []byte("")},
	}
	names, err := migrationNames(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, names)
}
