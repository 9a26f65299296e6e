package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_b.sql": {Data: []byte("SELECT 2")},
		"migrations/001_a.sql": {Data: []byte("SELECT 1")},
		"migrations/003_c.sql": {Data: []byte("SELECT 3")},
	}

	pending, err := pendingMigrations(fsys, map[string]bool{"002_b.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "003_c.sql"}, pending)
}

func TestPendingMigrations_Embedded(t *testing.T) {
	pending, err := pendingMigrations(migrationsFS, nil)
	require.NoError(t, err)
	assert.Contains(t, pending, "001_recurrences.sql")

	pending, err = pendingMigrations(migrationsFS, map[string]bool{"001_recurrences.sql": true})
	require.NoError(t, err)
	assert.Empty(t, pending)
}
