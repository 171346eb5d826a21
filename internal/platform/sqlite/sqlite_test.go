package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	db := NewTestDB(t)

	require.NoError(t, EnsureSchema(db))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM foods`).Scan(&count))
	assert.Zero(t, count)
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nutri.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, EnsureSchema(db))

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}
