package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesMigrations(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "taskflow.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	version, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	for _, table := range []string{"tasks", "meta"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "taskflow.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	version, err := SchemaVersion(second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestTasksTableRejectsInvalidStatus(t *testing.T) {
	t.Parallel()

	db, err := Open(filepath.Join(t.TempDir(), "taskflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`INSERT INTO tasks(id, title, status, priority, created_at, updated_at) VALUES('x', 't', 'blocked', 'low', '2024', '2024')`)
	assert.Error(t, err)
}
