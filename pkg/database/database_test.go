package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	db := newTestDB(t)
	logger := zap.NewNop()

	require.NoError(t, Migrate(db, logger))

	// Core tables exist.
	for _, table := range []string{"workflows", "workflow_steps", "workflow_history", "workflow_rejection_history", "edit_history", "attachments"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}

	// Running twice is a no-op.
	require.NoError(t, Migrate(db, logger))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	t.Run("commits on success", func(t *testing.T) {
		err := db.WithTransaction(func(tx *sql.Tx) error {
			_, err := tx.Exec(`INSERT INTO items (name) VALUES (?)`, "kept")
			return err
		})
		require.NoError(t, err)

		var count int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items WHERE name = 'kept'`).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		wantErr := errors.New("boom")
		err := db.WithTransaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(`INSERT INTO items (name) VALUES (?)`, "discarded"); err != nil {
				return err
			}
			return wantErr
		})
		assert.ErrorIs(t, err, wantErr)

		var count int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items WHERE name = 'discarded'`).Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = db.WithTransaction(func(tx *sql.Tx) error {
				_, _ = tx.Exec(`INSERT INTO items (name) VALUES (?)`, "panicked")
				panic("boom")
			})
		})

		var count int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items WHERE name = 'panicked'`).Scan(&count))
		assert.Zero(t, count)
	})
}
