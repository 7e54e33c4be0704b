package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStore_Save(t *testing.T) {
	tempDir := t.TempDir()
	logger := zap.NewNop()
	store := NewLocalStore(tempDir, logger)

	t.Run("saves under per-workflow directory", func(t *testing.T) {
		content := []byte("GL detail content")

		path, err := store.Save(7, "gl_detail.xlsx", content)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tempDir, "7", "gl_detail.xlsx"), path)
		assert.FileExists(t, path)

		saved, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("strips client-supplied directories", func(t *testing.T) {
		path, err := store.Save(7, "../../../etc/passwd", []byte("x"))

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tempDir, "7", "passwd"), path)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		_, err := store.Save(8, "doc.pdf", []byte("original"))
		require.NoError(t, err)

		path, err := store.Save(8, "doc.pdf", []byte("updated"))
		require.NoError(t, err)

		content, _ := os.ReadFile(path)
		assert.Equal(t, []byte("updated"), content)
	})
}

func TestLocalStore_Read(t *testing.T) {
	tempDir := t.TempDir()
	store := NewLocalStore(tempDir, zap.NewNop())

	path, err := store.Save(1, "contract.pdf", []byte("signed"))
	require.NoError(t, err)

	content, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("signed"), content)

	t.Run("rejects paths outside the upload root", func(t *testing.T) {
		outside := filepath.Join(t.TempDir(), "secret.txt")
		require.NoError(t, os.WriteFile(outside, []byte("nope"), 0644))

		_, err := store.Read(outside)
		assert.Error(t, err)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := store.Read(filepath.Join(tempDir, "1", "missing.pdf"))
		assert.Error(t, err)
	})
}
