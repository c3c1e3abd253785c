package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_Save(t *testing.T) {
	tempDir := t.TempDir()
	logger := zap.NewNop()
	fs := NewLocalFileStorage(tempDir, logger)
	ctx := context.Background()

	t.Run("saves file and returns full path", func(t *testing.T) {
		content := []byte("facture hotel")

		path, err := fs.Save(ctx, "justificatifs/12/recu.pdf", content)

		require.NoError(t, err)
		assert.FileExists(t, path)

		saved, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("creates parent directories", func(t *testing.T) {
		path, err := fs.Save(ctx, "justificatifs/99/deep/nested/ticket.jpg", []byte("x"))

		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		_, err := fs.Save(ctx, "justificatifs/5/note.txt", []byte("original"))
		require.NoError(t, err)

		path, err := fs.Save(ctx, "justificatifs/5/note.txt", []byte("updated"))
		require.NoError(t, err)

		content, _ := os.ReadFile(path)
		assert.Equal(t, []byte("updated"), content)
	})

	t.Run("rejects traversal outside base directory", func(t *testing.T) {
		_, err := fs.Save(ctx, "../escape.txt", []byte("nope"))

		assert.Error(t, err)
		assert.NoFileExists(t, filepath.Join(filepath.Dir(tempDir), "escape.txt"))
	})
}

func TestLocalFileStorage_Delete(t *testing.T) {
	tempDir := t.TempDir()
	logger := zap.NewNop()
	fs := NewLocalFileStorage(tempDir, logger)
	ctx := context.Background()

	t.Run("deletes existing file", func(t *testing.T) {
		path, err := fs.Save(ctx, "justificatifs/7/recu.pdf", []byte("content"))
		require.NoError(t, err)

		err = fs.Delete(ctx, "justificatifs/7/recu.pdf")

		require.NoError(t, err)
		assert.NoFileExists(t, path)
	})

	t.Run("deleting a missing key is a no-op", func(t *testing.T) {
		err := fs.Delete(ctx, "justificatifs/404/absent.pdf")
		assert.NoError(t, err)
	})

	t.Run("rejects traversal outside base directory", func(t *testing.T) {
		err := fs.Delete(ctx, "../../etc/passwd")
		assert.Error(t, err)
	})
}
