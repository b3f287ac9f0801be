package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Notes.MD")
	require.NoError(t, os.WriteFile(path, []byte("---\ntitle: Disk\n---\nbody"), 0644))

	file := OpenFile(path)
	assert.Equal(t, "Notes.MD", file.Name())

	data, err := file.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Disk\n---\nbody", string(data))

	result, err := NewDefaultRegistry(nil).ParseFile(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "Disk", result.Title)
	assert.Equal(t, "body", result.Text)
}

func TestOpenFile_Missing(t *testing.T) {
	file := OpenFile(filepath.Join(t.TempDir(), "missing.epub"))

	_, err := file.ReadAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewFile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFile("a.md", []byte("x")).ReadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasExtension(t *testing.T) {
	assert.True(t, hasExtension("book.EPUB", "epub"))
	assert.True(t, hasExtension("notes.markdown", "md", "markdown"))
	assert.False(t, hasExtension("epub", "epub"))
	assert.False(t, hasExtension("book.epub.zip", "epub"))
}

func TestFallbackTitle(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"book.epub", "book"},
		{"My Book.EPUB", "My Book"},
		{"dir/sub/book.epub", "book"},
		{`C:\books\novel.epub`, "novel"},
		{"book.epub.epub", "book.epub"},
		{".epub", ".epub"},
		{"README", "README"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackTitle(tt.name, epubExtPattern))
		})
	}
}
