package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageKey(t *testing.T) {
	key, err := ImageKey("products", "My Pizza.jpg.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "products/"), key)
	assert.True(t, strings.HasSuffix(key, "_My_Pizza.jpg"), key)

	key, err = ImageKey("logos", "../../etc/passwd.png", "image/png")
	require.NoError(t, err)
	assert.NotContains(t, key, "..")
	assert.True(t, strings.HasSuffix(key, "_passwd.png"), key)

	_, err = ImageKey("products", "doc.pdf", "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLocalStoreSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "/uploads/")

	url, err := s.Save(context.Background(), "products/1_pizza.jpg", strings.NewReader("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/products/1_pizza.jpg", url)

	data, err := os.ReadFile(filepath.Join(dir, "products", "1_pizza.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, s.Delete(context.Background(), url))
	_, err = os.Stat(filepath.Join(dir, "products", "1_pizza.jpg"))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice or deleting foreign URLs is harmless.
	assert.NoError(t, s.Delete(context.Background(), url))
	assert.NoError(t, s.Delete(context.Background(), "https://elsewhere/x.jpg"))
}

func TestCopyDirAndCleanup(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "products"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "products", "a.jpg"), []byte("a"), 0o644))

	backups := t.TempDir()
	dest := filepath.Join(backups, "2024-01-01_02-00-00")
	require.NoError(t, copyDir(src, dest))

	data, err := os.ReadFile(filepath.Join(dest, "products", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	cleanupOldBackups(backups, 24*time.Hour, time.Now())
	assert.DirExists(t, dest)

	cleanupOldBackups(backups, 24*time.Hour, time.Now().Add(48*time.Hour))
	assert.NoDirExists(t, dest)
}

func TestSniffKeepsContent(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 600)...)
	r, contentType, err := Sniff(bytes.NewReader(png))
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, png, all)

	_, contentType, err = Sniff(strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)
}
