package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestLocateFile(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "data", "mine")
	second := filepath.Join(root, "data", "samples", "mine")
	touch(t, filepath.Join(second, "model.onnx"))
	touch(t, filepath.Join(first, "both.onnx"))
	touch(t, filepath.Join(second, "both.onnx"))
	require.NoError(t, os.MkdirAll(filepath.Join(first, "dir.onnx"), 0o755))

	dirs := []string{first, second}

	p, ok := LocateFile("model.onnx", dirs)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(second, "model.onnx"), p)

	p, ok = LocateFile("both.onnx", dirs)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(first, "both.onnx"), p, "first directory wins")

	p, ok = LocateFile("missing.onnx", dirs)
	assert.False(t, ok)
	assert.Equal(t, filepath.Join(first, "missing.onnx"), p, "falls back to the first directory")

	_, ok = LocateFile("dir.onnx", dirs[:1])
	assert.False(t, ok, "directories are not files")

	abs := filepath.Join(second, "model.onnx")
	p, ok = LocateFile(abs, dirs)
	assert.True(t, ok)
	assert.Equal(t, abs, p)

	p, ok = LocateFile("nowhere.onnx", nil)
	assert.False(t, ok)
	assert.Equal(t, "nowhere.onnx", p)
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"dog.0.jpg", "cat.0.JPG", "notes.txt", "cat.1.png"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub.jpg"), 0o755))

	names, err := ListImageFiles(dir, []string{".jpg", ".png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat.0.JPG", "cat.1.png", "dog.0.jpg"}, names)

	_, err = ListImageFiles(filepath.Join(dir, "missing"), nil)
	assert.Error(t, err)
}
