package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "one.eml")
	writeFile(t, root, "inbox/two.EML")
	writeFile(t, root, "inbox/archive/three.msg")
	writeFile(t, root, "notes.txt")
	writeFile(t, root, "inbox/readme.md")

	files, err := NewScanner(root).Scan()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"one.eml", "inbox/two.EML", "inbox/archive/three.msg"}, files)
	for _, f := range files {
		assert.False(t, filepath.IsAbs(f), "Scan should return relative paths")
	}
}

func TestScan_EmptyDirectory(t *testing.T) {
	files, err := NewScanner(t.TempDir()).Scan()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "absent")).Scan()
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.eml")
	writeFile(t, root, "b.msg")
	writeFile(t, root, "c.txt")

	count, err := NewScanner(root).Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
