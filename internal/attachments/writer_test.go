package attachments

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felo/mail2pdf/internal/parser"
)

func TestWriteAll_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	atts := []parser.Attachment{
		{Filename: "report.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 fake")},
		{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("some notes")},
	}

	names, err := WriteAll(dir, atts)
	require.NoError(t, err)
	require.Equal(t, []string{"report.pdf", "notes.txt"}, names,
		"Written names should preserve input order")

	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, atts[i].Data, data, "No data loss on write")
	}
}

func TestWriteAll_NameCollision(t *testing.T) {
	dir := t.TempDir()
	atts := []parser.Attachment{
		{Filename: "file.txt", Data: []byte("first")},
		{Filename: "file.txt", Data: []byte("second")},
		{Filename: "file.txt", Data: []byte("third")},
	}

	names, err := WriteAll(dir, atts)
	require.NoError(t, err)
	assert.Equal(t, []string{"file.txt", "file_1.txt", "file_2.txt"}, names)

	first, err := os.ReadFile(filepath.Join(dir, "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), first, "Earlier file must never be overwritten")
}

func TestWriteAll_CollisionWithExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("preexisting"), 0644))

	names, err := WriteAll(dir, []parser.Attachment{{Filename: "file.txt", Data: []byte("new")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"file_1.txt"}, names)

	data, err := os.ReadFile(filepath.Join(dir, "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("preexisting"), data)
}

func TestWriteAll_EmptyList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "untouched")

	names, err := WriteAll(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "No directory should be created for zero attachments")
}

func TestWriteAll_UnwritableDir(t *testing.T) {
	// A regular file used as the target directory makes MkdirAll fail
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := WriteAll(blocker, []parser.Attachment{{Filename: "a.txt", Data: []byte("x")}})

	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, blocker, werr.Dir)
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		name     string
		att      parser.Attachment
		index    int
		expected string
	}{
		{
			name:     "clean name kept",
			att:      parser.Attachment{Filename: "report.pdf"},
			expected: "report.pdf",
		},
		{
			name:     "illegal characters replaced",
			att:      parser.Attachment{Filename: `inv|oice?*.txt`},
			expected: "inv.oice...txt",
		},
		{
			name:     "path components dropped",
			att:      parser.Attachment{Filename: "../../etc/passwd.txt"},
			expected: "passwd.txt",
		},
		{
			name:     "missing name with known content type",
			att:      parser.Attachment{ContentType: "application/pdf"},
			index:    2,
			expected: "attachment_3.pdf",
		},
		{
			name:     "missing name with parameters on content type",
			att:      parser.Attachment{ContentType: "text/plain; charset=utf-8"},
			expected: "attachment_1.txt",
		},
		{
			name:     "missing name with unknown content type",
			att:      parser.Attachment{ContentType: "application/x-mystery"},
			expected: "attachment_1.bin",
		},
		{
			name:     "extensionless name gets mime extension",
			att:      parser.Attachment{Filename: "photo", ContentType: "image/png"},
			expected: "photo.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, safeName(tt.att, tt.index))
		})
	}
}
