package manifest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndLookup(t *testing.T) {
	store := openTestStore(t)

	ok, err := store.IsConverted("inbox/one.eml")
	require.NoError(t, err)
	assert.False(t, ok)

	conv := Conversion{
		SourcePath:      "inbox/one.eml",
		Format:          "eml",
		Subject:         "Test",
		Sender:          "alice@example.com",
		Date:            time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		PDFPath:         "out/inbox/one.pdf",
		AttachmentCount: 1,
	}
	require.NoError(t, store.Record(conv))

	ok, err = store.IsConverted("inbox/one.eml")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Get("inbox/one.eml")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Test", got.Subject)
	assert.Equal(t, "alice@example.com", got.Sender)
	assert.Equal(t, "out/inbox/one.pdf", got.PDFPath)
	assert.Equal(t, 1, got.AttachmentCount)
	assert.True(t, got.Date.Equal(conv.Date))
	assert.False(t, got.ConvertedAt.IsZero())
}

func TestList(t *testing.T) {
	store := openTestStore(t)

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, store.Record(Conversion{SourcePath: "a.eml", Format: "eml", Subject: "First", PDFPath: "a.pdf"}))
	require.NoError(t, store.Record(Conversion{SourcePath: "b.msg", Format: "msg", Subject: "Second", PDFPath: "b.pdf", AttachmentCount: 2}))

	list, err = store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Most recent first
	assert.Equal(t, "b.msg", list[0].SourcePath)
	assert.Equal(t, "Second", list[0].Subject)
	assert.Equal(t, 2, list[0].AttachmentCount)
	assert.Equal(t, "a.eml", list[1].SourcePath)
	assert.False(t, list[0].ConvertedAt.IsZero())
}

func TestRecord_ReplacesExisting(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(Conversion{SourcePath: "a.eml", Format: "eml", PDFPath: "a.pdf"}))
	require.NoError(t, store.Record(Conversion{SourcePath: "a.eml", Format: "eml", PDFPath: "b.pdf", AttachmentCount: 2}))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Re-recording a source path must not duplicate it")

	got, err := store.Get("a.eml")
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", got.PDFPath)
	assert.Equal(t, 2, got.AttachmentCount)
}

func TestRecord_ZeroDate(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(Conversion{SourcePath: "nodate.msg", Format: "msg", PDFPath: "n.pdf"}))

	got, err := store.Get("nodate.msg")
	require.NoError(t, err)
	assert.True(t, got.Date.IsZero())
}

func TestGet_Unknown(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Get("missing.eml")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(Conversion{SourcePath: "a.eml", Format: "eml", PDFPath: "a.pdf"}))
	require.NoError(t, store.Delete("a.eml"))

	ok, err := store.IsConverted("a.eml")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete("never-existed.eml"))
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "manifest.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(Conversion{SourcePath: "a.eml", Format: "eml", PDFPath: "a.pdf"}))
	assert.FileExists(t, path)
}
