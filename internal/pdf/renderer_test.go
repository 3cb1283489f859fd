package pdf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felo/mail2pdf/internal/parser"
)

// uncompressed returns a renderer whose output keeps text visible in
// the content streams, so tests can assert on the raw bytes.
func uncompressed() *Renderer {
	r := New()
	r.Compress = false
	return r
}

func renderToString(t *testing.T, email *parser.Email, attachmentNames []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, uncompressed().Render(email, attachmentNames, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "%PDF-"), "Output should be a PDF document")
	return string(data)
}

func TestRender_FullEmail(t *testing.T) {
	email := &parser.Email{
		Subject:    "Test",
		Sender:     "alice@example.com",
		SenderName: "Alice Example",
		Recipients: []string{"bob@example.com", "carol@example.com"},
		CC:         []string{"dave@example.com"},
		Date:       time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		BodyText:   "Hello Bob,\n\nPlease find the report attached.",
	}

	out := renderToString(t, email, []string{"report.pdf"})

	assert.Contains(t, out, "Test")
	assert.Contains(t, out, "Alice Example")
	assert.Contains(t, out, "bob@example.com, carol@example.com")
	assert.Contains(t, out, "dave@example.com")
	assert.Contains(t, out, "Please find the report attached.")
	assert.Contains(t, out, "Attachments:")
	assert.Contains(t, out, "report.pdf")
}

// TestRender_EmptyEmail verifies generation succeeds for an email with
// no body and no attachments, and still contains the metadata block
func TestRender_EmptyEmail(t *testing.T) {
	out := renderToString(t, &parser.Email{}, nil)

	assert.Contains(t, out, "Sent On:")
	assert.Contains(t, out, "Not Found")
	assert.Contains(t, out, "No email content or attachments found.")
}

func TestRender_LongBodyPaginates(t *testing.T) {
	paragraph := strings.Repeat("A long line of body text that wraps. ", 8)
	email := &parser.Email{
		Subject:  "Many Pages",
		Sender:   "sender@example.com",
		BodyText: strings.TrimSpace(strings.Repeat(paragraph+"\n", 120)),
	}

	out := renderToString(t, email, nil)

	// One "/Type /Page" object per page, plus the "/Type /Pages" tree node
	pageObjects := strings.Count(out, "/Type /Page")
	assert.Greater(t, pageObjects, 2, "Long body should spill onto multiple pages")
}

func TestRender_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0644))

	email := &parser.Email{Subject: "Fresh", Sender: "a@example.com"}
	require.NoError(t, uncompressed().Render(email, nil, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
	assert.NotContains(t, string(data), "old content")
}

func TestRender_BadPath(t *testing.T) {
	// A file in place of a directory component forces a write failure
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := New().Render(&parser.Email{Subject: "x"}, nil, filepath.Join(blocker, "out.pdf"))

	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
}

func TestTruncateSubject(t *testing.T) {
	assert.Equal(t, "short", truncateSubject("short"))

	long := strings.Repeat("s", 60)
	got := truncateSubject(long)
	assert.Len(t, []rune(got), 50)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestIsChainMarker(t *testing.T) {
	assert.True(t, isChainMarker("> quoted line"))
	assert.True(t, isChainMarker("-----Original Message-----"))
	assert.True(t, isChainMarker("From: someone@example.com"))
	assert.False(t, isChainMarker("plain prose"))
}
