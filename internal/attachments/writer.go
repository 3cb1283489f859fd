// Package attachments persists parsed attachment blobs to a directory,
// deriving collision-safe file names.
package attachments

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felo/mail2pdf/internal/parser"
)

// WriteError reports a filesystem failure while persisting attachments.
type WriteError struct {
	Dir  string
	Name string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("write attachments to %s: %v", e.Dir, e.Err)
	}
	return fmt.Sprintf("write attachment %s to %s: %v", e.Name, e.Dir, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// mimeExtensions maps common content types to an extension for
// attachments that arrive without a usable file name.
var mimeExtensions = map[string]string{
	"application/pdf":    ".pdf",
	"text/plain":         ".txt",
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"application/msword": ".doc",
}

const illegalNameChars = `<>:"/\|?*`

// WriteAll writes each attachment to dir in input order and returns the
// file names written, also in input order. A name collision gets a
// numeric suffix before the extension (file.txt -> file_1.txt); an
// earlier file is never overwritten.
func WriteAll(dir string, atts []parser.Attachment) ([]string, error) {
	if len(atts) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &WriteError{Dir: dir, Err: err}
	}

	written := make([]string, 0, len(atts))
	taken := make(map[string]bool, len(atts))
	for i, att := range atts {
		name := uniqueName(dir, taken, safeName(att, i))
		if err := os.WriteFile(filepath.Join(dir, name), att.Data, 0644); err != nil {
			return written, &WriteError{Dir: dir, Name: name, Err: err}
		}
		taken[name] = true
		written = append(written, name)
	}
	return written, nil
}

// safeName produces a base file name for the attachment: the declared
// name with illegal characters replaced, or a generated one with an
// extension derived from the content type.
func safeName(att parser.Attachment, index int) string {
	name := filepath.Base(att.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	for _, c := range illegalNameChars {
		name = strings.ReplaceAll(name, string(c), ".")
	}
	name = strings.Trim(name, ". ")

	if name == "" {
		name = fmt.Sprintf("attachment_%d", index+1)
	}
	if !strings.Contains(name, ".") {
		ext, ok := mimeExtensions[normalizeContentType(att.ContentType)]
		if !ok {
			ext = ".bin"
		}
		name += ext
	}
	return name
}

// uniqueName appends _1, _2, ... before the extension until the name
// collides with neither this batch nor an existing file.
func uniqueName(dir string, taken map[string]bool, name string) string {
	if available(dir, taken, name) {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if available(dir, taken, candidate) {
			return candidate
		}
	}
}

func available(dir string, taken map[string]bool, name string) bool {
	if taken[name] {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, name))
	return os.IsNotExist(err)
}

func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
