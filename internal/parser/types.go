package parser

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies the on-disk email format.
type Format string

const (
	FormatUnknown Format = ""
	FormatEML     Format = "eml"
	FormatMSG     Format = "msg"
)

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// DetectFormat infers the format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".eml":
		return FormatEML
	case ".msg":
		return FormatMSG
	default:
		return FormatUnknown
	}
}

// Email is the parsed record of a single email file. It is built once by
// Parse and not mutated afterwards.
type Email struct {
	SourcePath  string
	Format      Format
	Subject     string
	Sender      string
	SenderName  string
	Recipients  []string
	CC          []string
	Date        time.Time
	BodyText    string
	BodyHTML    string
	Attachments []Attachment
}

// Attachment is one attachment blob, in source order. Data is owned by
// the Email until the attachment is written to disk.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// HasBody reports whether any body content was found.
func (e *Email) HasBody() bool {
	return strings.TrimSpace(e.BodyText) != "" || strings.TrimSpace(e.BodyHTML) != ""
}

// Parse reads the file at path and returns its parsed record. The format
// is inferred from the extension when FormatUnknown is passed.
func Parse(path string, format Format) (*Email, error) {
	if format == FormatUnknown {
		format = DetectFormat(path)
	}
	switch format {
	case FormatEML:
		return ParseEMLFile(path)
	case FormatMSG:
		return ParseMSGFile(path)
	default:
		return nil, parseErr(path, FormatUnknown, errors.New("unsupported file format"))
	}
}
