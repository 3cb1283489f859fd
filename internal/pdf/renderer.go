// Package pdf renders a parsed email into a paginated PDF document:
// a metadata block, the body text, and a listing of the attachments.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/felo/mail2pdf/internal/parser"
)

// RenderError reports a PDF generation or write failure.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

const (
	pageMargin     = 30.0
	lineHeight     = 14.0
	labelWidth     = 80.0
	chainIndent    = 10.0
	fontSize       = 12.0
	maxSubjectLen  = 50
	dateFormat     = "Mon, 02 Jan 2006 15:04:05 -0700"
	missingValue   = "Not Found"
	chainSeparator = "-----Original Message-----"
)

// Renderer lays out emails onto US Letter pages with Helvetica core
// fonts. The zero value is not usable; use New.
type Renderer struct {
	// Compress controls content stream compression. Tests disable it so
	// the drawn text is visible in the output bytes.
	Compress bool
}

func New() *Renderer {
	return &Renderer{Compress: true}
}

// Render writes the email to a single PDF at path, overwriting any
// existing file. attachmentNames is the list of file names actually
// written to disk, in the email's attachment order.
func (r *Renderer) Render(email *parser.Email, attachmentNames []string, path string) error {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetCompression(r.Compress)
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.AddPage()

	pageWidth, _ := doc.GetPageSize()
	contentWidth := pageWidth - 2*pageMargin

	r.drawHeaders(doc, tr, email, contentWidth)
	doc.Ln(lineHeight / 2)
	r.drawBody(doc, tr, email.BodyText, contentWidth)
	doc.Ln(lineHeight / 2)
	r.drawAttachments(doc, tr, attachmentNames, contentWidth)

	if isEmpty(email) && len(attachmentNames) == 0 {
		doc.SetFont("Helvetica", "", fontSize)
		doc.MultiCell(contentWidth, lineHeight, tr("No email content or attachments found."), "", "L", false)
	}

	if err := doc.Error(); err != nil {
		return &RenderError{Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &RenderError{Path: path, Err: err}
		}
	}
	if err := doc.OutputFileAndClose(path); err != nil {
		return &RenderError{Path: path, Err: err}
	}
	return nil
}

type headerRow struct {
	label  string
	value  string
	always bool
}

func (r *Renderer) drawHeaders(doc *fpdf.Fpdf, tr func(string) string, email *parser.Email, contentWidth float64) {
	rows := []headerRow{
		{label: "From", value: formatSender(email)},
		{label: "To", value: strings.Join(email.Recipients, ", ")},
		{label: "Sent On", value: formatDate(email), always: true},
		{label: "CC", value: strings.Join(email.CC, ", ")},
		{label: "Subject", value: truncateSubject(email.Subject)},
	}

	for _, row := range rows {
		if row.value == "" && !row.always {
			continue
		}
		value := row.value
		if value == "" {
			value = missingValue
		}
		doc.SetFont("Helvetica", "B", fontSize)
		doc.CellFormat(labelWidth, lineHeight, tr(row.label+":"), "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", fontSize)
		doc.SetX(pageMargin + labelWidth)
		doc.MultiCell(contentWidth-labelWidth, lineHeight, tr(value), "", "L", false)
		doc.Ln(lineHeight / 4)
	}
}

// drawBody renders the body paragraph by paragraph. Quoted reply chains
// are drawn in gray and indented, matching the usual visual convention
// for forwarded history.
func (r *Renderer) drawBody(doc *fpdf.Fpdf, tr func(string) string, body string, contentWidth float64) {
	if strings.TrimSpace(body) == "" {
		return
	}
	doc.SetFont("Helvetica", "", fontSize)

	inChain := false
	for _, para := range strings.Split(normalizeNewlines(body), "\n") {
		if isChainMarker(para) {
			inChain = true
			doc.SetTextColor(128, 128, 128)
		} else if inChain && strings.TrimSpace(para) == "" {
			inChain = false
			doc.SetTextColor(0, 0, 0)
		}

		if strings.TrimSpace(para) == "" {
			doc.Ln(lineHeight)
			continue
		}

		indent := 0.0
		if inChain {
			indent = chainIndent
		}
		doc.SetX(pageMargin + indent)
		doc.MultiCell(contentWidth-indent, lineHeight, tr(para), "", "L", false)
	}
	doc.SetTextColor(0, 0, 0)
}

func (r *Renderer) drawAttachments(doc *fpdf.Fpdf, tr func(string) string, names []string, contentWidth float64) {
	if len(names) == 0 {
		return
	}
	doc.SetFont("Helvetica", "B", fontSize)
	doc.MultiCell(contentWidth, lineHeight, tr("Attachments:"), "", "L", false)
	doc.SetFont("Helvetica", "", fontSize)
	for _, name := range names {
		doc.SetX(pageMargin + chainIndent)
		doc.MultiCell(contentWidth-chainIndent, lineHeight, tr("- "+name), "", "L", false)
	}
}

func isChainMarker(line string) bool {
	return strings.HasPrefix(line, ">") ||
		strings.Contains(line, chainSeparator) ||
		strings.HasPrefix(line, "From:")
}

func formatSender(email *parser.Email) string {
	switch {
	case email.Sender != "" && email.SenderName != "":
		return fmt.Sprintf("%s <%s>", email.SenderName, email.Sender)
	case email.Sender != "":
		return email.Sender
	default:
		return email.SenderName
	}
}

func formatDate(email *parser.Email) string {
	if email.Date.IsZero() {
		return ""
	}
	return email.Date.Format(dateFormat)
}

func truncateSubject(subject string) string {
	runes := []rune(subject)
	if len(runes) <= maxSubjectLen {
		return subject
	}
	return string(runes[:maxSubjectLen-3]) + "..."
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func isEmpty(email *parser.Email) bool {
	return email.Sender == "" && email.SenderName == "" &&
		len(email.Recipients) == 0 && len(email.CC) == 0 &&
		email.Subject == "" && email.Date.IsZero() && !email.HasBody()
}
