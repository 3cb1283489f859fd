package parser

import (
	"fmt"
	"io"
	"mime"
	"os"
	"strings"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// ParseEMLFile parses an RFC 5322 .eml file into an Email.
func ParseEMLFile(path string) (*Email, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, parseErr(path, FormatEML, fmt.Errorf("failed to open file: %w", err))
	}
	defer f.Close()

	email, err := parseEML(f)
	if err != nil {
		return nil, parseErr(path, FormatEML, err)
	}
	email.SourcePath = path
	return email, nil
}

func parseEML(r io.Reader) (*Email, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	email := &Email{Format: FormatEML}
	header := mr.Header

	// Subject - decode MIME words
	email.Subject = decodeMIMEWord(header.Get("Subject"))

	if fromAddrs, err := header.AddressList("From"); err == nil && len(fromAddrs) > 0 {
		email.Sender = fromAddrs[0].Address
		email.SenderName = fromAddrs[0].Name
	}

	if toAddrs, err := header.AddressList("To"); err == nil {
		for _, addr := range toAddrs {
			email.Recipients = append(email.Recipients, addr.Address)
		}
	}

	if ccAddrs, err := header.AddressList("Cc"); err == nil {
		for _, addr := range ccAddrs {
			email.CC = append(email.CC, addr.Address)
		}
	}

	// Date stays zero when the header is missing or unparseable
	if date, err := header.Date(); err == nil {
		email.Date = date
	}

	// Walk the parts for body and attachments, preserving source order
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read body: %w", err)
			}

			if strings.HasPrefix(contentType, "text/plain") {
				// multipart/alternative carries both; first plain part wins
				if email.BodyText == "" {
					email.BodyText = string(body)
				}
			} else if strings.HasPrefix(contentType, "text/html") {
				email.BodyHTML = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			data, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read attachment: %w", err)
			}

			email.Attachments = append(email.Attachments, Attachment{
				Filename:    filename,
				ContentType: contentType,
				Size:        int64(len(data)),
				Data:        data,
			})
		}
	}

	// HTML-only emails still need a text body for rendering
	if email.BodyText == "" && email.BodyHTML != "" {
		email.BodyText = htmlToText(email.BodyHTML)
	}

	return email, nil
}

// decodeMIMEWord decodes MIME-encoded words (RFC 2047)
// Example: =?UTF-8?Q?Invitaci=C3=B3n?= -> Invitación
func decodeMIMEWord(s string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		// If decoding fails, return original string
		return s
	}
	return decoded
}
