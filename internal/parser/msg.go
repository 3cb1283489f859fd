package parser

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/unicode"
)

// MAPI property streams inside a .msg compound file. Unicode string
// properties end in 001F and are UTF-16LE; 0102 streams are raw binary;
// 0040 streams are 8-byte FILETIME values.
const (
	msgSenderName  = "__substg1.0_0C1A001F"
	msgSenderSMTP  = "__substg1.0_5D01001F"
	msgSubject     = "__substg1.0_0037001F"
	msgBody        = "__substg1.0_1000001F"
	msgDisplayCC   = "__substg1.0_0E03001F"
	msgSubmitTime  = "__substg1.0_00390040"
	msgDeliverTime = "__substg1.0_0E060040"

	msgRecipEmail = "__substg1.0_3003001F"

	msgAttachData      = "__substg1.0_37010102"
	msgAttachLongName  = "__substg1.0_3707001F"
	msgAttachShortName = "__substg1.0_3704001F"
	msgAttachMimeTag   = "__substg1.0_370E001F"

	recipStoragePrefix  = "__recip_version1.0_#"
	attachStoragePrefix = "__attach_version1.0_#"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// msgAttachment accumulates the property streams of one attachment
// storage before it is turned into an Attachment.
type msgAttachment struct {
	data      []byte
	longName  string
	shortName string
	mimeTag   string
}

// ParseMSGFile parses a Microsoft .msg compound file into an Email.
func ParseMSGFile(path string) (*Email, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, parseErr(path, FormatMSG, fmt.Errorf("failed to open file: %w", err))
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		return nil, parseErr(path, FormatMSG, fmt.Errorf("failed to read compound file: %w", err))
	}

	email := &Email{Format: FormatMSG, SourcePath: path}
	recipients := map[int]string{}
	attachments := map[int]*msgAttachment{}

	for entry, err := doc.Next(); err != io.EOF; entry, err = doc.Next() {
		if err != nil {
			return nil, parseErr(path, FormatMSG, fmt.Errorf("failed to walk compound file: %w", err))
		}

		switch {
		case len(entry.Path) == 0:
			if err := readMSGProperty(email, entry); err != nil {
				return nil, parseErr(path, FormatMSG, err)
			}
		case len(entry.Path) == 1 && strings.HasPrefix(entry.Path[0], recipStoragePrefix):
			if entry.Name != msgRecipEmail {
				continue
			}
			idx, ok := storageIndex(entry.Path[0], recipStoragePrefix)
			if !ok {
				continue
			}
			data, err := readStream(entry)
			if err != nil {
				return nil, parseErr(path, FormatMSG, err)
			}
			recipients[idx] = decodeUTF16(data)
		case len(entry.Path) == 1 && strings.HasPrefix(entry.Path[0], attachStoragePrefix):
			idx, ok := storageIndex(entry.Path[0], attachStoragePrefix)
			if !ok {
				continue
			}
			att := attachments[idx]
			if att == nil {
				att = &msgAttachment{}
				attachments[idx] = att
			}
			if err := readMSGAttachmentStream(att, entry); err != nil {
				return nil, parseErr(path, FormatMSG, err)
			}
		}
	}

	for _, idx := range sortedKeys(recipients) {
		if addr := recipients[idx]; addr != "" {
			email.Recipients = append(email.Recipients, addr)
		}
	}

	for _, idx := range sortedKeys(attachments) {
		att := attachments[idx]
		if len(att.data) == 0 {
			continue
		}
		name := att.longName
		if name == "" {
			name = att.shortName
		}
		email.Attachments = append(email.Attachments, Attachment{
			Filename:    name,
			ContentType: att.mimeTag,
			Size:        int64(len(att.data)),
			Data:        att.data,
		})
	}

	return email, nil
}

func readMSGProperty(email *Email, entry *mscfb.File) error {
	switch entry.Name {
	case msgSenderName, msgSenderSMTP, msgSubject, msgBody, msgDisplayCC,
		msgSubmitTime, msgDeliverTime:
	default:
		return nil
	}

	data, err := readStream(entry)
	if err != nil {
		return err
	}

	switch entry.Name {
	case msgSenderName:
		email.SenderName = decodeUTF16(data)
	case msgSenderSMTP:
		email.Sender = decodeUTF16(data)
	case msgSubject:
		email.Subject = decodeUTF16(data)
	case msgBody:
		email.BodyText = decodeUTF16(data)
	case msgDisplayCC:
		email.CC = splitDisplayList(decodeUTF16(data))
	case msgSubmitTime, msgDeliverTime:
		// Client submit time wins over delivery time; first seen sticks
		if email.Date.IsZero() {
			t, err := parseFiletime(data)
			if err != nil {
				return fmt.Errorf("stream %s: %w", entry.Name, err)
			}
			email.Date = t
		}
	}
	return nil
}

func readMSGAttachmentStream(att *msgAttachment, entry *mscfb.File) error {
	switch entry.Name {
	case msgAttachData, msgAttachLongName, msgAttachShortName, msgAttachMimeTag:
	default:
		return nil
	}

	data, err := readStream(entry)
	if err != nil {
		return err
	}

	switch entry.Name {
	case msgAttachData:
		att.data = data
	case msgAttachLongName:
		att.longName = decodeUTF16(data)
	case msgAttachShortName:
		att.shortName = decodeUTF16(data)
	case msgAttachMimeTag:
		att.mimeTag = decodeUTF16(data)
	}
	return nil
}

func readStream(entry *mscfb.File) ([]byte, error) {
	data, err := io.ReadAll(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", entry.Name, err)
	}
	return data, nil
}

// storageIndex extracts the hex index from storage names like
// "__attach_version1.0_#00000002".
func storageIndex(name, prefix string) (int, bool) {
	idx, err := strconv.ParseInt(strings.TrimPrefix(name, prefix), 16, 32)
	if err != nil {
		return 0, false
	}
	return int(idx), true
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func decodeUTF16(b []byte) string {
	decoded, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(decoded), "\x00")
}

// splitDisplayList splits a MAPI display list ("a; b; c") into entries.
func splitDisplayList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

const (
	// Seconds between the FILETIME epoch (1601-01-01) and the Unix epoch.
	filetimeToUnix = 11644473600
	// FILETIME ticks (100 ns) per second.
	filetimeTicksPerSec = 10_000_000
)

// parseFiletime converts an 8-byte little-endian FILETIME (100 ns ticks
// since 1601-01-01) to a time.Time. The tick count exceeds what a
// time.Duration can hold, so the conversion goes through Unix seconds.
func parseFiletime(b []byte) (time.Time, error) {
	if len(b) != 8 {
		return time.Time{}, fmt.Errorf("filetime must be 8 bytes, got %d", len(b))
	}
	ticks := binary.LittleEndian.Uint64(b)
	sec := int64(ticks/filetimeTicksPerSec) - filetimeToUnix
	nsec := int64(ticks%filetimeTicksPerSec) * 100
	return time.Unix(sec, nsec).UTC(), nil
}
