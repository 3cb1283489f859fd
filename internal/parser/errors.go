package parser

import "fmt"

// ParseError reports a malformed or unsupported input file. Parsing is a
// pure read, so a ParseError guarantees nothing was written anywhere.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	if e.Format == FormatUnknown {
		return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("parse %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(path string, format Format, err error) *ParseError {
	return &ParseError{Path: path, Format: format, Err: err}
}
