package parser

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	blockRE     = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|table|blockquote)>|<br\s*/?>`)
	blankRE     = regexp.MustCompile(`\n{3,}`)
)

// htmlToText derives a plain-text body from an HTML one. Block-level
// closers become newlines before the markup is stripped, so paragraphs
// survive the conversion.
func htmlToText(s string) string {
	s = blockRE.ReplaceAllString(s, "\n")
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	s = strings.Join(lines, "\n")
	s = blankRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
