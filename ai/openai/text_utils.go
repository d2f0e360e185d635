package openai

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// scrubCategory normalizes one category string returned by the model: NFC
// normalization, typographic quotes and dashes folded, stray list markers
// and surrounding punctuation removed.
func scrubCategory(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u2018', '\u2019':
			return '\''
		case '\u201c', '\u201d':
			return -1
		case '\u2013', '\u2014':
			return '-'
		case '\u00a0':
			return ' '
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*•0123456789. ")
	return strings.Trim(s, " \"'`.,;:")
}

// stripFences removes markdown code fences around a model answer.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
