package sanitizer

import (
	"strings"
	"unicode"
)

// PreventHeaderInjection removes line breaks and null bytes so a value can not start a new
// header line when it is written into a message header.
func PreventHeaderInjection(s string) string {
	result := strings.ReplaceAll(s, "\r", "")
	result = strings.ReplaceAll(result, "\n", "")
	return RemoveNullBytes(result)
}

// RemoveNullBytes removes null bytes.
func RemoveNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// RemoveControlChars drops control characters, keeping newlines and tabs.
func RemoveControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// NormalizeWhitespace collapses every whitespace run into one space and trims the result.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}
