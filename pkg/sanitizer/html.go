package sanitizer

import "html"

// UnescapeHTML decodes HTML entities (named, decimal and hexadecimal).
func UnescapeHTML(s string) string {
	return html.UnescapeString(s)
}

// StripTags removes every HTML tag and keeps the inner text untouched.
// Entities are not decoded; combine with UnescapeHTML when needed.
func StripTags(s string) string {
	return htmlTagRegex.ReplaceAllString(s, "")
}
