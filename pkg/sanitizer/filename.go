package sanitizer

import "strings"

// SanitizeFilename turns an arbitrary label (a subject, a tag) into a portable file name.
// Spaces become underscores, unsafe characters are replaced, the result is lower-cased and
// capped at maxLen bytes. An empty result falls back to "email".
func SanitizeFilename(s string, maxLen int) string {
	safe := strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	safe = unsafeFilenameRegex.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, " .")

	if maxLen > 0 && len(safe) > maxLen {
		safe = safe[:maxLen]
	}
	if safe == "" {
		safe = "email"
	}
	return strings.ToLower(safe)
}
