package sanitizer

import "regexp"

var (
	htmlTagRegex        = regexp.MustCompile(`<[^>]*>`)
	unsafeFilenameRegex = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespaceRegex     = regexp.MustCompile(`\s+`)
)
