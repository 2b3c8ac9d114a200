// Package sanitizer provides the small set of string cleaning helpers used while composing
// and storing email: HTML entity decoding and tag stripping for plain-text bodies, header
// injection guards for display names and subjects, and filesystem-safe names for dropped
// messages.
//
// All helpers are stateless and safe for concurrent use. Regular expressions are compiled once
// at package initialisation.
//
//	name := sanitizer.PreventHeaderInjection("Jane\r\nBcc: victim@example.com")
//	// "JaneBcc: victim@example.com"
//
//	text := sanitizer.StripTags(sanitizer.UnescapeHTML("&lt;b&gt;Hi&lt;/b&gt;"))
//	// "Hi"
package sanitizer
