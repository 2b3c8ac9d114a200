package address

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/mailkit/pkg/sanitizer"
)

// ParseString extracts an Address from a display string.
//
// Accepted shapes:
//
//	jane@example.com
//	Jane Doe <jane@example.com>
//	'Jane Doe' <jane@example.com>
//	"Jane Doe" <jane@example.com>
//	Jane Doe jane@example.com
//	jane@example.com Jane Doe
//
// The address must have a single "@", a local part made of ASCII letters, digits and the usual
// punctuation, and a dotted domain whose last label is at least two letters. Anything that does
// not match yields the zero Address; ParseString never fails.
func ParseString(s string) Address {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}
	}

	name, addr := split(s)
	if !isAddress(addr) {
		return Address{}
	}
	return Address{Email: addr, Name: cleanName(name)}
}

// split separates the display name from the address candidate.
func split(s string) (name, addr string) {
	if open := strings.IndexByte(s, '<'); open >= 0 {
		rest := s[open+1:]
		if end := strings.IndexByte(rest, '>'); end >= 0 {
			rest = rest[:end]
		}
		return s[:open], strings.TrimSpace(rest)
	}

	// Without brackets the first token that is an address wins; text before it is the name
	// and text after it is dropped.
	fields := strings.Fields(s)
	for i, f := range fields {
		if f = strings.Trim(f, "<>"); isAddress(f) {
			return strings.Join(fields[:i], " "), f
		}
	}
	return "", ""
}

func isAddress(s string) bool {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') {
		return false
	}

	local, domain := s[:at], s[at+1:]
	for _, r := range local {
		if !isLocalRune(r) {
			return false
		}
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels[:len(labels)-1] {
		if label == "" || strings.IndexFunc(label, func(r rune) bool { return !isDomainRune(r) }) >= 0 {
			return false
		}
	}

	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	for i := 0; i < len(tld); i++ {
		c := tld[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// Addresses are ASCII only, matching what sanitizeEmail keeps.
func isLocalRune(r rune) bool {
	return isAlnum(r) || strings.ContainsRune("._-+!#$%&'*/=?^`{|}~", r)
}

func isDomainRune(r rune) bool {
	return isAlnum(r) || r == '_' || r == '-'
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, `'"`)
	return norm.NFC.String(strings.TrimSpace(name))
}

// sanitizeEmail drops every character that is not allowed in an email address.
func sanitizeEmail(email string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("!#$%&'*+-=?^_`{|}~@.[]", r):
			return r
		}
		return -1
	}, email)
}

// sanitizeName makes a display name safe to embed between double quotes in a header.
func sanitizeName(name string) string {
	name = sanitizer.StripTags(name)
	name = sanitizer.PreventHeaderInjection(name)
	return strings.ReplaceAll(name, `"`, "")
}
