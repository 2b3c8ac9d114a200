// Package address parses and renders email mailboxes.
//
// Input comes in three shapes: a bare address ("jane@example.com"), an RFC-822 style display
// string (`"Jane Doe" <jane@example.com>`), or a structured pair (Address, or a map holding an
// "email" key, "address" being accepted as a legacy alias, and an optional "name" key).
//
// Parsing strings is permissive: a malformed value degrades to the zero Address instead of
// failing. Structured input is strict: a pair without an address key, or a value that is neither
// a string nor a pair, fails with ErrInvalidInput.
//
//	a := address.ParseString(`'Jane Doe' <jane@example.com>`)
//	a.Email // "jane@example.com"
//	a.Name  // "Jane Doe"
//	a.String() // `"Jane Doe" <jane@example.com>`
//
//	s, err := address.Parse(map[string]string{"email": "jane@example.com", "name": "Jane"})
//	// s == `"Jane" <jane@example.com>`
package address
