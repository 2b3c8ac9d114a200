package address

import (
	"fmt"
	"strings"
)

// Pair is the structured map form of an address.
type Pair = map[string]string

// Address is a mailbox: an email address with an optional display name.
type Address struct {
	Email string `json:"email" bson:"email"`
	Name  string `json:"name" bson:"name"`
}

// IsZero reports whether neither the address nor the name is set.
func (a Address) IsZero() bool {
	return a.Email == "" && a.Name == ""
}

// String renders the canonical form: `"Name" <email>` when a display name is set,
// the bare email otherwise. Both parts are sanitized for use in a mail header.
func (a Address) String() string {
	email := sanitizeEmail(a.Email)
	if a.Name == "" {
		return email
	}
	return fmt.Sprintf(`"%s" <%s>`, sanitizeName(a.Name), email)
}

// Pair returns the structured map form of the address.
func (a Address) Pair() Pair {
	return Pair{"email": a.Email, "name": a.Name}
}

// ToPair converts v into an Address.
//
// nil yields the zero Address. Strings go through ParseString and never fail. Maps must hold an
// "email" (or legacy "address") key; a missing "name" defaults to "". Any other type fails with
// ErrInvalidInput.
func ToPair(v any) (Address, error) {
	switch val := v.(type) {
	case nil:
		return Address{}, nil
	case string:
		return ParseString(val), nil
	case Address:
		return val, nil
	case *Address:
		if val == nil {
			return Address{}, nil
		}
		return *val, nil
	case map[string]string:
		return fromStringMap(val)
	case map[string]any:
		return fromAnyMap(val)
	default:
		return Address{}, fmt.Errorf("%w: must be a string or an address pair, %T given", ErrInvalidInput, v)
	}
}

// FromPair renders a structured pair in its canonical string form.
// Maps without an "email" or "address" key fail with ErrInvalidInput.
func FromPair(v any) (string, error) {
	switch v.(type) {
	case Address, *Address, map[string]string, map[string]any:
	default:
		return "", fmt.Errorf("%w: expected an address pair, %T given", ErrInvalidInput, v)
	}
	a, err := ToPair(v)
	if err != nil {
		return "", err
	}
	return a.String(), nil
}

// Parse converts a string or a structured pair into the canonical string form.
func Parse(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return ParseString(val).String(), nil
	case Address, *Address, map[string]string, map[string]any:
		return FromPair(val)
	default:
		return "", fmt.Errorf("%w: can not parse %T, must be a string or an address pair", ErrInvalidInput, v)
	}
}

// Normalize converts v into an Address whose parts are sanitized the same way String renders
// them, so that Normalize(v).String() == Parse(v).
func Normalize(v any) (Address, error) {
	switch v.(type) {
	case string, Address, *Address, map[string]string, map[string]any:
	default:
		return Address{}, fmt.Errorf("%w: can not normalize %T, must be a string or an address pair", ErrInvalidInput, v)
	}
	a, err := ToPair(v)
	if err != nil {
		return Address{}, err
	}
	a.Email = sanitizeEmail(a.Email)
	if a.Name != "" {
		a.Name = sanitizeName(a.Name)
	}
	return a, nil
}

// List normalizes a "one or many recipients" value into a slice of addresses.
// A single string or pair yields one element; slices of strings or pairs yield one element
// per entry, in order.
func List(v any) ([]Address, error) {
	switch val := v.(type) {
	case string, Address, *Address, map[string]string, map[string]any:
		a, err := Normalize(val)
		if err != nil {
			return nil, err
		}
		return []Address{a}, nil
	case []string:
		return listOf(val)
	case []Address:
		return listOf(val)
	case []map[string]string:
		return listOf(val)
	case []map[string]any:
		return listOf(val)
	case []any:
		return listOf(val)
	default:
		return nil, fmt.Errorf("%w: must be a recipient or a list of recipients, %T given", ErrInvalidInput, v)
	}
}

func listOf[T any](items []T) ([]Address, error) {
	out := make([]Address, 0, len(items))
	for i, item := range items {
		a, err := Normalize(any(item))
		if err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func fromStringMap(m map[string]string) (Address, error) {
	email, ok := m["email"]
	if !ok {
		email, ok = m["address"]
	}
	if !ok {
		return Address{}, fmt.Errorf("%w: pair must contain an \"email\" or \"address\" key", ErrInvalidInput)
	}
	return Address{Email: strings.TrimSpace(email), Name: m["name"]}, nil
}

func fromAnyMap(m map[string]any) (Address, error) {
	raw, ok := m["email"]
	if !ok {
		raw, ok = m["address"]
	}
	if !ok {
		return Address{}, fmt.Errorf("%w: pair must contain an \"email\" or \"address\" key", ErrInvalidInput)
	}
	email, ok := raw.(string)
	if !ok {
		return Address{}, fmt.Errorf("%w: email must be a string, %T given", ErrInvalidInput, raw)
	}

	var name string
	if rawName, exists := m["name"]; exists && rawName != nil {
		if name, ok = rawName.(string); !ok {
			return Address{}, fmt.Errorf("%w: name must be a string, %T given", ErrInvalidInput, rawName)
		}
	}
	return Address{Email: strings.TrimSpace(email), Name: name}, nil
}
