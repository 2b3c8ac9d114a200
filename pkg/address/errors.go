package address

import "errors"

// ErrInvalidInput is returned when a value can not be interpreted as an address.
var ErrInvalidInput = errors.New("address: invalid input")
