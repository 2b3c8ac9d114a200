package attachment

import "errors"

var (
	ErrInvalidDescriptor  = errors.New("attachment: invalid descriptor")
	ErrUnsupportedScheme  = errors.New("attachment: unsupported scheme")
	ErrNotFound           = errors.New("attachment: not found")
	ErrTooLarge           = errors.New("attachment: file exceeds maximum size")
	ErrAccessDenied       = errors.New("attachment: access denied")
	ErrFailedToRead       = errors.New("attachment: failed to read")
	ErrFailedToLoadConfig = errors.New("attachment: failed to load AWS config")
	ErrInvalidConfig      = errors.New("attachment: invalid configuration")
)
