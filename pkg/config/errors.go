package config

import "errors"

var (
	ErrNilPointer        = errors.New("config: nil pointer")
	ErrParsingConfig     = errors.New("config: failed to parse environment")
	ErrValidation        = errors.New("config: validation failed")
	ErrLoadingEnvFile    = errors.New("config: failed to load env file")
	ErrReadingFile       = errors.New("config: failed to read config file")
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
)
