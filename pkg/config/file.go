package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// noDefaultsTag is a tag name no field carries, so the second env pass applies
// only variables that are actually set.
const noDefaultsTag = "envFileNoDefault"

// LoadFile fills v from envDefault tags, then a YAML (.yaml, .yml) or TOML (.toml)
// file, then the environment. Set variables win over the file, defaults do not.
// Results are not cached. Validator is honoured as in Load.
//
// Example:
//
//	var cfg email.Config
//	if err := config.LoadFile("mailkit.yaml", &cfg); err != nil {
//		return err
//	}
func LoadFile(path string, v any) error {
	if v == nil {
		return ErrNilPointer
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrReadingFile, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && len(bytes.TrimSpace(data)) > 0 {
			return errors.Join(ErrReadingFile, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), v); err != nil {
			return errors.Join(ErrReadingFile, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := env.ParseWithOptions(v, env.Options{DefaultValueTagName: noDefaultsTag}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return validate(v)
}
