// Package config loads service configuration into tagged structs.
//
// Load reads the environment through caarlos0/env after loading the default
// .env file with godotenv. Each struct type is parsed once and then served
// from a cache, which keeps repeated lookups in hot paths free:
//
//	var cfg email.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// LoadFile starts from envDefault values, decodes a YAML or TOML file on top
// and finally applies the variables that are actually set, so an operator can
// override a single field of a checked-in file:
//
//	EMAIL_SMTP_PASSWORD=... mailqueue -config mailqueue.yaml
//
// Configurations implementing Validator are checked after either loader and
// the error is joined with ErrValidation.
//
// Extra env files can be applied with LoadEnv. Call ResetCache afterwards, or
// between tests, to force the next Load to reparse.
package config
