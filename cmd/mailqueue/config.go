package main

import (
	"fmt"

	"github.com/dmitrymomot/mailkit/pkg/config"
	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/email/attachment"
	"github.com/dmitrymomot/mailkit/pkg/httpserver"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mongo"
	"github.com/dmitrymomot/mailkit/pkg/pg"
	"github.com/dmitrymomot/mailkit/pkg/redis"
)

// appConfig is the whole worker configuration. Each backend is optional:
// an empty connection URL disables it.
type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development" yaml:"env" toml:"env"`
	Service string `env:"SERVICE_NAME" envDefault:"mailqueue" yaml:"service" toml:"service"`

	Log         logger.Config     `yaml:"log" toml:"log"`
	Email       email.Config      `yaml:"email" toml:"email"`
	Attachments attachmentsConfig `yaml:"attachments" toml:"attachments"`
	Postgres    pg.Config         `yaml:"postgres" toml:"postgres"`
	Redis       redis.Config      `yaml:"redis" toml:"redis"`
	Mongo       mongo.Config      `yaml:"mongo" toml:"mongo"`
	HTTP        httpserver.Config `yaml:"http" toml:"http"`
}

type attachmentsConfig struct {
	Root      string              `env:"ATTACHMENTS_ROOT" yaml:"root" toml:"root"`
	CacheSize int64               `env:"ATTACHMENTS_CACHE_SIZE" envDefault:"67108864" yaml:"cache_size" toml:"cache_size"` // bytes of s3 files kept in memory
	S3        attachment.S3Config `yaml:"s3" toml:"s3"`
}

// Validate checks the log and email sections. Backends validate on connect.
func (c appConfig) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if err := c.Email.Validate(); err != nil {
		return fmt.Errorf("email config: %w", err)
	}
	return nil
}

// loadConfig reads path when set, the environment otherwise.
func loadConfig(path string) (appConfig, error) {
	var cfg appConfig
	var err error
	if path != "" {
		err = config.LoadFile(path, &cfg)
	} else {
		err = config.Load(&cfg)
	}
	return cfg, err
}
