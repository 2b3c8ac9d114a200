package redis

import "time"

// Config describes the Redis connection used for claim locks.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" yaml:"url" toml:"url"` // redis://:password@host:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3" yaml:"retry_attempts" toml:"retry_attempts"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s" yaml:"retry_interval" toml:"retry_interval"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s" yaml:"connect_timeout" toml:"connect_timeout"`
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"mailkit:" yaml:"key_prefix" toml:"key_prefix"`
}
