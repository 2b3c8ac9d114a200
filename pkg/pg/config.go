package pg

import "time"

// Config describes the PostgreSQL pool used by the email queue and log stores.
type Config struct {
	ConnectionString  string        `env:"PG_CONN_URL" yaml:"conn_url" toml:"conn_url"`
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10" yaml:"max_open_conns" toml:"max_open_conns"`
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"2" yaml:"max_idle_conns" toml:"max_idle_conns"`
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m" yaml:"healthcheck_period" toml:"healthcheck_period"`
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m" yaml:"max_conn_idle_time" toml:"max_conn_idle_time"`
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m" yaml:"max_conn_lifetime" toml:"max_conn_lifetime"`

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3" yaml:"retry_attempts" toml:"retry_attempts"`
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s" yaml:"retry_interval" toml:"retry_interval"`

	// MigrationsPath points at extra goose migrations on disk. Empty means only embedded ones run.
	MigrationsPath  string `env:"PG_MIGRATIONS_PATH" yaml:"migrations_path" toml:"migrations_path"`
	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"mailkit_migrations" yaml:"migrations_table" toml:"migrations_table"`
}
