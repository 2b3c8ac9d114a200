package mongo

import "time"

// Config describes the MongoDB connection used for email logs.
type Config struct {
	ConnectionURL   string        `env:"MONGODB_URL" yaml:"url" toml:"url"`
	Database        string        `env:"MONGODB_DATABASE" envDefault:"mailkit" yaml:"database" toml:"database"`
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s" yaml:"connect_timeout" toml:"connect_timeout"`
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100" yaml:"max_pool_size" toml:"max_pool_size"`
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1" yaml:"min_pool_size" toml:"min_pool_size"`
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s" yaml:"max_conn_idle_time" toml:"max_conn_idle_time"`
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true" yaml:"retry_writes" toml:"retry_writes"`
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true" yaml:"retry_reads" toml:"retry_reads"`
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3" yaml:"retry_attempts" toml:"retry_attempts"`
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s" yaml:"retry_interval" toml:"retry_interval"`
}
