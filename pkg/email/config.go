package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/mailkit/pkg/address"
)

// DefaultFromAddress is used when no default sender is configured.
const DefaultFromAddress = "noreply@example.com"

// Transport selects the delivery backend.
type Transport string

const (
	TransportSMTP     Transport = "smtp"
	TransportPostmark Transport = "postmark"
	TransportDev      Transport = "dev"
)

// Config holds email pipeline configuration.
// Load it with config.Load or config.LoadFile.
type Config struct {
	DefaultFrom string         `env:"EMAIL_DEFAULT_FROM" envDefault:"noreply@example.com" yaml:"default_from" toml:"default_from"`
	Transport   Transport      `env:"EMAIL_TRANSPORT" envDefault:"smtp" yaml:"transport" toml:"transport"`
	DevDir      string         `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails" yaml:"dev_dir" toml:"dev_dir"`
	SMTP        SMTPConfig     `envPrefix:"EMAIL_SMTP_" yaml:"smtp" toml:"smtp"`
	Postmark    PostmarkConfig `envPrefix:"EMAIL_POSTMARK_" yaml:"postmark" toml:"postmark"`
	Queue       WorkerConfig   `envPrefix:"EMAIL_QUEUE_" yaml:"queue" toml:"queue"`
}

// Validate checks the default sender and the settings of the selected transport.
func (c Config) Validate() error {
	from, err := address.Parse(c.DefaultFrom)
	if err != nil || from == "" {
		return fmt.Errorf("%w: default from address %q is invalid", ErrInvalidConfig, c.DefaultFrom)
	}

	switch c.Transport {
	case TransportSMTP:
		return c.SMTP.Validate()
	case TransportPostmark:
		return c.Postmark.Validate()
	case TransportDev:
		if strings.TrimSpace(c.DevDir) == "" {
			return fmt.Errorf("%w: dev directory is required", ErrInvalidConfig)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	}
}

// Security is the SMTP connection security mode.
type Security string

const (
	SecurityNone Security = ""
	SecurityTLS  Security = "TLS" // STARTTLS upgrade
	SecuritySSL  Security = "SSL" // implicit TLS
)

// ParseSecurity upper-cases s and accepts "", NONE, TLS or SSL.
func ParseSecurity(s string) (Security, error) {
	switch v := strings.ToUpper(strings.TrimSpace(s)); v {
	case "", "NONE":
		return SecurityNone, nil
	case string(SecurityTLS), string(SecuritySSL):
		return Security(v), nil
	default:
		return SecurityNone, fmt.Errorf("%w: smtp security must be one of \"\", %q or %q, got %q",
			ErrInvalidInput, SecurityTLS, SecuritySSL, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for env, YAML and TOML decoding.
func (s *Security) UnmarshalText(text []byte) error {
	v, err := ParseSecurity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Security) String() string {
	if s == SecurityNone {
		return "NONE"
	}
	return string(s)
}

// SMTPConfig describes the SMTP relay used by the smtp transport.
type SMTPConfig struct {
	Hostname  string        `env:"HOSTNAME" yaml:"hostname" toml:"hostname"`
	Port      int           `env:"PORT" envDefault:"25" yaml:"port" toml:"port"`
	Security  Security      `env:"SECURITY" yaml:"security" toml:"security"`
	Auth      bool          `env:"AUTH" yaml:"auth" toml:"auth"`
	Username  string        `env:"USERNAME" yaml:"username" toml:"username"`
	Password  string        `env:"PASSWORD" yaml:"password" toml:"password"`
	LocalName string        `env:"LOCAL_NAME" envDefault:"localhost" yaml:"local_name" toml:"local_name"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s" yaml:"timeout" toml:"timeout"`
	DKIM      DKIMConfig    `envPrefix:"DKIM_" yaml:"dkim" toml:"dkim"`
}

// Addr returns host:port.
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.Port)
}

// Validate requires a hostname, a port in range, a known security mode and
// credentials when Auth is on.
func (c SMTPConfig) Validate() error {
	if strings.TrimSpace(c.Hostname) == "" {
		return fmt.Errorf("%w: smtp hostname is required", ErrInvalidConfig)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: smtp port %d out of range", ErrInvalidConfig, c.Port)
	}
	if _, err := ParseSecurity(string(c.Security)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Auth && c.Username == "" {
		return fmt.Errorf("%w: smtp username is required when auth is enabled", ErrInvalidConfig)
	}
	return nil
}

// DKIMConfig enables DKIM signing of outgoing SMTP messages when all fields are set.
type DKIMConfig struct {
	Domain         string `env:"DOMAIN" yaml:"domain" toml:"domain"`
	Selector       string `env:"SELECTOR" yaml:"selector" toml:"selector"`
	PrivateKeyPath string `env:"PRIVATE_KEY_PATH" yaml:"private_key_path" toml:"private_key_path"`
}

func (c DKIMConfig) Enabled() bool {
	return c.Domain != "" && c.Selector != "" && c.PrivateKeyPath != ""
}

// PostmarkConfig holds Postmark API credentials.
type PostmarkConfig struct {
	ServerToken  string `env:"SERVER_TOKEN" yaml:"server_token" toml:"server_token"`
	AccountToken string `env:"ACCOUNT_TOKEN" yaml:"account_token" toml:"account_token"`
}

func (c PostmarkConfig) Validate() error {
	if c.ServerToken == "" {
		return fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	if c.AccountToken == "" {
		return fmt.Errorf("%w: postmark account token is required", ErrInvalidConfig)
	}
	return nil
}

// WorkerConfig tunes the queue worker.
type WorkerConfig struct {
	PollInterval  time.Duration `env:"POLL_INTERVAL" envDefault:"10s" yaml:"poll_interval" toml:"poll_interval"`
	BatchSize     int           `env:"BATCH_SIZE" envDefault:"50" yaml:"batch_size" toml:"batch_size"`
	MaxConcurrent int           `env:"MAX_CONCURRENT" envDefault:"4" yaml:"max_concurrent" toml:"max_concurrent"`
	ClaimTTL      time.Duration `env:"CLAIM_TTL" envDefault:"5m" yaml:"claim_ttl" toml:"claim_ttl"`
}
