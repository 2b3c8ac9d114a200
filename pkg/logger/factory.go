package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format is the output encoding of log records.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text" // logfmt-style key=value
)

// Environment names accepted by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// ErrInvalidConfig is returned by Config.Validate and NewFromConfig.
var ErrInvalidConfig = errors.New("logger: invalid configuration")

// Config overrides the environment preset. Empty fields keep the preset values.
type Config struct {
	Level     string `env:"LOG_LEVEL" yaml:"level" toml:"level"`
	Format    Format `env:"LOG_FORMAT" yaml:"format" toml:"format"`
	AddSource bool   `env:"LOG_ADD_SOURCE" yaml:"add_source" toml:"add_source"`
}

// Validate reports unknown levels and formats.
func (c Config) Validate() error {
	var errs []error
	if c.Level != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(c.Level))); err != nil {
			errs = append(errs, fmt.Errorf("level %q: %w", c.Level, err))
		}
	}
	switch c.Format {
	case "", FormatJSON, FormatText:
	default:
		errs = append(errs, fmt.Errorf("format %q: must be %q or %q", c.Format, FormatJSON, FormatText))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Option configures New.
type Option func(*options)

type options struct {
	level      slog.Level
	format     Format
	addSource  bool
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

// WithLevelName sets the level by name (debug, info, warn, error).
// Unknown names keep the current level.
func WithLevelName(name string) Option {
	return func(o *options) {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err == nil {
			o.level = l
		}
	}
}

// WithFormat sets the output format. Panics on unknown formats so a
// misconfigured worker fails at startup.
func WithFormat(f Format) Option {
	return func(o *options) {
		switch f {
		case FormatJSON, FormatText:
			o.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithSource adds the caller's file and line to every record.
func WithSource() Option {
	return func(o *options) { o.addSource = true }
}

// WithOutput sets the destination. Nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) { o.attrs = append(o.attrs, attrs...) }
}

// WithContextExtractors registers functions that add attributes from the record's context.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		for _, ex := range extractors {
			if ex != nil {
				o.extractors = append(o.extractors, ex)
			}
		}
	}
}

// WithEnvironment applies the preset for env and tags records with service and env.
// Development logs text at debug level; staging and production log JSON at info.
// Short aliases (prod, stage) are accepted and anything else means development.
func WithEnvironment(env, service string) Option {
	return func(o *options) {
		name := EnvDevelopment
		switch strings.ToLower(strings.TrimSpace(env)) {
		case EnvProduction, "prod":
			name = EnvProduction
		case EnvStaging, "stage":
			name = EnvStaging
		}

		o.level, o.format = slog.LevelInfo, FormatJSON
		if name == EnvDevelopment {
			o.level, o.format = slog.LevelDebug, FormatText
		}
		if service != "" {
			o.attrs = append(o.attrs, slog.String("service", service))
		}
		o.attrs = append(o.attrs, slog.String("env", name))
	}
}

// New creates a logger whose handler runs every registered ContextExtractor on each record.
// Defaults: JSON at info level to stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{level: slog.LevelInfo, format: FormatJSON, output: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level, AddSource: o.addSource}
	var handler slog.Handler
	if o.format == FormatText {
		handler = slog.NewTextHandler(o.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	}
	if len(o.attrs) > 0 {
		handler = handler.WithAttrs(o.attrs)
	}

	return slog.New(NewLogHandlerDecorator(handler, o.extractors...))
}

// NewFromConfig applies the environment preset, then cfg, then opts.
func NewFromConfig(env, service string, cfg Config, opts ...Option) (*slog.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	all := []Option{WithEnvironment(env, service)}
	if cfg.Level != "" {
		all = append(all, WithLevelName(cfg.Level))
	}
	if cfg.Format != "" {
		all = append(all, WithFormat(cfg.Format))
	}
	if cfg.AddSource {
		all = append(all, WithSource())
	}
	return New(append(all, opts...)...), nil
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
