package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/email/attachment"
)

// DialFunc opens the raw connection to the relay.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Option configures the SMTP client.
type Option func(*options)

type options struct {
	loader    *attachment.Loader
	tlsConfig *tls.Config
	dial      DialFunc
	now       func() time.Time
}

// WithAttachmentLoader sets the loader used to resolve attachment descriptors.
func WithAttachmentLoader(l *attachment.Loader) Option {
	return func(o *options) {
		if l != nil {
			o.loader = l
		}
	}
}

// WithTLSConfig overrides the TLS settings used for STARTTLS and implicit TLS.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) { o.tlsConfig = cfg }
}

// WithDialer replaces the TCP dialer.
func WithDialer(fn DialFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.dial = fn
		}
	}
}

// WithClock sets the time source for the Date header.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Client delivers envelopes over SMTP, one connection per Send.
type Client struct {
	cfg    email.SMTPConfig
	opts   *options
	signer *DKIMSigner
}

// New validates cfg and loads the DKIM key when signing is configured.
func New(cfg email.SMTPConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	security, _ := email.ParseSecurity(string(cfg.Security))
	cfg.Security = security
	if cfg.LocalName == "" {
		cfg.LocalName = "localhost"
	}

	o := &options{
		now:  time.Now,
		dial: (&net.Dialer{}).DialContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.loader == nil {
		o.loader = attachment.NewLoader()
	}

	c := &Client{cfg: cfg, opts: o}
	if cfg.DKIM.Enabled() {
		signer, err := NewDKIMSigner(cfg.DKIM)
		if err != nil {
			return nil, err
		}
		c.signer = signer
	}
	return c, nil
}

// NewFactory returns an email.ClientFactory that hands out a fresh client per
// send. Configuration errors surface here rather than on the first send.
func NewFactory(cfg email.SMTPConfig, opts ...Option) (email.ClientFactory, error) {
	base, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return func() (email.Client, error) {
		return &Client{cfg: base.cfg, opts: base.opts, signer: base.signer}, nil
	}, nil
}

// Send composes env and submits it to the relay.
func (c *Client) Send(ctx context.Context, env *email.Envelope) (email.Receipt, error) {
	if env == nil {
		return email.Receipt{}, errors.New("smtp: nil envelope")
	}
	rcpts := env.Recipients()
	if len(rcpts) == 0 {
		return email.Receipt{}, email.ErrNoRecipients
	}

	files, err := c.opts.loader.LoadAll(ctx, env.Attachments)
	if err != nil {
		return email.Receipt{}, fmt.Errorf("smtp: load attachments: %w", err)
	}

	messageID := c.messageID(env)
	raw, err := compose(env, files, messageID, c.opts.now())
	if err != nil {
		return email.Receipt{}, fmt.Errorf("smtp: %w", err)
	}
	raw, err = c.signer.Sign(raw)
	if err != nil {
		return email.Receipt{}, fmt.Errorf("smtp: %w", err)
	}

	to := make([]string, 0, len(rcpts))
	for _, r := range rcpts {
		to = append(to, r.Email)
	}

	client, stop, err := c.connect(ctx)
	if err != nil {
		return email.Receipt{}, err
	}
	defer stop()
	defer client.Close()

	if err := client.SendMail(env.From.Email, to, bytes.NewReader(raw)); err != nil {
		return email.Receipt{}, fmt.Errorf("smtp: submit: %w", err)
	}
	if err := client.Quit(); err != nil {
		return email.Receipt{}, fmt.Errorf("smtp: quit: %w", err)
	}

	return email.Receipt{MessageID: "<" + messageID + ">"}, nil
}

// connect dials, greets, secures and authenticates. Cancelling ctx closes the connection.
func (c *Client) connect(ctx context.Context) (*gosmtp.Client, func() bool, error) {
	conn, err := c.opts.dial(ctx, "tcp", c.cfg.Addr())
	if err != nil {
		return nil, nil, fmt.Errorf("smtp: dial %s: %w", c.cfg.Addr(), err)
	}
	if c.cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.cfg.Timeout))
	}
	if c.cfg.Security == email.SecuritySSL {
		conn = tls.Client(conn, c.tlsConfig())
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	client := gosmtp.NewClient(conn)
	fail := func(step string, err error) (*gosmtp.Client, func() bool, error) {
		stop()
		_ = client.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("smtp: %s: %w", step, ctxErr)
		}
		return nil, nil, fmt.Errorf("smtp: %s: %w", step, err)
	}

	if err := client.Hello(c.cfg.LocalName); err != nil {
		return fail("hello", err)
	}
	if c.cfg.Security == email.SecurityTLS {
		if err := client.StartTLS(c.tlsConfig()); err != nil {
			return fail("starttls", err)
		}
	}
	if c.cfg.Auth {
		if err := client.Auth(sasl.NewPlainClient("", c.cfg.Username, c.cfg.Password)); err != nil {
			return fail("auth", err)
		}
	}
	return client, stop, nil
}

func (c *Client) tlsConfig() *tls.Config {
	if c.opts.tlsConfig != nil {
		cfg := c.opts.tlsConfig.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = c.cfg.Hostname
		}
		return cfg
	}
	return &tls.Config{ServerName: c.cfg.Hostname, MinVersion: tls.VersionTLS12}
}

// messageID uses the sender's domain, falling back to the local name.
func (c *Client) messageID(env *email.Envelope) string {
	domain := c.cfg.LocalName
	if i := strings.LastIndex(env.From.Email, "@"); i >= 0 && i < len(env.From.Email)-1 {
		domain = env.From.Email[i+1:]
	}
	return uuid.NewString() + "@" + domain
}
