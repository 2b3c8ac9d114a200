// Package postmark is the Postmark API transport for the email package.
package postmark

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	pm "github.com/mrz1836/postmark"

	"github.com/dmitrymomot/mailkit/pkg/address"
	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/email/attachment"
)

// ErrAPI marks a non-zero Postmark error code in an otherwise successful response.
var ErrAPI = errors.New("email.postmark.api_error")

// Option configures the Postmark client.
type Option func(*options)

type options struct {
	loader     *attachment.Loader
	httpClient *http.Client
	baseURL    string
	trackLinks string
}

// WithAttachmentLoader sets the loader used to resolve attachment descriptors.
func WithAttachmentLoader(l *attachment.Loader) Option {
	return func(o *options) {
		if l != nil {
			o.loader = l
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimSuffix(u, "/") }
}

// WithTrackLinks sets the link tracking mode used for tracked messages
// (None, HtmlAndText, HtmlOnly, TextOnly). Default HtmlOnly.
func WithTrackLinks(mode string) Option {
	return func(o *options) { o.trackLinks = mode }
}

// Client delivers envelopes through the Postmark transactional API.
type Client struct {
	api  *pm.Client
	opts *options
}

// New validates both tokens. They are required even though only the server
// token is used for sending, so a misconfigured deployment fails at startup.
func New(cfg email.PostmarkConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{trackLinks: "HtmlOnly"}
	for _, opt := range opts {
		opt(o)
	}
	if o.loader == nil {
		o.loader = attachment.NewLoader()
	}

	api := pm.NewClient(cfg.ServerToken, cfg.AccountToken)
	if o.httpClient != nil {
		api.HTTPClient = o.httpClient
	}
	if o.baseURL != "" {
		api.BaseURL = o.baseURL
	}

	return &Client{api: api, opts: o}, nil
}

// MustNew panics on invalid configuration.
func MustNew(cfg email.PostmarkConfig, opts ...Option) *Client {
	c, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// NewFactory returns an email.ClientFactory backed by one API client. The
// Postmark client is stateless apart from its http.Client, so sharing it is safe.
func NewFactory(cfg email.PostmarkConfig, opts ...Option) (email.ClientFactory, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return func() (email.Client, error) { return c, nil }, nil
}

// Send maps env onto a Postmark email. Opens and HTML link clicks are tracked
// only when the message asked for tracking.
func (c *Client) Send(ctx context.Context, env *email.Envelope) (email.Receipt, error) {
	if env == nil {
		return email.Receipt{}, errors.New("postmark: nil envelope")
	}
	if len(env.Recipients()) == 0 {
		return email.Receipt{}, email.ErrNoRecipients
	}

	files, err := c.opts.loader.LoadAll(ctx, env.Attachments)
	if err != nil {
		return email.Receipt{}, fmt.Errorf("postmark: load attachments: %w", err)
	}

	msg := pm.Email{
		From:        env.From.String(),
		To:          joinAddresses(env.To),
		Cc:          joinAddresses(env.Cc),
		Bcc:         joinAddresses(env.Bcc),
		Subject:     env.Subject,
		Tag:         env.Campaign,
		HTMLBody:    env.HTML,
		TextBody:    env.Text,
		Attachments: toAttachments(files),
	}
	if !env.ReplyTo.IsZero() {
		msg.ReplyTo = env.ReplyTo.String()
	}
	if env.Track {
		msg.TrackOpens = true
		msg.TrackLinks = c.opts.trackLinks
	}

	resp, err := c.api.SendEmail(ctx, msg)
	if err != nil {
		return email.Receipt{}, fmt.Errorf("postmark: %w", err)
	}
	if resp.ErrorCode > 0 {
		return email.Receipt{}, fmt.Errorf("%w: %d - %s", ErrAPI, resp.ErrorCode, resp.Message)
	}
	return email.Receipt{MessageID: resp.MessageID}, nil
}

func joinAddresses(list []address.Address) string {
	parts := make([]string, 0, len(list))
	for _, a := range list {
		if a.Email == "" {
			continue
		}
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

func toAttachments(files []*attachment.File) []pm.Attachment {
	if len(files) == 0 {
		return nil
	}
	out := make([]pm.Attachment, 0, len(files))
	for _, f := range files {
		out = append(out, pm.Attachment{
			Name:        f.Name,
			Content:     base64.StdEncoding.EncodeToString(f.Data),
			ContentType: f.ContentType,
		})
	}
	return out
}
