package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dmitrymomot/mailkit/pkg/address"
	"github.com/dmitrymomot/mailkit/pkg/logger"
)

// Client delivers one fully composed email.
type Client interface {
	Send(ctx context.Context, env *Envelope) (Receipt, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, env *Envelope) (Receipt, error)

func (f ClientFunc) Send(ctx context.Context, env *Envelope) (Receipt, error) {
	return f(ctx, env)
}

// ClientFactory builds a transport client. It is called once per send, so
// clients never share connection state between messages.
type ClientFactory func() (Client, error)

// Envelope is what a transport client receives: resolved addresses and rendered bodies.
type Envelope struct {
	From        address.Address
	ReplyTo     address.Address
	To          []address.Address
	Cc          []address.Address
	Bcc         []address.Address
	Subject     string
	HTML        string
	Text        string
	Attachments []string
	Campaign    string
	Track       bool
	IsHTML      bool
}

// Recipients returns to, cc and bcc in that order.
func (e *Envelope) Recipients() []address.Address {
	return slices.Concat(e.To, e.Cc, e.Bcc)
}

// Receipt is returned by a transport client after a successful delivery.
type Receipt struct {
	MessageID string
}

// Sender sends messages through a transport client and queues them for later delivery.
type Sender struct {
	factory     ClientFactory
	defaultFrom address.Address
	queue       QueueRepository
	claimer     Claimer
	tracker     *Tracker
	renderer    Renderer
	logger      *slog.Logger
	claimTTL    time.Duration
	now         func() time.Time
}

// NewSender creates a sender. The factory is required.
func NewSender(factory ClientFactory, opts ...SenderOption) (*Sender, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: client factory is required", ErrInvalidConfig)
	}

	options := &senderOptions{
		defaultFrom: DefaultFromAddress,
		claimTTL:    5 * time.Minute,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	from, err := address.Normalize(options.defaultFrom)
	if err != nil || from.IsZero() {
		return nil, fmt.Errorf("%w: default from %v is invalid", ErrInvalidConfig, options.defaultFrom)
	}

	s := &Sender{
		factory:     factory,
		defaultFrom: from,
		queue:       options.queue,
		claimer:     options.claimer,
		renderer:    options.renderer,
		logger:      options.logger.With(logger.Component("email.sender")),
		claimTTL:    options.claimTTL,
		now:         options.now,
	}

	if s.claimer == nil {
		if c, ok := options.queue.(Claimer); ok {
			s.claimer = c
		}
	}
	if options.logs != nil {
		s.tracker = NewTracker(options.logs, WithTrackerLogger(options.logger), WithTrackerClock(options.now))
	}

	return s, nil
}

// MustNewSender is like NewSender but panics on error.
func MustNewSender(factory ClientFactory, opts ...SenderOption) *Sender {
	s, err := NewSender(factory, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultFrom returns the sender used when a message has no from address.
func (s *Sender) DefaultFrom() address.Address {
	return s.defaultFrom
}

// NewMessage returns a message bound to this sender.
func (s *Sender) NewMessage() *Message {
	m := NewMessage()
	m.sender = s
	return m
}

// Send delivers msg synchronously and reports whether it was accepted by the transport.
// It never returns an error or panics: failures are logged and recorded by the tracker.
func (s *Sender) Send(ctx context.Context, msg *Message) (ok bool) {
	if msg == nil {
		return false
	}

	start := s.now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "email send panicked",
				logger.Campaign(msg.Campaign()),
				slog.Any("panic", r))
			ok = false
		}
	}()

	env, err := s.compose(ctx, msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "could not compose email",
			logger.Campaign(msg.Campaign()),
			logger.Template(msg.Template()),
			logger.Error(err))
		return false
	}

	receipt, err := s.deliver(ctx, env)
	s.tracker.Track(ctx, msg, env, receipt, err)

	if err != nil {
		s.logger.ErrorContext(ctx, "could not send email",
			logger.Campaign(env.Campaign),
			logger.Recipients(len(env.Recipients())),
			logger.Duration(s.now().Sub(start)),
			logger.Error(err))
		return false
	}

	s.logger.DebugContext(ctx, "email sent",
		logger.Campaign(env.Campaign),
		logger.MessageID(receipt.MessageID),
		logger.Recipients(len(env.Recipients())),
		logger.Duration(s.now().Sub(start)))
	return true
}

func (s *Sender) compose(ctx context.Context, msg *Message) (*Envelope, error) {
	env := &Envelope{
		From:        msg.From(),
		ReplyTo:     msg.ReplyTo(),
		To:          msg.To(),
		Cc:          msg.Cc(),
		Bcc:         msg.Bcc(),
		Subject:     msg.Subject(),
		Attachments: msg.Attachments(),
		Campaign:    msg.Campaign(),
		Track:       msg.TrackEnabled(),
		IsHTML:      true,
	}
	if env.From.IsZero() {
		env.From = s.defaultFrom
	}
	if len(env.Recipients()) == 0 {
		return nil, ErrNoRecipients
	}

	var err error
	if env.HTML, err = msg.HTML(ctx); err != nil {
		return nil, err
	}
	if env.Text, err = msg.Text(ctx); err != nil {
		return nil, err
	}
	return env, nil
}

// deliver builds a fresh client and hands it the envelope. Client panics become errors.
func (s *Sender) deliver(ctx context.Context, env *Envelope) (receipt Receipt, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrTransportFailure, r)
		}
	}()

	client, err := s.factory()
	if err != nil {
		return Receipt{}, errors.Join(ErrTransportFailure, err)
	}
	if client == nil {
		return Receipt{}, fmt.Errorf("%w: client factory returned nil", ErrTransportFailure)
	}

	receipt, err = client.Send(ctx, env)
	if err != nil {
		return receipt, errors.Join(ErrTransportFailure, err)
	}
	return receipt, nil
}
