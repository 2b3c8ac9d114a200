package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailkit/pkg/logger"
)

// QueueOption configures a Queue call.
type QueueOption func(*queueOptions)

type queueOptions struct {
	notBefore *time.Time
	group     string
}

// WithNotBefore delays processing of every created item until t.
func WithNotBefore(t time.Time) QueueOption {
	return func(o *queueOptions) {
		if !t.IsZero() {
			o.notBefore = &t
		}
	}
}

// WithQueueGroup sets the queue group id shared by the created items.
func WithQueueGroup(id string) QueueOption {
	return func(o *queueOptions) {
		o.group = id
	}
}

// Queue stores one queue item per "to" recipient, in order. Cc and bcc are not queued.
//
// The group id is taken from WithQueueGroup, then the message QueueID, then generated.
// A failing item does not stop the others; every failure is returned joined with
// ErrQueueFailed. A message without recipients is a no-op.
func (s *Sender) Queue(ctx context.Context, msg *Message, opts ...QueueOption) error {
	if s.queue == nil {
		return ErrQueueNotConfigured
	}
	if msg == nil {
		return fmt.Errorf("%w: nil message", ErrInvalidInput)
	}

	o := &queueOptions{}
	for _, opt := range opts {
		opt(o)
	}

	group := o.group
	if group == "" {
		group = msg.QueueID()
	}
	if group == "" {
		group = uuid.NewString()
	}

	recipients := msg.To()
	if len(recipients) == 0 {
		return nil
	}

	html, err := msg.HTML(ctx)
	if err != nil {
		return errors.Join(ErrQueueFailed, err)
	}
	text, err := msg.Text(ctx)
	if err != nil {
		return errors.Join(ErrQueueFailed, err)
	}

	from := msg.From()
	if from.IsZero() {
		from = s.defaultFrom
	}

	proto := QueueItem{
		From:           from,
		Subject:        msg.Subject(),
		HTML:           html,
		Text:           text,
		Campaign:       msg.Campaign(),
		Attachments:    msg.Attachments(),
		ProcessingDate: o.notBefore,
		QueueGroupID:   group,
	}

	errs := []error{ErrQueueFailed}
	for i, rcpt := range recipients {
		item := proto.Clone()
		item.To = rcpt
		item.CreatedAt = s.now()

		if err := s.queue.CreateQueueItem(ctx, item); err != nil {
			s.logger.ErrorContext(ctx, "could not queue email",
				logger.Campaign(item.Campaign),
				logger.QueueGroupID(group),
				logger.Recipient(rcpt.Email),
				logger.Error(err))
			errs = append(errs, fmt.Errorf("recipient %d <%s>: %w", i, rcpt.Email, err))
		}
	}
	if len(errs) > 1 {
		return errors.Join(errs...)
	}

	s.logger.DebugContext(ctx, "email queued",
		logger.Campaign(proto.Campaign),
		logger.QueueGroupID(group),
		logger.Recipients(len(recipients)))
	return nil
}
