package email

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailkit/pkg/address"
	"github.com/dmitrymomot/mailkit/pkg/logger"
)

// QueueItem is one persisted single-recipient delivery.
type QueueItem struct {
	ID             uuid.UUID       `json:"id"`
	To             address.Address `json:"to"`
	From           address.Address `json:"from"`
	Subject        string          `json:"subject"`
	HTML           string          `json:"html"`
	Text           string          `json:"text"`
	Campaign       string          `json:"campaign"`
	Attachments    []string        `json:"attachments,omitempty"`
	Processed      bool            `json:"processed"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
	ProcessingDate *time.Time      `json:"processing_date,omitempty"` // not before
	QueueGroupID   string          `json:"queue_group_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Due reports whether the item is pending and its processing date has passed.
func (q *QueueItem) Due(now time.Time) bool {
	if q.Processed {
		return false
	}
	return q.ProcessingDate == nil || !q.ProcessingDate.After(now)
}

// Clone returns a deep copy.
func (q *QueueItem) Clone() *QueueItem {
	c := *q
	c.Attachments = slices.Clone(q.Attachments)
	if q.ProcessedAt != nil {
		t := *q.ProcessedAt
		c.ProcessedAt = &t
	}
	if q.ProcessingDate != nil {
		t := *q.ProcessingDate
		c.ProcessingDate = &t
	}
	return &c
}

// QueueRepository persists queue items. CreateQueueItem assigns ID when it is nil.
type QueueRepository interface {
	CreateQueueItem(ctx context.Context, item *QueueItem) error
	MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// DueLister returns pending items whose processing date has passed, oldest first.
type DueLister interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*QueueItem, error)
}

// Claimer reserves a queue item for one worker. Claim returns false when the item
// is processed or already reserved by someone else. Release drops a reservation so
// the item can be retried.
type Claimer interface {
	Claim(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error)
	Release(ctx context.Context, id uuid.UUID) error
}

// Outcome is the result of processing a queue item.
type Outcome int

const (
	// OutcomeSkipped means nothing was sent: the item was processed already or claimed elsewhere.
	OutcomeSkipped Outcome = iota
	OutcomeSent
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// ProcessOption configures a single Process call.
type ProcessOption func(*processOptions)

type processOptions struct {
	onComplete func(*QueueItem)
	onSuccess  func(*QueueItem)
	onFailure  func(*QueueItem)
}

// WithOnComplete runs after a delivery attempt, successful or not.
func WithOnComplete(fn func(*QueueItem)) ProcessOption {
	return func(o *processOptions) { o.onComplete = fn }
}

// WithOnSuccess runs after the item was delivered and marked processed.
func WithOnSuccess(fn func(*QueueItem)) ProcessOption {
	return func(o *processOptions) { o.onSuccess = fn }
}

// WithOnFailure runs when delivery failed. The item stays pending.
func WithOnFailure(fn func(*QueueItem)) ProcessOption {
	return func(o *processOptions) { o.onFailure = fn }
}

// Process delivers a queue item at most once.
//
// Processed items are skipped without callbacks. Otherwise the item is claimed
// through the Claimer; a lost claim is also a skip. On success the item is marked
// processed and persisted. On failure the claim is released so a later pass can
// retry. A panic while sending is reported as OutcomeFailed. A panicking
// callback is logged and leaves the outcome unchanged.
func (s *Sender) Process(ctx context.Context, item *QueueItem, opts ...ProcessOption) Outcome {
	if item == nil || item.Processed {
		return OutcomeSkipped
	}

	o := &processOptions{}
	for _, opt := range opts {
		opt(o)
	}

	log := s.logger.With(
		logger.QueueItemID(item.ID),
		logger.QueueGroupID(item.QueueGroupID),
		logger.Campaign(item.Campaign))

	if s.claimer != nil {
		claimed, err := s.claimer.Claim(ctx, item.ID, s.claimTTL)
		if err != nil {
			log.ErrorContext(ctx, "could not claim queue item", logger.Error(err))
			return OutcomeSkipped
		}
		if !claimed {
			log.DebugContext(ctx, "queue item claimed elsewhere, skipping")
			return OutcomeSkipped
		}
	}

	ok, panicked := s.sendItem(ctx, log, item)
	if !ok {
		s.release(ctx, log, item)
		s.callback(ctx, log, "failure", o.onFailure, item)
		if !panicked {
			s.callback(ctx, log, "complete", o.onComplete, item)
		}
		return OutcomeFailed
	}

	now := s.now()
	item.Processed = true
	item.ProcessedAt = &now
	if s.queue != nil {
		if err := s.queue.MarkProcessed(ctx, item.ID, now); err != nil {
			log.ErrorContext(ctx, "email sent but queue item not marked processed", logger.Error(err))
		}
	}

	s.callback(ctx, log, "success", o.onSuccess, item)
	s.callback(ctx, log, "complete", o.onComplete, item)
	return OutcomeSent
}

// sendItem materialises and sends the item. A panic here is a delivery failure.
func (s *Sender) sendItem(ctx context.Context, log *slog.Logger, item *QueueItem) (ok, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "queue item processing panicked", slog.Any("panic", r))
			ok, panicked = false, true
		}
	}()
	return s.Send(ctx, s.messageFromItem(item)), false
}

// callback runs a caller hook. A panicking hook is logged and does not change the outcome.
func (s *Sender) callback(ctx context.Context, log *slog.Logger, name string, fn func(*QueueItem), item *QueueItem) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "queue item callback panicked",
				slog.String("callback", name),
				slog.Any("panic", r))
		}
	}()
	fn(item)
}

func (s *Sender) release(ctx context.Context, log *slog.Logger, item *QueueItem) {
	if s.claimer == nil {
		return
	}
	if err := s.claimer.Release(ctx, item.ID); err != nil {
		log.ErrorContext(ctx, "could not release queue item", logger.Error(err))
	}
}

// messageFromItem rebuilds a one-recipient message from stored fields.
func (s *Sender) messageFromItem(item *QueueItem) *Message {
	msg := s.NewMessage()
	if !item.To.IsZero() {
		msg.to = []address.Address{item.To}
	}
	msg.from = item.From
	msg.subject = item.Subject
	msg.html.set(item.HTML)
	msg.text.set(item.Text)
	msg.campaign = item.Campaign
	msg.queueID = item.QueueGroupID
	msg.attachments = slices.Clone(item.Attachments)
	return msg
}
