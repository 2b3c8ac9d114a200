package email

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailkit/pkg/logger"
)

const (
	LogTypeEmail  = "email"
	LogActionSend = "send"
)

// SendStatus is the outcome recorded in a Log.
type SendStatus string

const (
	SendStatusSuccess SendStatus = "success"
	SendStatusFailure SendStatus = "failure"
)

// Log is an append-only record of one delivery attempt to one recipient.
type Log struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Action     string     `json:"action"`
	MessageID  string     `json:"message_id,omitempty"`
	Campaign   string     `json:"campaign"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Subject    string     `json:"subject"`
	SendStatus SendStatus `json:"send_status"`
	SendError  string     `json:"send_error,omitempty"`
	SendTS     time.Time  `json:"send_ts"`
	IP         string     `json:"ip,omitempty"`
	SessionID  string     `json:"session_id,omitempty"`
}

// LogRepository stores email logs. Implementations assign ID when it is nil.
type LogRepository interface {
	CreateLog(ctx context.Context, log *Log) error
}

// LogRepositoryFunc adapts a function to LogRepository.
type LogRepositoryFunc func(ctx context.Context, log *Log) error

func (f LogRepositoryFunc) CreateLog(ctx context.Context, log *Log) error {
	return f(ctx, log)
}

// Tracker writes one Log per recipient after every delivery attempt.
type Tracker struct {
	repo   LogRepository
	logger *slog.Logger
	now    func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

func WithTrackerLogger(l *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTracker(repo LogRepository, opts ...TrackerOption) *Tracker {
	t := &Tracker{repo: repo, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(logger.Component("email.tracker"))
	return t
}

// Track records the attempt for every recipient of env when msg has logging enabled.
// Client IP and session id come from the Origin stored in ctx.
// Repository errors are logged and dropped.
func (t *Tracker) Track(ctx context.Context, msg *Message, env *Envelope, receipt Receipt, sendErr error) {
	if t == nil || t.repo == nil || msg == nil || env == nil || !msg.LogEnabled() {
		return
	}

	origin, _ := OriginFromContext(ctx)
	status, errText := SendStatusSuccess, ""
	if sendErr != nil {
		status, errText = SendStatusFailure, sendErr.Error()
	}
	ts := t.now()

	for _, rcpt := range env.Recipients() {
		rec := &Log{
			Type:       LogTypeEmail,
			Action:     LogActionSend,
			MessageID:  receipt.MessageID,
			Campaign:   env.Campaign,
			From:       env.From.String(),
			To:         rcpt.String(),
			Subject:    env.Subject,
			SendStatus: status,
			SendError:  errText,
			SendTS:     ts,
			IP:         origin.IP,
			SessionID:  origin.SessionID,
		}
		if err := t.repo.CreateLog(ctx, rec); err != nil {
			t.logger.ErrorContext(ctx, "could not store email log",
				logger.Campaign(env.Campaign),
				logger.Recipient(rec.To),
				logger.Error(err))
		}
	}
}
