package email

import (
	"log/slog"
	"time"
)

// SenderOption configures a Sender.
type SenderOption func(*senderOptions)

type senderOptions struct {
	defaultFrom any
	queue       QueueRepository
	logs        LogRepository
	claimer     Claimer
	renderer    Renderer
	logger      *slog.Logger
	claimTTL    time.Duration
	now         func() time.Time
}

// WithDefaultFrom sets the sender used when a message has none.
// Accepts anything address.Normalize accepts.
func WithDefaultFrom(from any) SenderOption {
	return func(o *senderOptions) {
		if from != nil {
			o.defaultFrom = from
		}
	}
}

// WithQueueRepository enables Queue and persists processed queue items.
// When the repository also implements Claimer it is used for claiming.
func WithQueueRepository(repo QueueRepository) SenderOption {
	return func(o *senderOptions) {
		o.queue = repo
	}
}

// WithLogRepository enables email log records for every delivery attempt.
func WithLogRepository(repo LogRepository) SenderOption {
	return func(o *senderOptions) {
		o.logs = repo
	}
}

// WithClaimer sets the claim backend used by Process, for example a Redis lock.
func WithClaimer(c Claimer) SenderOption {
	return func(o *senderOptions) {
		o.claimer = c
	}
}

// WithRenderer sets the template renderer used for lazy HTML bodies.
func WithRenderer(r Renderer) SenderOption {
	return func(o *senderOptions) {
		o.renderer = r
	}
}

func WithLogger(l *slog.Logger) SenderOption {
	return func(o *senderOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClaimTTL sets how long a claimed queue item stays reserved.
func WithClaimTTL(d time.Duration) SenderOption {
	return func(o *senderOptions) {
		if d > 0 {
			o.claimTTL = d
		}
	}
}

// WithClock overrides time.Now. Used in tests.
func WithClock(now func() time.Time) SenderOption {
	return func(o *senderOptions) {
		if now != nil {
			o.now = now
		}
	}
}
