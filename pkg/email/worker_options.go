package email

import (
	"log/slog"
	"time"
)

// WorkerOption configures a Worker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pollInterval  time.Duration
	batchSize     int
	maxConcurrent int
	itemTimeout   time.Duration
	logger        *slog.Logger
}

// WithWorkerConfig applies every non-zero field of cfg.
func WithWorkerConfig(cfg WorkerConfig) WorkerOption {
	return func(o *workerOptions) {
		WithPollInterval(cfg.PollInterval)(o)
		WithBatchSize(cfg.BatchSize)(o)
		WithMaxConcurrent(cfg.MaxConcurrent)(o)
		WithItemTimeout(cfg.ClaimTTL)(o)
	}
}

// WithPollInterval sets how often the worker looks for due items.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithBatchSize limits how many items one pass lists.
func WithBatchSize(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithMaxConcurrent sets how many items are processed at the same time.
func WithMaxConcurrent(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithItemTimeout bounds the time spent on one item. Keep it at or below the claim TTL.
func WithItemTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.itemTimeout = d
		}
	}
}

func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
