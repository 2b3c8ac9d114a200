package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailkit/pkg/logger"
)

// Report counts the outcomes of one worker pass.
type Report struct {
	Listed  int
	Sent    int
	Failed  int
	Skipped int
}

// Stats are the totals of every pass since the worker was created.
type Stats struct {
	WorkerID string    `json:"worker_id"`
	Passes   int64     `json:"passes"`
	Sent     int64     `json:"sent"`
	Failed   int64     `json:"failed"`
	Skipped  int64     `json:"skipped"`
	LastPass time.Time `json:"last_pass,omitzero"`
}

func (r *Report) add(o Outcome) {
	switch o {
	case OutcomeSent:
		r.Sent++
	case OutcomeFailed:
		r.Failed++
	default:
		r.Skipped++
	}
}

// Worker polls for due queue items and processes them through a Sender.
// Failed items stay pending and are picked up again on a later pass.
type Worker struct {
	sender   *Sender
	lister   DueLister
	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	stopMu   sync.Mutex

	pollInterval time.Duration
	batchSize    int
	itemTimeout  time.Duration
	logger       *slog.Logger

	cancel   context.CancelFunc
	stopping atomic.Bool
	running  atomic.Bool

	statsMu sync.Mutex
	stats   Stats
}

// NewWorker creates a worker. Both sender and lister are required.
func NewWorker(sender *Sender, lister DueLister, opts ...WorkerOption) (*Worker, error) {
	if sender == nil {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidConfig)
	}
	if lister == nil {
		return nil, fmt.Errorf("%w: due lister is required", ErrInvalidConfig)
	}

	options := &workerOptions{
		pollInterval:  10 * time.Second,
		batchSize:     50,
		maxConcurrent: 4,
		itemTimeout:   5 * time.Minute,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	id := uuid.New()
	return &Worker{
		stats:        Stats{WorkerID: id.String()},
		sender:       sender,
		lister:       lister,
		workerID:     id,
		sem:          make(chan struct{}, options.maxConcurrent),
		pollInterval: options.pollInterval,
		batchSize:    options.batchSize,
		itemTimeout:  options.itemTimeout,
		logger: options.logger.With(
			logger.Component("email.worker"),
			slog.String("worker_id", id.String())),
	}, nil
}

// ProcessDue runs one pass: it lists due items and processes them concurrently,
// bounded by the worker's concurrency limit. Items keep processing after ctx is
// cancelled so a shutdown never cuts a send in half; no new items are started.
func (w *Worker) ProcessDue(ctx context.Context) (Report, error) {
	items, err := w.lister.ListDue(ctx, w.sender.now(), w.batchSize)
	if err != nil {
		return Report{}, errors.Join(ErrListDueFailed, err)
	}

	report := Report{Listed: len(items)}
	defer func() { w.record(report) }()
	if len(items) == 0 {
		return report, nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

dispatch:
	for _, item := range items {
		select {
		case w.sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}

		wg.Add(1)
		go func(item *QueueItem) {
			defer wg.Done()
			defer func() { <-w.sem }()

			itemCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.itemTimeout)
			defer cancel()

			outcome := w.sender.Process(itemCtx, item)

			mu.Lock()
			report.add(outcome)
			mu.Unlock()
		}(item)
	}
	wg.Wait()

	w.logger.DebugContext(ctx, "queue pass finished",
		slog.Int("listed", report.Listed),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped))

	return report, ctx.Err()
}

func (w *Worker) record(r Report) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.Passes++
	w.stats.Sent += int64(r.Sent)
	w.stats.Failed += int64(r.Failed)
	w.stats.Skipped += int64(r.Skipped)
	w.stats.LastPass = w.sender.now()
}

// Stats returns a snapshot of the worker totals.
func (w *Worker) Stats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}

// Start begins polling in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return ErrWorkerAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.stopping.Store(false)
	w.wg.Add(1)
	w.mu.Unlock()

	go w.run(runCtx)

	w.logger.Info("email worker started",
		slog.Duration("poll_interval", w.pollInterval),
		slog.Int("batch_size", w.batchSize),
		slog.Int("max_concurrent", cap(w.sem)))
	return nil
}

// Stop cancels polling and waits for the current pass to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}

	w.stopMu.Lock()
	w.stopping.Store(true)
	w.stopMu.Unlock()

	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()

	w.logger.Info("email worker stopping, waiting for in-flight sends")
	w.wg.Wait()
	w.logger.Info("email worker stopped")
	return nil
}

// Run starts the worker and returns a function suitable for errgroup.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick starts a pass unless one is still running.
func (w *Worker) tick(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		w.logger.Debug("previous queue pass still running, skipping tick")
		return
	}

	w.stopMu.Lock()
	if w.stopping.Load() {
		w.stopMu.Unlock()
		w.running.Store(false)
		return
	}
	w.wg.Add(1)
	w.stopMu.Unlock()

	go func() {
		defer w.wg.Done()
		defer w.running.Store(false)

		if _, err := w.ProcessDue(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("queue pass failed", logger.Error(err))
		}
	}()
}
