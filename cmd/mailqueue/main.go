// Command mailqueue delivers queued emails.
//
// It polls the queue store for due items, sends them through the configured
// transport and records every attempt in the log store. Postgres holds the
// queue; Redis, when configured, guards claims across replicas; MongoDB, when
// configured, receives the delivery logs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/email/mongostore"
	"github.com/dmitrymomot/mailkit/pkg/email/pgstore"
	"github.com/dmitrymomot/mailkit/pkg/email/redislock"
	"github.com/dmitrymomot/mailkit/pkg/email/templates"
	"github.com/dmitrymomot/mailkit/pkg/httpserver"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mongo"
	"github.com/dmitrymomot/mailkit/pkg/pg"
	"github.com/dmitrymomot/mailkit/pkg/redis"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML or TOML config file")
		once       = flag.Bool("once", false, "process due items once and exit")
		testTo     = flag.String("test-to", "", "queue a test email to this address and exit; sent at once when the queue is in memory")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *once, *testTo); err != nil {
		fmt.Fprintf(os.Stderr, "mailqueue: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, once bool, testTo string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewFromConfig(cfg.Env, cfg.Service, cfg.Log,
		logger.WithContextExtractors(email.OriginExtractor),
	)
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	var checks []httpserver.Check

	var store storage
	if cfg.Postgres.ConnectionString == "" {
		store = memoryStorage(log)
	} else {
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pgstore.Migrate(ctx, pool, log); err != nil {
			return err
		}
		if cfg.Postgres.MigrationsPath != "" {
			if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
				return err
			}
		}

		pgs := pgstore.New(pool)
		store = storage{queue: pgs, lister: pgs, claimer: pgs, logs: pgs}
		checks = append(checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
	}

	if cfg.Redis.ConnectionURL != "" {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		store.claimer = redislock.New(client,
			redislock.WithPrefix(cfg.Redis.KeyPrefix),
			redislock.WithNext(store.claimer))
		checks = append(checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	}

	if cfg.Mongo.ConnectionURL != "" {
		db, err := mongo.NewWithDatabase(ctx, cfg.Mongo, "")
		if err != nil {
			return err
		}
		defer func() { _ = db.Client().Disconnect(context.WithoutCancel(ctx)) }()

		logs := mongostore.NewFromDatabase(db)
		if err := logs.EnsureIndexes(ctx); err != nil {
			return err
		}
		store.logs = logs
		checks = append(checks, httpserver.Check{Name: "mongo", Probe: mongo.Healthcheck(db.Client())})
	}

	loader, err := newAttachmentLoader(ctx, cfg.Attachments)
	if err != nil {
		return err
	}
	factory, err := newClientFactory(cfg.Email, loader)
	if err != nil {
		return err
	}

	sender, err := email.NewSender(factory,
		email.WithDefaultFrom(cfg.Email.DefaultFrom),
		email.WithQueueRepository(store.queue),
		email.WithClaimer(store.claimer),
		email.WithLogRepository(store.logs),
		email.WithRenderer(templates.NewRegistry()),
		email.WithClaimTTL(cfg.Email.Queue.ClaimTTL),
		email.WithLogger(log),
	)
	if err != nil {
		return err
	}

	worker, err := email.NewWorker(sender, store.lister,
		email.WithPollInterval(cfg.Email.Queue.PollInterval),
		email.WithBatchSize(cfg.Email.Queue.BatchSize),
		email.WithMaxConcurrent(cfg.Email.Queue.MaxConcurrent),
		email.WithItemTimeout(cfg.Email.Queue.ClaimTTL),
		email.WithWorkerLogger(log),
	)
	if err != nil {
		return err
	}

	if testTo != "" {
		return sendTestEmail(ctx, log, sender, worker, store.inMemory, testTo)
	}

	if once {
		report, err := worker.ProcessDue(ctx)
		log.InfoContext(ctx, "queue pass finished",
			slog.Int("listed", report.Listed),
			slog.Int("sent", report.Sent),
			slog.Int("failed", report.Failed),
			slog.Int("skipped", report.Skipped))
		return err
	}

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	handler := httpserver.OpsRouter(log, func() any { return worker.Stats() }, checks...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(worker.Run(ctx))
	g.Go(func() error { return srv.Run(ctx, handler) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("mailqueue stopped")
	return nil
}

var errTestEmailNotSent = errors.New("mailqueue: test email was not sent")

// sendTestEmail queues a test email. An in-memory queue is lost on exit, so in
// that case the email is delivered by a single worker pass before returning.
func sendTestEmail(ctx context.Context, log *slog.Logger, sender *email.Sender, worker *email.Worker, inMemory bool, to string) error {
	if err := queueTestEmail(ctx, sender, to); err != nil {
		return err
	}
	if !inMemory {
		return nil
	}

	log.WarnContext(ctx, "queue is kept in memory, delivering the test email now")
	report, err := worker.ProcessDue(ctx)
	if err != nil {
		return err
	}
	if report.Sent == 0 {
		return errTestEmailNotSent
	}
	return nil
}

// queueTestEmail queues one message rendered with the generic template.
func queueTestEmail(ctx context.Context, sender *email.Sender, to string) error {
	msg := sender.NewMessage()
	if err := msg.SetTo(to); err != nil {
		return err
	}
	msg.SetSubject("mailqueue test")
	msg.SetTemplate(templates.GenericIdent)
	msg.SetTemplateData(map[string]any{
		"title":   "It works",
		"content": fmt.Sprintf("This message was queued at %s.", time.Now().UTC().Format(time.RFC1123)),
	})
	return msg.Queue(ctx)
}
