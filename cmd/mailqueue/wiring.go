package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/email/attachment"
	"github.com/dmitrymomot/mailkit/pkg/email/postmark"
	"github.com/dmitrymomot/mailkit/pkg/email/smtp"
)

// newAttachmentLoader serves local paths under cfg.Root and s3:// descriptors
// when an S3 region is configured. S3 objects are cached in memory.
func newAttachmentLoader(ctx context.Context, cfg attachmentsConfig) (*attachment.Loader, error) {
	opts := []attachment.Option{attachment.WithLocal(attachment.NewLocalSource(cfg.Root))}
	if cfg.S3.Region != "" {
		src, err := attachment.NewS3Source(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("s3 attachments: %w", err)
		}
		opts = append(opts, attachment.WithS3(attachment.NewCachedSource(src, cfg.CacheSize)))
	}
	return attachment.NewLoader(opts...), nil
}

// newClientFactory builds the transport selected by cfg.Transport.
func newClientFactory(cfg email.Config, loader *attachment.Loader) (email.ClientFactory, error) {
	switch cfg.Transport {
	case email.TransportSMTP:
		return smtp.NewFactory(cfg.SMTP, smtp.WithAttachmentLoader(loader))
	case email.TransportPostmark:
		return postmark.NewFactory(cfg.Postmark, postmark.WithAttachmentLoader(loader))
	case email.TransportDev:
		return email.NewDevClientFactory(cfg.DevDir), nil
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", email.ErrInvalidConfig, cfg.Transport)
	}
}

// storage is the set of repositories the sender and worker run on.
type storage struct {
	queue   email.QueueRepository
	lister  email.DueLister
	claimer email.Claimer
	logs    email.LogRepository

	// inMemory is set when the queue does not outlive the process.
	inMemory bool
}

func memoryStorage(log *slog.Logger) storage {
	log.Warn("postgres not configured, queue is kept in memory")
	ms := email.NewMemoryStorage()
	return storage{queue: ms, lister: ms, claimer: ms, logs: ms, inMemory: true}
}
