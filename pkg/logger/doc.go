// Package logger builds slog loggers for the mail pipeline.
//
// New returns a *slog.Logger configured by Option values. Its handler is
// wrapped in a LogHandlerDecorator that runs every registered ContextExtractor
// on each record, so values carried by the context (such as the email origin)
// show up in every log line without being passed explicitly.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "mailqueue"),
//		logger.WithContextExtractors(email.OriginExtractor),
//	)
//
// Services that load their settings from the environment or a config file use
// NewFromConfig, which applies the environment preset first and then the
// LOG_LEVEL, LOG_FORMAT and LOG_ADD_SOURCE overrides.
//
// The helpers in attr.go (Campaign, Recipient, QueueItemID, MessageID and so
// on) keep attribute keys consistent across packages. Error and Errors return
// an empty attribute for nil errors, which slog drops:
//
//	log.Info("pass finished", logger.Error(err))
package logger
