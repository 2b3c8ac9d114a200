// Package email builds, sends and queues transactional emails.
//
// The package is built around three pieces:
//   - Message holds one email: recipients, subject, bodies, attachments and flags.
//   - Sender delivers a Message through a transport Client, or fans it out into
//     one QueueItem per recipient for asynchronous delivery.
//   - Worker polls due queue items and processes them through the Sender.
//
// Transports live in subpackages (smtp, postmark) and DevClient writes emails to
// disk for local development. Storage is pluggable through QueueRepository,
// DueLister, Claimer and LogRepository; see the pgstore, mongostore and
// redislock subpackages, or MemoryStorage for tests.
//
// # Usage
//
//	import "github.com/dmitrymomot/mailkit/pkg/email"
//
//	sender, err := email.NewSender(
//	    email.NewDevClientFactory("./tmp/emails"),
//	    email.WithDefaultFrom(`"Acme" <noreply@acme.test>`),
//	    email.WithQueueRepository(store),
//	    email.WithLogRepository(store),
//	    email.WithRenderer(registry),
//	)
//	if err != nil {
//	    return err
//	}
//
//	msg := sender.NewMessage()
//	_ = msg.SetTo([]string{"Jane <jane@example.com>", "bob@example.com"})
//	msg.SetSubject("Welcome!")
//	msg.SetTemplate("welcome")
//	msg.SetTemplateData(map[string]any{"name": "Jane"})
//
//	ok := msg.Send(ctx)                                   // immediately
//	err = msg.Queue(ctx, email.WithNotBefore(tomorrow))   // or later, per recipient
//
// # Bodies
//
// HTML is rendered lazily from the template when no HTML body was set, and the
// plain-text alternative is derived from the HTML with htmltext.Convert when no
// text body was set. Both are computed once and kept until the template, its
// data or the HTML body changes.
//
// # Delivery guarantees
//
// Send never returns an error: failures are logged and recorded as email logs
// (when the message has logging enabled) and reported as false.
//
// Process delivers a queue item at most once. The processed flag alone is not
// enough with several workers, so processing first claims the item through a
// Claimer (a conditional update in Postgres, SET NX in Redis). Failed items are
// released and stay pending for a later pass.
//
// # Error Handling
//
// Sentinel errors can be checked with errors.Is:
//   - ErrInvalidInput: a setter or parser got a value of the wrong shape
//   - ErrTransportFailure: the transport could not deliver
//   - ErrQueueFailed: one or more queue items could not be stored
//   - ErrInvalidConfig: configuration validation failed
package email
