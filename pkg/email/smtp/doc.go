// Package smtp is the SMTP transport for the email package.
//
// Each Send dials the relay, optionally upgrades with STARTTLS (security TLS) or
// starts on implicit TLS (security SSL), authenticates with SASL PLAIN when auth
// is on, and submits a MIME message built with go-message. The message carries
// a generated Message-ID, which is returned in the receipt, and is DKIM-signed
// when the DKIM settings are complete.
//
//	factory, err := smtp.NewFactory(cfg.SMTP, smtp.WithAttachmentLoader(loader))
//	sender, err := email.NewSender(factory, email.WithDefaultFrom(cfg.DefaultFrom))
package smtp
