package email

import (
	"errors"

	"github.com/dmitrymomot/mailkit/pkg/address"
)

var (
	// ErrInvalidInput is the address package sentinel, so errors.Is matches across both packages.
	ErrInvalidInput = address.ErrInvalidInput

	ErrTransportFailure   = errors.New("email.errors.transport_failure")
	ErrQueueFailed        = errors.New("email.errors.queue_failed")
	ErrQueueNotConfigured = errors.New("email.errors.queue_not_configured")
	ErrNoSender           = errors.New("email.errors.no_sender")
	ErrNoRecipients       = errors.New("email.errors.no_recipients")
	ErrInvalidConfig      = errors.New("email.errors.invalid_config")
	ErrRenderFailed       = errors.New("email.errors.render_failed")
	ErrTemplateNotFound   = errors.New("email.errors.template_not_found")
	ErrQueueItemNotFound  = errors.New("email.errors.queue_item_not_found")
	ErrListDueFailed      = errors.New("email.errors.list_due_failed")

	ErrWorkerAlreadyStarted = errors.New("email.errors.worker_already_started")
	ErrWorkerNotStarted     = errors.New("email.errors.worker_not_started")
)
