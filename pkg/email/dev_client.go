package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailkit/pkg/sanitizer"
)

// DevClient is a Client for local development. It writes every email to a
// directory as .html, .txt and .json files instead of delivering it.
type DevClient struct {
	dir string
	now func() time.Time
}

// NewDevClient creates a dev client writing into dir. The directory is created on first send.
func NewDevClient(dir string) *DevClient {
	return &DevClient{dir: dir, now: time.Now}
}

// NewDevClientFactory returns a ClientFactory producing dev clients for dir.
func NewDevClientFactory(dir string) ClientFactory {
	return func() (Client, error) {
		if dir == "" {
			return nil, fmt.Errorf("%w: dev directory is required", ErrInvalidConfig)
		}
		return NewDevClient(dir), nil
	}
}

// devMetadata is the JSON file written next to the bodies.
type devMetadata struct {
	MessageID   string   `json:"message_id"`
	Timestamp   string   `json:"timestamp"`
	From        string   `json:"from"`
	ReplyTo     string   `json:"reply_to,omitempty"`
	To          []string `json:"to"`
	Cc          []string `json:"cc,omitempty"`
	Bcc         []string `json:"bcc,omitempty"`
	Subject     string   `json:"subject"`
	Campaign    string   `json:"campaign"`
	Attachments []string `json:"attachments,omitempty"`
	Track       bool     `json:"track"`
}

// Send writes the envelope to disk and returns a generated message id.
func (d *DevClient) Send(ctx context.Context, env *Envelope) (Receipt, error) {
	if env == nil {
		return Receipt{}, fmt.Errorf("%w: nil envelope", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return Receipt{}, fmt.Errorf("create directory: %w", err)
	}

	now := d.now()
	id := uuid.NewString()
	identifier := env.Subject
	if identifier == "" {
		identifier = env.Campaign
	}
	base := fmt.Sprintf("%s_%s_%s", now.Format("2006_01_02_150405"), sanitizer.SanitizeFilename(identifier, 80), id[:8])

	meta := devMetadata{
		MessageID:   fmt.Sprintf("<%s@mailkit.dev>", id),
		Timestamp:   now.Format(time.RFC3339),
		From:        env.From.String(),
		To:          addressStrings(env.To),
		Cc:          addressStrings(env.Cc),
		Bcc:         addressStrings(env.Bcc),
		Subject:     env.Subject,
		Campaign:    env.Campaign,
		Attachments: env.Attachments,
		Track:       env.Track,
	}
	if !env.ReplyTo.IsZero() {
		meta.ReplyTo = env.ReplyTo.String()
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal metadata: %w", err)
	}

	files := []struct {
		ext  string
		data []byte
	}{
		{".html", []byte(env.HTML)},
		{".txt", []byte(env.Text)},
		{".json", data},
	}
	var errs []error
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(d.dir, base+f.ext), f.data, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write %s file: %w", f.ext, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Receipt{}, err
	}

	return Receipt{MessageID: meta.MessageID}, nil
}

func addressStrings[T fmt.Stringer](list []T) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.String()
	}
	return out
}
