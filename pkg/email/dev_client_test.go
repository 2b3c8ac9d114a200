package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/address"
	"github.com/dmitrymomot/mailkit/pkg/email"
)

func TestDevClient_Send(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "emails")
	client := email.NewDevClient(dir)

	env := &email.Envelope{
		From:        address.Address{Email: "noreply@example.com"},
		To:          []address.Address{{Email: "a@example.com", Name: "A"}},
		Bcc:         []address.Address{{Email: "audit@example.com"}},
		Subject:     "Password reset / step 1",
		HTML:        "<p>Reset</p>",
		Text:        "Reset\n",
		Campaign:    "reset",
		Attachments: []string{"guide.pdf"},
	}

	receipt, err := client.Send(context.Background(), env)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(receipt.MessageID, "@mailkit.dev>"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byExt := map[string]string{}
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "/")
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		byExt[filepath.Ext(e.Name())] = string(data)
	}
	assert.Equal(t, "<p>Reset</p>", byExt[".html"])
	assert.Equal(t, "Reset\n", byExt[".txt"])

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(byExt[".json"]), &meta))
	assert.Equal(t, receipt.MessageID, meta["message_id"])
	assert.Equal(t, "noreply@example.com", meta["from"])
	assert.Equal(t, []any{`"A" <a@example.com>`}, meta["to"])
	assert.Equal(t, []any{"audit@example.com"}, meta["bcc"])
	assert.Equal(t, "reset", meta["campaign"])
	assert.Equal(t, []any{"guide.pdf"}, meta["attachments"])
}

func TestDevClient_ThroughSender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender, err := email.NewSender(email.NewDevClientFactory(dir))
	require.NoError(t, err)

	msg := sender.NewMessage()
	require.NoError(t, msg.SetTo("a@example.com"))
	msg.SetSubject("Hello")
	msg.SetHTML("<p>Hello</p>")
	require.True(t, msg.Send(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestDevClient_Errors(t *testing.T) {
	t.Parallel()

	_, err := email.NewDevClientFactory("")()
	require.ErrorIs(t, err, email.ErrInvalidConfig)

	_, err = email.NewDevClient(t.TempDir()).Send(context.Background(), nil)
	require.ErrorIs(t, err, email.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = email.NewDevClient(t.TempDir()).Send(ctx, &email.Envelope{})
	require.ErrorIs(t, err, context.Canceled)
}
