package email_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/logger"
)

func TestOrigin(t *testing.T) {
	t.Parallel()

	_, ok := email.OriginFromContext(context.Background())
	assert.False(t, ok)

	ctx := email.WithOrigin(context.Background(), email.Origin{IP: "198.51.100.4", SessionID: "s-9"})
	o, ok := email.OriginFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "198.51.100.4", o.IP)
	assert.Equal(t, "s-9", o.SessionID)
}

func TestOriginExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithFormat(logger.FormatJSON),
		logger.WithContextExtractors(email.OriginExtractor))

	ctx := email.WithOrigin(context.Background(), email.Origin{IP: "198.51.100.4", SessionID: "s-9"})
	log.InfoContext(ctx, "queued")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	origin, ok := rec["origin"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "198.51.100.4", origin["ip"])
	assert.Equal(t, "s-9", origin["session_id"])

	_, ok = email.OriginExtractor(email.WithOrigin(context.Background(), email.Origin{}))
	assert.False(t, ok)
}
