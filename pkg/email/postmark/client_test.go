package postmark_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	pm "github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/address"
	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/email/attachment"
	"github.com/dmitrymomot/mailkit/pkg/email/postmark"
)

var validConfig = email.PostmarkConfig{
	ServerToken:  "test-server-token",
	AccountToken: "test-account-token",
}

type apiStub struct {
	mu       sync.Mutex
	requests []pm.Email
	tokens   []string
	status   int
	response string
}

func newAPI(t *testing.T, status int, response string) (*apiStub, *httptest.Server) {
	t.Helper()

	stub := &apiStub{status: status, response: response}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg pm.Email
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		stub.mu.Lock()
		stub.requests = append(stub.requests, msg)
		stub.tokens = append(stub.tokens, r.Header.Get("X-Postmark-Server-Token"))
		stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(stub.status)
		_, _ = w.Write([]byte(stub.response))
	}))
	t.Cleanup(srv.Close)
	return stub, srv
}

func (s *apiStub) snapshot() ([]pm.Email, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pm.Email(nil), s.requests...), append([]string(nil), s.tokens...)
}

func envelope() *email.Envelope {
	return &email.Envelope{
		From:     address.Address{Email: "noreply@example.com", Name: "Example"},
		ReplyTo:  address.Address{Email: "support@example.com"},
		To:       []address.Address{{Email: "alice@example.com", Name: "Alice"}, {Email: "carol@example.com"}},
		Cc:       []address.Address{{Email: "bob@example.com"}},
		Bcc:      []address.Address{{Email: "audit@example.com"}},
		Subject:  "Welcome aboard",
		HTML:     "<p>Hello</p>",
		Text:     "Hello\n",
		Campaign: "welcome-2026",
		Track:    true,
		IsHTML:   true,
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  email.PostmarkConfig
		wantErr string
	}{
		{name: "valid tokens", config: validConfig},
		{name: "empty server token", config: email.PostmarkConfig{AccountToken: "a"}, wantErr: "server token is required"},
		{name: "empty account token", config: email.PostmarkConfig{ServerToken: "s"}, wantErr: "account token is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := postmark.New(tt.config)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, client)
				return
			}
			assert.Nil(t, client)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustNew_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { postmark.MustNew(email.PostmarkConfig{}) })
}

func TestClient_Send(t *testing.T) {
	t.Parallel()

	t.Run("maps the envelope", func(t *testing.T) {
		t.Parallel()

		stub, srv := newAPI(t, http.StatusOK, `{"To":"alice@example.com","MessageID":"b7bc2f4a-e38e-4336-af7d-e6c392c2f817","ErrorCode":0,"Message":"OK"}`)
		client, err := postmark.New(validConfig, postmark.WithBaseURL(srv.URL))
		require.NoError(t, err)

		receipt, err := client.Send(context.Background(), envelope())
		require.NoError(t, err)
		assert.Equal(t, "b7bc2f4a-e38e-4336-af7d-e6c392c2f817", receipt.MessageID)

		requests, tokens := stub.snapshot()
		require.Len(t, requests, 1)
		got := requests[0]
		assert.Equal(t, "test-server-token", tokens[0])
		assert.Equal(t, `"Example" <noreply@example.com>`, got.From)
		assert.Equal(t, `"Alice" <alice@example.com>, carol@example.com`, got.To)
		assert.Equal(t, "bob@example.com", got.Cc)
		assert.Equal(t, "audit@example.com", got.Bcc)
		assert.Equal(t, "support@example.com", got.ReplyTo)
		assert.Equal(t, "Welcome aboard", got.Subject)
		assert.Equal(t, "welcome-2026", got.Tag)
		assert.Equal(t, "<p>Hello</p>", got.HTMLBody)
		assert.Equal(t, "Hello\n", got.TextBody)
		assert.True(t, got.TrackOpens)
		assert.Equal(t, "HtmlOnly", got.TrackLinks)
	})

	t.Run("tracking off", func(t *testing.T) {
		t.Parallel()

		stub, srv := newAPI(t, http.StatusOK, `{"MessageID":"id-1","ErrorCode":0,"Message":"OK"}`)
		client, err := postmark.New(validConfig, postmark.WithBaseURL(srv.URL))
		require.NoError(t, err)

		env := envelope()
		env.Track = false
		_, err = client.Send(context.Background(), env)
		require.NoError(t, err)

		requests, _ := stub.snapshot()
		require.Len(t, requests, 1)
		assert.False(t, requests[0].TrackOpens)
		assert.Empty(t, requests[0].TrackLinks)
	})

	t.Run("attachments are base64 encoded", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice.pdf"), []byte("%PDF-1.4 invoice"), 0o600))
		loader := attachment.NewLoader(attachment.WithLocal(attachment.NewLocalSource(dir)))

		stub, srv := newAPI(t, http.StatusOK, `{"MessageID":"id-2","ErrorCode":0,"Message":"OK"}`)
		client, err := postmark.New(validConfig, postmark.WithBaseURL(srv.URL), postmark.WithAttachmentLoader(loader))
		require.NoError(t, err)

		env := envelope()
		env.Attachments = []string{"invoice.pdf"}
		_, err = client.Send(context.Background(), env)
		require.NoError(t, err)

		requests, _ := stub.snapshot()
		require.Len(t, requests, 1)
		require.Len(t, requests[0].Attachments, 1)
		att := requests[0].Attachments[0]
		assert.Equal(t, "invoice.pdf", att.Name)
		assert.Equal(t, "application/pdf", att.ContentType)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 invoice")), att.Content)
	})

	t.Run("api error code", func(t *testing.T) {
		t.Parallel()

		_, srv := newAPI(t, http.StatusUnprocessableEntity, `{"ErrorCode":300,"Message":"Invalid email request"}`)
		client, err := postmark.New(validConfig, postmark.WithBaseURL(srv.URL))
		require.NoError(t, err)

		_, err = client.Send(context.Background(), envelope())
		require.Error(t, err)
	})

	t.Run("missing attachment", func(t *testing.T) {
		t.Parallel()

		stub, srv := newAPI(t, http.StatusOK, `{"MessageID":"id-3","ErrorCode":0,"Message":"OK"}`)
		loader := attachment.NewLoader(attachment.WithLocal(attachment.NewLocalSource(t.TempDir())))
		client, err := postmark.New(validConfig, postmark.WithBaseURL(srv.URL), postmark.WithAttachmentLoader(loader))
		require.NoError(t, err)

		env := envelope()
		env.Attachments = []string{"nope.pdf"}
		_, err = client.Send(context.Background(), env)
		require.ErrorIs(t, err, attachment.ErrNotFound)
		requests, _ := stub.snapshot()
		assert.Empty(t, requests)
	})

	t.Run("no recipients", func(t *testing.T) {
		t.Parallel()

		client, err := postmark.New(validConfig)
		require.NoError(t, err)

		env := envelope()
		env.To, env.Cc, env.Bcc = nil, nil, nil
		_, err = client.Send(context.Background(), env)
		require.ErrorIs(t, err, email.ErrNoRecipients)
	})
}

func TestNewFactory(t *testing.T) {
	t.Parallel()

	_, err := postmark.NewFactory(email.PostmarkConfig{})
	require.ErrorIs(t, err, email.ErrInvalidConfig)

	factory, err := postmark.NewFactory(validConfig)
	require.NoError(t, err)
	client, err := factory()
	require.NoError(t, err)
	assert.NotNil(t, client)
}
