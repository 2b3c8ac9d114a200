package email_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/logger"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Send(ctx context.Context, env *email.Envelope) (email.Receipt, error) {
	args := m.Called(ctx, env)
	return args.Get(0).(email.Receipt), args.Error(1)
}

func factoryFor(c email.Client) email.ClientFactory {
	return func() (email.Client, error) { return c, nil }
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestSender(t *testing.T, client email.Client, store *email.MemoryStorage, opts ...email.SenderOption) *email.Sender {
	t.Helper()

	base := []email.SenderOption{
		email.WithDefaultFrom("Mailer <mailer@example.com>"),
		email.WithLogger(logger.Discard()),
		email.WithClock(clock),
	}
	if store != nil {
		base = append(base, email.WithQueueRepository(store), email.WithLogRepository(store))
	}
	sender, err := email.NewSender(factoryFor(client), append(base, opts...)...)
	require.NoError(t, err)
	return sender
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	t.Run("nil factory", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewSender(nil)
		require.ErrorIs(t, err, email.ErrInvalidConfig)
	})

	t.Run("invalid default from", func(t *testing.T) {
		t.Parallel()

		_, err := email.NewSender(factoryFor(&mockClient{}), email.WithDefaultFrom(42))
		require.ErrorIs(t, err, email.ErrInvalidConfig)
	})

	t.Run("default from falls back to the package default", func(t *testing.T) {
		t.Parallel()

		sender, err := email.NewSender(factoryFor(&mockClient{}))
		require.NoError(t, err)
		assert.Equal(t, email.DefaultFromAddress, sender.DefaultFrom().Email)
	})

	t.Run("must panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { email.MustNewSender(nil) })
	})
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		client := &mockClient{}
		var got *email.Envelope
		client.On("Send", mock.Anything, mock.AnythingOfType("*email.Envelope")).
			Run(func(args mock.Arguments) { got = args.Get(1).(*email.Envelope) }).
			Return(email.Receipt{MessageID: "<m-1@example.com>"}, nil).Once()

		store := email.NewMemoryStorage(clock)
		sender := newTestSender(t, client, store)

		msg := sender.NewMessage()
		require.NoError(t, msg.SetTo([]string{"a@example.com", "b@example.com"}))
		require.NoError(t, msg.SetBcc("audit@example.com"))
		msg.SetCampaign("c-1")
		msg.SetSubject("Hello")
		msg.SetHTML("<p>Hi there</p>")
		msg.SetTrackEnabled(true)

		assert.True(t, msg.Send(context.Background()))
		client.AssertExpectations(t)

		require.NotNil(t, got)
		assert.Equal(t, "mailer@example.com", got.From.Email)
		assert.Equal(t, "Mailer", got.From.Name)
		assert.Equal(t, "<p>Hi there</p>", got.HTML)
		assert.Equal(t, "Hi there\n", got.Text)
		assert.True(t, got.Track)
		assert.Len(t, got.Recipients(), 3)

		logs := store.Logs()
		require.Len(t, logs, 3)
		for _, l := range logs {
			assert.Equal(t, email.SendStatusSuccess, l.SendStatus)
			assert.Equal(t, "<m-1@example.com>", l.MessageID)
			assert.Equal(t, "c-1", l.Campaign)
			assert.Equal(t, email.LogTypeEmail, l.Type)
			assert.Equal(t, email.LogActionSend, l.Action)
			assert.Equal(t, fixedNow, l.SendTS)
			assert.Empty(t, l.SendError)
		}
		assert.Equal(t, "audit@example.com", logs[2].To)
	})

	t.Run("transport failure is logged once per recipient", func(t *testing.T) {
		t.Parallel()

		client := &mockClient{}
		client.On("Send", mock.Anything, mock.Anything).Return(email.Receipt{}, errors.New("relay down")).Once()

		store := email.NewMemoryStorage(clock)
		sender := newTestSender(t, client, store)

		msg := sender.NewMessage()
		require.NoError(t, msg.SetTo("a@example.com"))
		msg.SetHTML("<p>x</p>")

		ctx := email.WithOrigin(context.Background(), email.Origin{IP: "203.0.113.7", SessionID: "sess-1"})
		assert.False(t, sender.Send(ctx, msg))

		logs := store.Logs()
		require.Len(t, logs, 1)
		assert.Equal(t, email.SendStatusFailure, logs[0].SendStatus)
		assert.Contains(t, logs[0].SendError, "relay down")
		assert.Equal(t, "203.0.113.7", logs[0].IP)
		assert.Equal(t, "sess-1", logs[0].SessionID)
	})

	t.Run("logging disabled", func(t *testing.T) {
		t.Parallel()

		client := &mockClient{}
		client.On("Send", mock.Anything, mock.Anything).Return(email.Receipt{}, errors.New("nope")).Once()

		store := email.NewMemoryStorage(clock)
		sender := newTestSender(t, client, store)

		msg := sender.NewMessage()
		require.NoError(t, msg.SetTo("a@example.com"))
		msg.SetLogEnabled(false)

		assert.False(t, msg.Send(context.Background()))
		assert.Empty(t, store.Logs())
	})

	t.Run("no recipients never reaches the transport", func(t *testing.T) {
		t.Parallel()

		client := &mockClient{}
		store := email.NewMemoryStorage(clock)
		sender := newTestSender(t, client, store)

		msg := sender.NewMessage()
		msg.SetHTML("<p>x</p>")

		assert.False(t, msg.Send(context.Background()))
		client.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		assert.Empty(t, store.Logs())
	})

	t.Run("client panic is contained", func(t *testing.T) {
		t.Parallel()

		store := email.NewMemoryStorage(clock)
		panicky := email.ClientFunc(func(context.Context, *email.Envelope) (email.Receipt, error) {
			panic("kaboom")
		})
		sender := newTestSender(t, panicky, store)

		msg := sender.NewMessage()
		require.NoError(t, msg.SetTo("a@example.com"))

		assert.NotPanics(t, func() { assert.False(t, msg.Send(context.Background())) })
		logs := store.Logs()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].SendError, "kaboom")
	})

	t.Run("renderer panic is contained", func(t *testing.T) {
		t.Parallel()

		renderer := email.RendererFunc(func(context.Context, string, map[string]any) (string, error) {
			panic("template exploded")
		})
		sender := newTestSender(t, &mockClient{}, nil, email.WithRenderer(renderer))

		msg := sender.NewMessage()
		require.NoError(t, msg.SetTo("a@example.com"))
		msg.SetTemplate("welcome")

		assert.NotPanics(t, func() { assert.False(t, msg.Send(context.Background())) })
	})

	t.Run("factory error", func(t *testing.T) {
		t.Parallel()

		store := email.NewMemoryStorage(clock)
		sender, err := email.NewSender(
			func() (email.Client, error) { return nil, errors.New("no credentials") },
			email.WithLogRepository(store),
			email.WithLogger(logger.Discard()),
		)
		require.NoError(t, err)

		msg := sender.NewMessage()
		require.NoError(t, msg.SetTo("a@example.com"))
		assert.False(t, msg.Send(context.Background()))

		logs := store.Logs()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].SendError, "no credentials")
	})

	t.Run("explicit from wins", func(t *testing.T) {
		t.Parallel()

		client := &mockClient{}
		client.On("Send", mock.Anything, mock.MatchedBy(func(env *email.Envelope) bool {
			return env.From.Email == "owner@example.com"
		})).Return(email.Receipt{}, nil).Once()

		sender := newTestSender(t, client, nil)
		msg := sender.NewMessage()
		require.NoError(t, msg.SetTo("a@example.com"))
		require.NoError(t, msg.SetFrom("owner@example.com"))

		assert.True(t, msg.Send(context.Background()))
		client.AssertExpectations(t)
	})

	t.Run("each send gets a fresh client", func(t *testing.T) {
		t.Parallel()

		calls := 0
		factory := func() (email.Client, error) {
			calls++
			return email.ClientFunc(func(context.Context, *email.Envelope) (email.Receipt, error) {
				return email.Receipt{}, nil
			}), nil
		}
		sender, err := email.NewSender(factory, email.WithLogger(logger.Discard()))
		require.NoError(t, err)

		for range 3 {
			msg := sender.NewMessage()
			require.NoError(t, msg.SetTo("a@example.com"))
			require.True(t, msg.Send(context.Background()))
		}
		assert.Equal(t, 3, calls)
	})
}

func TestTracker_RepositoryErrorIsSwallowed(t *testing.T) {
	t.Parallel()

	repo := email.LogRepositoryFunc(func(context.Context, *email.Log) error {
		return errors.New("db down")
	})
	tracker := email.NewTracker(repo, email.WithTrackerLogger(logger.Discard()))

	msg := email.NewMessage()
	require.NoError(t, msg.SetTo("a@example.com"))
	env := &email.Envelope{To: msg.To()}

	assert.NotPanics(t, func() {
		tracker.Track(context.Background(), msg, env, email.Receipt{}, nil)
	})

	var nilTracker *email.Tracker
	assert.NotPanics(t, func() {
		nilTracker.Track(context.Background(), msg, env, email.Receipt{}, nil)
	})
}
