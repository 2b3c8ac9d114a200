package redislock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/email/redislock"
)

func setup(t *testing.T) (*miniredis.Miniredis, goredis.UniversalClient) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

type mockClaimer struct {
	mock.Mock
}

func (m *mockClaimer) Claim(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error) {
	args := m.Called(id, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockClaimer) Release(ctx context.Context, id uuid.UUID) error {
	return m.Called(id).Error(0)
}

func TestLocker_Claim(t *testing.T) {
	t.Parallel()

	t.Run("single owner", func(t *testing.T) {
		t.Parallel()
		srv, client := setup(t)
		ctx := context.Background()
		id := uuid.New()

		a := redislock.New(client, redislock.WithToken("worker-a"))
		b := redislock.New(client, redislock.WithToken("worker-b"))

		ok, err := a.Claim(ctx, id, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = b.Claim(ctx, id, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		key := redislock.DefaultPrefix + "email:claim:" + id.String()
		got, err := srv.Get(key)
		require.NoError(t, err)
		assert.Equal(t, "worker-a", got)
		assert.Equal(t, time.Minute, srv.TTL(key))
	})

	t.Run("lease expires", func(t *testing.T) {
		t.Parallel()
		srv, client := setup(t)
		ctx := context.Background()
		id := uuid.New()

		a := redislock.New(client)
		b := redislock.New(client)

		ok, err := a.Claim(ctx, id, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		srv.FastForward(2 * time.Minute)

		ok, err = b.Claim(ctx, id, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("custom prefix", func(t *testing.T) {
		t.Parallel()
		srv, client := setup(t)
		id := uuid.New()

		_, err := redislock.New(client, redislock.WithPrefix("app:")).Claim(context.Background(), id, time.Minute)
		require.NoError(t, err)
		assert.True(t, srv.Exists("app:email:claim:"+id.String()))
	})

	t.Run("server down", func(t *testing.T) {
		t.Parallel()
		srv, client := setup(t)
		srv.Close()

		_, err := redislock.New(client).Claim(context.Background(), uuid.New(), time.Minute)
		assert.ErrorContains(t, err, "redislock: claim")
	})
}

func TestLocker_Release(t *testing.T) {
	t.Parallel()

	t.Run("owner releases", func(t *testing.T) {
		t.Parallel()
		_, client := setup(t)
		ctx := context.Background()
		id := uuid.New()

		a := redislock.New(client)
		b := redislock.New(client)

		_, err := a.Claim(ctx, id, time.Minute)
		require.NoError(t, err)
		require.NoError(t, a.Release(ctx, id))

		ok, err := b.Claim(ctx, id, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("foreign lease kept", func(t *testing.T) {
		t.Parallel()
		srv, client := setup(t)
		ctx := context.Background()
		id := uuid.New()

		a := redislock.New(client, redislock.WithToken("worker-a"))
		b := redislock.New(client, redislock.WithToken("worker-b"))

		_, err := a.Claim(ctx, id, time.Minute)
		require.NoError(t, err)
		require.NoError(t, b.Release(ctx, id))

		got, err := srv.Get(redislock.DefaultPrefix + "email:claim:" + id.String())
		require.NoError(t, err)
		assert.Equal(t, "worker-a", got)
	})
}

func TestLocker_WithNext(t *testing.T) {
	t.Parallel()

	t.Run("both agree", func(t *testing.T) {
		t.Parallel()
		_, client := setup(t)
		id := uuid.New()
		next := &mockClaimer{}
		next.On("Claim", id, time.Minute).Return(true, nil).Once()
		next.On("Release", id).Return(nil).Once()

		l := redislock.New(client, redislock.WithNext(next))
		ok, err := l.Claim(context.Background(), id, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, l.Release(context.Background(), id))
		next.AssertExpectations(t)
	})

	t.Run("next refuses", func(t *testing.T) {
		t.Parallel()
		srv, client := setup(t)
		id := uuid.New()
		next := &mockClaimer{}
		next.On("Claim", id, time.Minute).Return(false, nil).Once()

		ok, err := redislock.New(client, redislock.WithNext(next)).Claim(context.Background(), id, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, srv.Exists(redislock.DefaultPrefix+"email:claim:"+id.String()), "redis lease is dropped")
	})

	t.Run("next fails", func(t *testing.T) {
		t.Parallel()
		_, client := setup(t)
		id := uuid.New()
		next := &mockClaimer{}
		next.On("Claim", id, time.Minute).Return(false, errors.New("db down")).Once()

		ok, err := redislock.New(client, redislock.WithNext(next)).Claim(context.Background(), id, time.Minute)
		assert.False(t, ok)
		assert.ErrorContains(t, err, "db down")
	})
}

func TestLocker_ChainsMemoryStorage(t *testing.T) {
	t.Parallel()

	_, client := setup(t)
	store := email.NewMemoryStorage()
	item := &email.QueueItem{}
	require.NoError(t, store.CreateQueueItem(context.Background(), item))

	locker := redislock.New(client, redislock.WithNext(store))
	ok, err := locker.Claim(context.Background(), item.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Claim(context.Background(), item.ID, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "store lease taken through the chain")
}
