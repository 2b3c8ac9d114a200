package attachment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/email/attachment"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Load(ctx context.Context, descriptor string) (*attachment.File, error) {
	args := m.Called(ctx, descriptor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attachment.File), args.Error(1)
}

func file(name string, size int) *attachment.File {
	return &attachment.File{Name: name, ContentType: "application/octet-stream", Data: make([]byte, size)}
}

func TestCachedSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("loads each descriptor once", func(t *testing.T) {
		t.Parallel()

		src := &mockSource{}
		src.On("Load", ctx, "s3://b/a.pdf").Return(file("a.pdf", 10), nil).Once()

		c := attachment.NewCachedSource(src, 100)
		for range 3 {
			f, err := c.Load(ctx, "s3://b/a.pdf")
			require.NoError(t, err)
			assert.Equal(t, "a.pdf", f.Name)
		}
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, int64(10), c.Size())
		src.AssertExpectations(t)
	})

	t.Run("returned files are copies", func(t *testing.T) {
		t.Parallel()

		src := &mockSource{}
		src.On("Load", ctx, "a").Return(file("a", 1), nil).Once()

		c := attachment.NewCachedSource(src, 100)
		f, err := c.Load(ctx, "a")
		require.NoError(t, err)
		f.Name = "renamed"

		again, err := c.Load(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "a", again.Name)
	})

	t.Run("evicts least recently used over budget", func(t *testing.T) {
		t.Parallel()

		src := &mockSource{}
		src.On("Load", ctx, "a").Return(file("a", 40), nil).Twice()
		src.On("Load", ctx, "b").Return(file("b", 40), nil).Once()
		src.On("Load", ctx, "c").Return(file("c", 40), nil).Once()

		c := attachment.NewCachedSource(src, 100)
		for _, d := range []string{"a", "b", "c"} {
			_, err := c.Load(ctx, d)
			require.NoError(t, err)
		}
		assert.Equal(t, 2, c.Len())
		assert.Equal(t, int64(80), c.Size())

		// b and c are cached, a was evicted
		_, err := c.Load(ctx, "b")
		require.NoError(t, err)
		_, err = c.Load(ctx, "a")
		require.NoError(t, err)
		src.AssertExpectations(t)
	})

	t.Run("oversized files bypass the cache", func(t *testing.T) {
		t.Parallel()

		src := &mockSource{}
		src.On("Load", ctx, "big").Return(file("big", 200), nil).Twice()

		c := attachment.NewCachedSource(src, 100)
		for range 2 {
			_, err := c.Load(ctx, "big")
			require.NoError(t, err)
		}
		assert.Zero(t, c.Len())
		src.AssertExpectations(t)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()

		src := &mockSource{}
		src.On("Load", ctx, "missing").Return(nil, attachment.ErrNotFound).Twice()

		c := attachment.NewCachedSource(src, 100)
		for range 2 {
			_, err := c.Load(ctx, "missing")
			assert.True(t, errors.Is(err, attachment.ErrNotFound))
		}
		assert.Zero(t, c.Len())
		src.AssertExpectations(t)
	})

	t.Run("purge", func(t *testing.T) {
		t.Parallel()

		src := &mockSource{}
		src.On("Load", ctx, "a").Return(file("a", 5), nil).Twice()

		c := attachment.NewCachedSource(src, 0)
		_, err := c.Load(ctx, "a")
		require.NoError(t, err)
		c.Purge()
		assert.Zero(t, c.Size())
		_, err = c.Load(ctx, "a")
		require.NoError(t, err)
		src.AssertExpectations(t)
	})
}

func TestLoader_CachedS3(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src := &mockSource{}
	src.On("Load", ctx, "s3://bucket/report.pdf").Return(file("report.pdf", 3), nil).Once()

	l := attachment.NewLoader(attachment.WithS3(attachment.NewCachedSource(src, 0)))
	files, err := l.LoadAll(ctx, []string{"s3://bucket/report.pdf", "s3://bucket/report.pdf"})
	require.NoError(t, err)
	assert.Len(t, files, 2)
	src.AssertExpectations(t)
}
