package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf)).Info("queued", logger.Campaign("welcome"))

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "queued", entry["msg"])
		assert.Equal(t, "welcome", entry["campaign"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText)).Info("sent")
		assert.Contains(t, buf.String(), "level=INFO")
		assert.Contains(t, buf.String(), "msg=sent")
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("worker", "w1"))).Info("pass")
		assert.Equal(t, "w1", decode(t, buf)["worker"])
	})

	t.Run("context extractors", func(t *testing.T) {
		t.Parallel()

		type key struct{}
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
				v, ok := ctx.Value(key{}).(string)
				return slog.String("request_id", v), ok
			}),
		)
		log.InfoContext(context.WithValue(context.Background(), key{}, "42"), "sent")
		assert.Equal(t, "42", decode(t, buf)["request_id"])
	})

	t.Run("source", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithSource()).Info("sent")
		assert.Contains(t, decode(t, buf), slog.SourceKey)
	})

	t.Run("level by name", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevelName("warn"))
		log.Info("hidden")
		assert.Empty(t, buf.String())
		log.Warn("shown")
		assert.Contains(t, buf.String(), "shown")

		buf.Reset()
		logger.New(logger.WithOutput(buf), logger.WithLevelName("nonsense")).Info("default level kept")
		assert.Contains(t, buf.String(), "default level kept")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat(logger.Format("xml")))
		})
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env       string
		want      string
		debugging bool
	}{
		{"production", logger.EnvProduction, false},
		{"prod", logger.EnvProduction, false},
		{"STAGE", logger.EnvStaging, false},
		{"staging", logger.EnvStaging, false},
		{"local", logger.EnvDevelopment, true},
		{"", logger.EnvDevelopment, true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			log := logger.New(
				logger.WithOutput(buf),
				logger.WithEnvironment(tt.env, "mailqueue"),
				logger.WithFormat(logger.FormatJSON),
			)
			assert.Equal(t, tt.debugging, log.Enabled(context.Background(), slog.LevelDebug))

			log.Warn("msg")
			entry := decode(t, buf)
			assert.Equal(t, tt.want, entry["env"])
			assert.Equal(t, "mailqueue", entry["service"])
		})
	}
}

func TestWithEnvironment_DevelopmentIsText(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger.New(logger.WithEnvironment("development", "svc"), logger.WithOutput(buf)).Debug("msg")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "service=svc")
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, logger.Config{}.Validate())
	assert.NoError(t, logger.Config{Level: "debug", Format: logger.FormatText}.Validate())

	err := logger.Config{Level: "loud", Format: "xml"}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, logger.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "loud")
	assert.Contains(t, err.Error(), "xml")
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("config overrides preset", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log, err := logger.NewFromConfig("production", "mailqueue",
			logger.Config{Level: "debug"}, logger.WithOutput(buf))
		require.NoError(t, err)

		log.Debug("claimed")
		entry := decode(t, buf)
		assert.Equal(t, "DEBUG", entry["level"])
		assert.Equal(t, logger.EnvProduction, entry["env"])
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		_, err := logger.NewFromConfig("production", "mailqueue", logger.Config{Format: "xml"})
		assert.True(t, errors.Is(err, logger.ErrInvalidConfig))
	})
}

func TestSetAsDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger.SetAsDefault(logger.New(logger.WithOutput(buf)))
	slog.Info("default")
	assert.Equal(t, "default", decode(t, buf)["msg"])
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	log := logger.Discard()
	require.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
