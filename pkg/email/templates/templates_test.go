package templates_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/email/templates"
)

func greeting(data map[string]any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>Hi "+templ.EscapeString(data["name"].(string))+"</p>")
		return err
	})
}

func TestRender(t *testing.T) {
	t.Parallel()

	t.Run("writes the component", func(t *testing.T) {
		t.Parallel()

		out, err := templates.Render(context.Background(), templ.Raw("<b>ok</b>"))
		require.NoError(t, err)
		assert.Equal(t, "<b>ok</b>", out)
	})

	t.Run("returns the component error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		out, err := templates.Render(context.Background(), templ.ComponentFunc(func(context.Context, io.Writer) error {
			return boom
		}))
		require.ErrorIs(t, err, boom)
		assert.Empty(t, out)
	})

	t.Run("nil component", func(t *testing.T) {
		t.Parallel()

		_, err := templates.Render(context.Background(), nil)
		require.ErrorIs(t, err, templates.ErrNilComponent)
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("renders a registered template", func(t *testing.T) {
		t.Parallel()

		reg := templates.NewRegistry()
		require.NoError(t, reg.Register("Welcome", greeting))

		out, err := reg.Render(context.Background(), "welcome", map[string]any{"name": "<Alice>"})
		require.NoError(t, err)
		assert.Equal(t, "<p>Hi &lt;Alice&gt;</p>", out)
		assert.True(t, reg.Has(" WELCOME "))
		assert.Equal(t, []string{"generic", "welcome"}, reg.Idents())
	})

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()

		reg := templates.NewRegistry()
		_, err := reg.Render(context.Background(), "missing", nil)
		require.ErrorIs(t, err, email.ErrTemplateNotFound)
	})

	t.Run("fallback", func(t *testing.T) {
		t.Parallel()

		reg := templates.NewRegistry(templates.WithFallback(templates.Generic))
		out, err := reg.Render(context.Background(), "missing", map[string]any{"title": "Fallback"})
		require.NoError(t, err)
		assert.Contains(t, out, "<h1 style=\"font-size:22px;\">Fallback</h1>")
	})

	t.Run("with template option", func(t *testing.T) {
		t.Parallel()

		reg := templates.NewRegistry(templates.WithTemplate("greet", greeting))
		out, err := reg.Render(context.Background(), "greet", map[string]any{"name": "Bob"})
		require.NoError(t, err)
		assert.Equal(t, "<p>Hi Bob</p>", out)
	})

	t.Run("invalid registrations", func(t *testing.T) {
		t.Parallel()

		reg := templates.NewRegistry()
		assert.Error(t, reg.Register("  ", greeting))
		assert.Error(t, reg.Register("x", nil))
		assert.Panics(t, func() { reg.MustRegister("", greeting) })
	})

	t.Run("usable as message renderer", func(t *testing.T) {
		t.Parallel()

		reg := templates.NewRegistry()
		sender, err := email.NewSender(func() (email.Client, error) { return nil, nil }, email.WithRenderer(reg))
		require.NoError(t, err)

		msg := sender.NewMessage()
		msg.SetTemplate("generic")
		msg.SetTemplateData(map[string]any{"title": "Hello", "content": "Line one"})

		html, err := msg.HTML(context.Background())
		require.NoError(t, err)
		assert.Contains(t, html, "<p>Line one</p>")

		text, err := msg.Text(context.Background())
		require.NoError(t, err)
		assert.Contains(t, text, "Hello")
		assert.Contains(t, text, "Line one")
	})
}

func TestGeneric(t *testing.T) {
	t.Parallel()

	out, err := templates.Render(context.Background(), templates.Generic(map[string]any{
		"title":   "Reset <password>",
		"content": "First line\nsecond line\n\nNew paragraph & more",
		"html":    `<a href="https://example.com">Open</a>`,
	}))
	require.NoError(t, err)

	assert.Contains(t, out, "<title>Reset &lt;password&gt;</title>")
	assert.Contains(t, out, "<p>First line<br>second line</p>")
	assert.Contains(t, out, "<p>New paragraph &amp; more</p>")
	assert.Contains(t, out, `<a href="https://example.com">Open</a>`)
}
