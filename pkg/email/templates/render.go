package templates

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/a-h/templ"
)

// ErrNilComponent is returned by Render for a nil component.
var ErrNilComponent = errors.New("templates: nil component")

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Render writes a templ component into a string. Output of a failed render is discarded.
func Render(ctx context.Context, c templ.Component) (string, error) {
	if c == nil {
		return "", ErrNilComponent
	}

	buf := bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufPool.Put(buf)
	}()

	if err := c.Render(ctx, buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
