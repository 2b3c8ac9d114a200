package attachment

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
)

// DefaultMaxSize caps a single attachment.
const DefaultMaxSize int64 = 25 << 20

// File is a loaded attachment.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Source loads descriptors of one kind.
type Source interface {
	Load(ctx context.Context, descriptor string) (*File, error)
}

// Loader dispatches descriptors to a Source by scheme. Descriptors without a
// scheme (or with file://) go to the local source.
type Loader struct {
	local Source
	s3    Source
}

// Option configures a Loader.
type Option func(*Loader)

// WithS3 enables s3:// descriptors.
func WithS3(src Source) Option {
	return func(l *Loader) { l.s3 = src }
}

// WithLocal replaces the local filesystem source.
func WithLocal(src Source) Option {
	return func(l *Loader) {
		if src != nil {
			l.local = src
		}
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{local: NewLocalSource("")}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves one descriptor.
func (l *Loader) Load(ctx context.Context, descriptor string) (*File, error) {
	descriptor = strings.TrimSpace(descriptor)
	if descriptor == "" {
		return nil, ErrInvalidDescriptor
	}

	scheme, rest, found := strings.Cut(descriptor, "://")
	if !found {
		return l.local.Load(ctx, descriptor)
	}

	switch strings.ToLower(scheme) {
	case "file":
		return l.local.Load(ctx, rest)
	case "s3":
		if l.s3 == nil {
			return nil, fmt.Errorf("%w: s3 source is not configured", ErrUnsupportedScheme)
		}
		return l.s3.Load(ctx, descriptor)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// LoadAll resolves every descriptor in order and stops at the first error.
func (l *Loader) LoadAll(ctx context.Context, descriptors []string) ([]*File, error) {
	files := make([]*File, 0, len(descriptors))
	for _, d := range descriptors {
		f, err := l.Load(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// contentType guesses a MIME type from the name, falling back to sniffing the data.
func contentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
