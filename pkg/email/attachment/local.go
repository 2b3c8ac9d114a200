package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalSource reads attachments from the filesystem.
// With a non-empty root, relative descriptors resolve inside root and may not escape it.
type LocalSource struct {
	root    string
	maxSize int64
}

// LocalOption configures a LocalSource.
type LocalOption func(*LocalSource)

func WithLocalMaxSize(n int64) LocalOption {
	return func(s *LocalSource) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

func NewLocalSource(root string, opts ...LocalOption) *LocalSource {
	s := &LocalSource{root: root, maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LocalSource) Load(ctx context.Context, descriptor string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.resolve(descriptor)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, descriptor)
		}
		return nil, errors.Join(ErrFailedToRead, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Join(ErrFailedToRead, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidDescriptor, descriptor)
	}
	if info.Size() > s.maxSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, descriptor)
	}

	data, err := io.ReadAll(io.LimitReader(f, s.maxSize+1))
	if err != nil {
		return nil, errors.Join(ErrFailedToRead, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, descriptor)
	}

	name := filepath.Base(p)
	return &File{Name: name, ContentType: contentType(name, data), Data: data}, nil
}

func (s *LocalSource) resolve(descriptor string) (string, error) {
	if s.root == "" {
		return filepath.Clean(descriptor), nil
	}
	if filepath.IsAbs(descriptor) {
		return "", fmt.Errorf("%w: absolute path outside root", ErrInvalidDescriptor)
	}

	root, err := filepath.Abs(s.root)
	if err != nil {
		return "", errors.Join(ErrInvalidConfig, err)
	}
	p := filepath.Join(root, descriptor)
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes root", ErrInvalidDescriptor)
	}
	return p, nil
}
