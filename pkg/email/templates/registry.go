package templates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/mailkit/pkg/email"
)

// GenericIdent is the identifier the built-in Generic layout is registered under.
const GenericIdent = "generic"

// Template builds a component from the message's template data.
type Template func(data map[string]any) templ.Component

// Registry maps template identifiers to templ components. It implements email.Renderer.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
	fallback  Template
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithFallback renders unknown identifiers with tpl instead of failing.
func WithFallback(tpl Template) RegistryOption {
	return func(r *Registry) { r.fallback = tpl }
}

// WithTemplate registers tpl under ident.
func WithTemplate(ident string, tpl Template) RegistryOption {
	return func(r *Registry) {
		if ident = normalizeIdent(ident); ident != "" && tpl != nil {
			r.templates[ident] = tpl
		}
	}
}

// NewRegistry returns a registry holding the Generic layout.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{templates: map[string]Template{GenericIdent: Generic}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces a template.
func (r *Registry) Register(ident string, tpl Template) error {
	ident = normalizeIdent(ident)
	if ident == "" {
		return errors.New("templates: empty template identifier")
	}
	if tpl == nil {
		return fmt.Errorf("templates: nil template for %q", ident)
	}

	r.mu.Lock()
	r.templates[ident] = tpl
	r.mu.Unlock()
	return nil
}

// MustRegister panics when Register fails.
func (r *Registry) MustRegister(ident string, tpl Template) {
	if err := r.Register(ident, tpl); err != nil {
		panic(err)
	}
}

func (r *Registry) Has(ident string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[normalizeIdent(ident)]
	return ok
}

// Idents lists registered identifiers in sorted order.
func (r *Registry) Idents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.templates))
	for ident := range r.templates {
		out = append(out, ident)
	}
	sort.Strings(out)
	return out
}

// Render renders ident with data. Unknown identifiers fail with
// email.ErrTemplateNotFound unless a fallback is set.
func (r *Registry) Render(ctx context.Context, ident string, data map[string]any) (string, error) {
	r.mu.RLock()
	tpl, ok := r.templates[normalizeIdent(ident)]
	fallback := r.fallback
	r.mu.RUnlock()

	if !ok {
		if fallback == nil {
			return "", fmt.Errorf("%w: %q", email.ErrTemplateNotFound, ident)
		}
		tpl = fallback
	}

	html, err := Render(ctx, tpl(data))
	if err != nil {
		return "", fmt.Errorf("render %q: %w", ident, err)
	}
	return html, nil
}

func normalizeIdent(ident string) string {
	return strings.ToLower(strings.TrimSpace(ident))
}

var _ email.Renderer = (*Registry)(nil)
