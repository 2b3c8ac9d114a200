package email

import (
	"net/http"

	"github.com/dmitrymomot/mailkit/pkg/clientip"
)

// DefaultSessionCookie is read by OriginMiddleware unless another name is set.
const DefaultSessionCookie = "session_id"

type originOptions struct {
	cookie  string
	header  string
	headers []string
}

// OriginOption configures OriginMiddleware.
type OriginOption func(*originOptions)

// WithSessionCookie sets the cookie holding the session id.
func WithSessionCookie(name string) OriginOption {
	return func(o *originOptions) { o.cookie = name }
}

// WithSessionHeader reads the session id from a header when the cookie is absent.
func WithSessionHeader(name string) OriginOption {
	return func(o *originOptions) { o.header = name }
}

// WithIPHeaders sets the proxy headers trusted for the client address.
func WithIPHeaders(headers ...string) OriginOption {
	return func(o *originOptions) { o.headers = headers }
}

// OriginFromRequest derives the origin of a request.
func OriginFromRequest(r *http.Request, opts ...OriginOption) Origin {
	o := originOptions{cookie: DefaultSessionCookie}
	for _, opt := range opts {
		opt(&o)
	}

	origin := Origin{IP: clientip.FromRequest(r, o.headers...)}
	if r == nil {
		return origin
	}
	if o.cookie != "" {
		if c, err := r.Cookie(o.cookie); err == nil {
			origin.SessionID = c.Value
		}
	}
	if origin.SessionID == "" && o.header != "" {
		origin.SessionID = r.Header.Get(o.header)
	}
	return origin
}

// OriginMiddleware stores the request origin in the request context, so
// messages sent while handling it are logged with the caller's IP and session.
func OriginMiddleware(opts ...OriginOption) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithOrigin(r.Context(), OriginFromRequest(r, opts...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
