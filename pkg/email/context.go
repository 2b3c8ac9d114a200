package email

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/mailkit/pkg/logger"
)

// Origin identifies who triggered a send. It is copied into every email log record.
type Origin struct {
	IP        string
	SessionID string
}

type originKey struct{}

// WithOrigin stores the origin in ctx.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

// OriginFromContext retrieves the origin from ctx.
func OriginFromContext(ctx context.Context) (Origin, bool) {
	if ctx == nil {
		return Origin{}, false
	}
	o, ok := ctx.Value(originKey{}).(Origin)
	return o, ok
}

// OriginExtractor is a logger.ContextExtractor adding the origin as an "origin" group.
func OriginExtractor(ctx context.Context) (slog.Attr, bool) {
	o, ok := OriginFromContext(ctx)
	if !ok || (o.IP == "" && o.SessionID == "") {
		return slog.Attr{}, false
	}
	return logger.Group("origin", logger.IP(o.IP), logger.SessionID(o.SessionID)), true
}
