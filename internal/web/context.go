package web

import (
	"context"
	"net/http"

	"github.com/jmarchini/octable/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already processed by chi middleware.RealIP
	ua := r.Header.Get("User-Agent")
	ctx = core.WithClientIP(ctx, ip)
	ctx = core.WithUserAgent(ctx, ua)
	return ctx
}
