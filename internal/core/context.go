package core

import "context"

type contextKey string

const (
	ctxKeyClientIP  contextKey = "edit_audit_ip"
	ctxKeyUserAgent contextKey = "edit_audit_ua"
)

// WithClientIP attaches the requesting client's IP for the edit audit trail.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// WithUserAgent attaches the requesting client's User-Agent for the edit
// audit trail.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// ClientIPFromContext returns the attached client IP, if any.
func ClientIPFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyClientIP).(string); ok {
		return v
	}
	return ""
}

// UserAgentFromContext returns the attached User-Agent, if any.
func UserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
