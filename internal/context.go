package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextUsernameKey ctxKey = "username"

// UsernameFromContext returns the authenticated username, or "" when the request is anonymous.
func UsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if username, ok := ctx.Value(ContextUsernameKey).(string); ok {
		return username
	}
	return ""
}

func ContextWithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ContextUsernameKey, username)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
