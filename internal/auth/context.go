package auth

import "context"

type contextKey struct{}

// WithUserID attaches the verified token subject to the request context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFromContext recovers the subject set by the session middleware. The
// second return is false on routes the middleware never ran on.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok
}
