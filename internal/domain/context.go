package domain

import "context"

type sessionContextKey struct{}

// WithSession attaches the calling session to ctx so it travels with a
// forwarded call.
func WithSession(ctx context.Context, id SessionID) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, id)
}

func SessionFromContext(ctx context.Context) (SessionID, bool) {
	id, ok := ctx.Value(sessionContextKey{}).(SessionID)
	return id, ok && id != ""
}
