package session

import "context"

type ctxKey struct{}

// NewContext returns a context carrying the session.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by the server middleware,
// or nil when the request carries none.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
